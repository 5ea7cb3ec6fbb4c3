package chat

import (
	"context"
	"strings"
	"time"
)

// DefaultChannelType is used when a channel reference carries no type.
const DefaultChannelType = "messaging"

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type Channel struct {
	Type string
	ID   string
}

// ParseChannel resolves a channel from an explicit id and/or a "type:id" cid.
// The explicit id wins; the type defaults to DefaultChannelType.
func ParseChannel(id, cid string) Channel {
	ch := Channel{Type: DefaultChannelType, ID: id}
	if cid != "" {
		parts := strings.SplitN(cid, ":", 2)
		if parts[0] != "" && len(parts) == 2 {
			ch.Type = parts[0]
		}
		if ch.ID == "" && len(parts) == 2 {
			ch.ID = parts[1]
		}
	}
	return ch
}

// RoomID maps a channel id to its room id by dropping the "room-" prefix.
func RoomID(channelID string) string {
	return strings.TrimPrefix(channelID, "room-")
}

// Provider is the hosted chat service: users, tokens, channels, messages.
type Provider interface {
	UpsertUser(ctx context.Context, user User) error
	CreateToken(userID string) (string, error)
	CreateChannel(ctx context.Context, ch Channel, createdBy string) error
	WatchChannel(ctx context.Context, ch Channel) error
	AddMembers(ctx context.Context, ch Channel, userIDs ...string) error
	// QueryMessages returns up to limit recent messages, oldest first.
	QueryMessages(ctx context.Context, ch Channel, limit int) ([]Message, error)
	SendMessage(ctx context.Context, ch Channel, text, userID string) (*Message, error)
}
