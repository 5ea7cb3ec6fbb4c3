package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Devhypertech/aigroupgepanda/models"
)

// RoomRepository stores rooms and their membership.
type RoomRepository interface {
	// GetOrCreate returns the room, creating it with template on first reference.
	// The template of an existing room is never changed.
	GetOrCreate(ctx context.Context, roomID string, template models.RoomTemplate) (*models.Room, error)
	Find(ctx context.Context, roomID string) (*models.Room, error)
	// AddMember is idempotent on (roomID, userID). The room must exist.
	AddMember(ctx context.Context, roomID, userID, username string) error
	Members(ctx context.Context, roomID string) ([]models.RoomMember, error)
}

// MessageRepository stores room messages and their reactions.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, messageID string) (*models.Message, error)
	// ListByRoom returns up to limit non-deleted messages, newest first,
	// optionally strictly older than the message beforeID.
	ListByRoom(ctx context.Context, roomID string, limit int, beforeID string) ([]models.Message, error)
	Edit(ctx context.Context, messageID, userID, text string) (*models.Message, error)
	Delete(ctx context.Context, messageID, userID string) (*models.Message, error)
	AddReaction(ctx context.Context, reaction models.MessageReaction) error
	RemoveReaction(ctx context.Context, messageID, userID, emoji string) error
	Reactions(ctx context.Context, messageID string) ([]models.MessageReaction, error)
}

// InviteRepository stores invite tokens.
type InviteRepository interface {
	Create(ctx context.Context, roomID string, expiresAt *time.Time) (*models.InviteLink, error)
	// Resolve returns the room bound to token, or a NotFoundError when the
	// token is unknown or past its expiry.
	Resolve(ctx context.Context, token string) (string, error)
	// Cleanup drops stale invites and reports how many were removed.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

// TripContextRepository stores one trip document per room.
type TripContextRepository interface {
	// Get returns nil without error when the room has no context.
	Get(ctx context.Context, roomID string) (*models.TripContext, error)
	// Upsert replaces the whole document.
	Upsert(ctx context.Context, roomID string, data models.TripContextData) (*models.TripContext, error)
}

// Store bundles the repositories of one backing.
type Store struct {
	Backend      string
	Rooms        RoomRepository
	Messages     MessageRepository
	Invites      InviteRepository
	TripContexts TripContextRepository
}

// NewToken returns 32 random bytes hex encoded.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
