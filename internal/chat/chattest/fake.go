// Package chattest provides an in-process chat.Provider for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/chat"
)

type Fake struct {
	mu       sync.Mutex
	Users    map[string]chat.User
	Channels map[string][]string // channel id -> members
	Messages map[string][]chat.Message

	CreateErr error
	WatchErr  error
	AddErr    error
	SendErr   error
	QueryErr  error

	Sent  int
	seq   int
	clock func() time.Time
}

func New() *Fake {
	return &Fake{
		Users:    make(map[string]chat.User),
		Channels: make(map[string][]string),
		Messages: make(map[string][]chat.Message),
		clock:    time.Now,
	}
}

func (f *Fake) UpsertUser(_ context.Context, user chat.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[user.ID] = user
	return nil
}

func (f *Fake) CreateToken(userID string) (string, error) {
	return "token-" + userID, nil
}

func (f *Fake) CreateChannel(_ context.Context, ch chat.Channel, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	if _, ok := f.Channels[ch.ID]; !ok {
		f.Channels[ch.ID] = nil
	}
	return nil
}

func (f *Fake) WatchChannel(_ context.Context, ch chat.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchErr != nil {
		return f.WatchErr
	}
	if _, ok := f.Channels[ch.ID]; !ok {
		return fmt.Errorf("channel %s does not exist", ch.ID)
	}
	return nil
}

func (f *Fake) AddMembers(_ context.Context, ch chat.Channel, userIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	f.Channels[ch.ID] = append(f.Channels[ch.ID], userIDs...)
	return nil
}

// Post appends a message as if a user had sent it through the provider.
func (f *Fake) Post(ch chat.Channel, userID, name, text string) chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendLocked(ch, chat.User{ID: userID, Name: name}, text)
}

func (f *Fake) appendLocked(ch chat.Channel, user chat.User, text string) chat.Message {
	f.seq++
	msg := chat.Message{
		ID:        fmt.Sprintf("msg-%d", f.seq),
		Text:      text,
		Type:      "regular",
		User:      user,
		CreatedAt: f.clock(),
	}
	f.Messages[ch.ID] = append(f.Messages[ch.ID], msg)
	return msg
}

func (f *Fake) QueryMessages(_ context.Context, ch chat.Channel, limit int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	msgs := f.Messages[ch.ID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]chat.Message(nil), msgs...), nil
}

func (f *Fake) SendMessage(_ context.Context, ch chat.Channel, text, userID string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.Sent++
	user := f.Users[userID]
	user.ID = userID
	msg := f.appendLocked(ch, user, text)
	return &msg, nil
}

// SentBy returns the texts userID posted in the channel.
func (f *Fake) SentBy(channelID, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.Messages[channelID] {
		if m.User.ID == userID {
			out = append(out, m.Text)
		}
	}
	return out
}
