package autoreply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/ai"
	"github.com/Devhypertech/aigroupgepanda/internal/chat"
	"github.com/Devhypertech/aigroupgepanda/internal/repository"
	"github.com/Devhypertech/aigroupgepanda/models"

	"go.uber.org/zap"
)

const historyLimit = 10

// Outcome says what the responder did with an event.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeCooldown  Outcome = "cooldown"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeReplied   Outcome = "replied"
)

// Generator produces the AI reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, in ai.Input) ai.Output
}

type Responder struct {
	provider  chat.Provider
	store     *repository.Store
	generator Generator
	trigger   ai.Trigger
	cooldown  *Cooldown
	aiUser    chat.User
	log       *zap.SugaredLogger
}

func NewResponder(provider chat.Provider, store *repository.Store, generator Generator, cooldown *Cooldown, aiUser chat.User, log *zap.SugaredLogger) *Responder {
	return &Responder{
		provider:  provider,
		store:     store,
		generator: generator,
		trigger:   ai.Trigger{AIUserID: aiUser.ID},
		cooldown:  cooldown,
		aiUser:    aiUser,
		log:       log,
	}
}

func (r *Responder) AIUser() chat.User   { return r.aiUser }
func (r *Responder) Trigger() ai.Trigger { return r.trigger }

// HandleEvent runs the auto-reply pipeline for one provider webhook event.
// A non-nil error means the event could not be processed.
func (r *Responder) HandleEvent(ctx context.Context, ev Event) (Outcome, error) {
	if ev.Type != EventMessageNew || ev.Message == nil {
		return OutcomeIgnored, nil
	}
	msg := ev.Message
	text := strings.TrimSpace(msg.Text)
	if !r.trigger.ShouldRespond(ai.Candidate{UserID: msg.User.ID, Type: msg.Type, Text: text}) {
		return OutcomeIgnored, nil
	}

	ch := ev.ChannelRef()
	if ch.ID == "" {
		r.log.Warnw("webhook event without channel id", "message", msg.ID)
		return OutcomeIgnored, nil
	}

	remaining, err := r.cooldown.Remaining(ctx, ch.ID)
	if err != nil {
		return "", fmt.Errorf("read cooldown: %w", err)
	}
	if remaining > 0 {
		r.log.Infow("ai cooldown active", "channel", ch.ID, "remaining", remaining.Round(time.Second))
		return OutcomeCooldown, nil
	}

	recent, err := r.provider.QueryMessages(ctx, ch, historyLimit)
	if err != nil {
		return "", fmt.Errorf("query recent messages: %w", err)
	}
	if n := len(recent); n > 0 {
		latest := recent[n-1]
		if latest.ID != msg.ID && latest.User.ID == r.aiUser.ID {
			r.log.Infow("ai already answered the latest message", "channel", ch.ID)
			return OutcomeDuplicate, nil
		}
	}

	roomID := chat.RoomID(ch.ID)
	r.log.Infow("auto-triggering ai reply", "channel", ch.ID, "room", roomID, "message", msg.ID, "user", msg.User.ID)

	out := r.generator.Generate(ctx, ai.Input{
		RoomID:      roomID,
		Template:    r.roomTemplate(ctx, roomID),
		Message:     ai.TriggerMessage{ID: msg.ID, Text: text, UserID: msg.User.ID, Username: msg.User.Name},
		History:     r.providerHistory(recent, msg.ID),
		TripContext: r.tripContext(ctx, roomID),
	})

	if _, err := r.provider.SendMessage(ctx, ch, out.ReplyText, r.aiUser.ID); err != nil {
		return "", fmt.Errorf("post ai reply: %w", err)
	}
	if err := r.cooldown.Mark(ctx, ch.ID); err != nil {
		r.log.Warnw("record cooldown", "channel", ch.ID, "error", err)
	}
	return OutcomeReplied, nil
}

// DirectRequest is an explicit reply request for a provider channel.
type DirectRequest struct {
	ChannelID string
	RoomID    string
	Template  models.RoomTemplate
	UserID    string
	Username  string
	Text      string
}

// ReplyDirect answers without trigger or cooldown checks. History and trip
// context are best-effort; failing to post the reply is an error.
func (r *Responder) ReplyDirect(ctx context.Context, req DirectRequest) (ai.Output, error) {
	ch := chat.Channel{Type: chat.DefaultChannelType, ID: req.ChannelID}

	recent, err := r.provider.QueryMessages(ctx, ch, historyLimit)
	if err != nil {
		r.log.Warnw("fetch recent messages for context", "channel", ch.ID, "error", err)
		recent = nil
	}

	out := r.generator.Generate(ctx, ai.Input{
		RoomID:      req.RoomID,
		Template:    req.Template,
		Message:     ai.TriggerMessage{Text: req.Text, UserID: req.UserID, Username: req.Username},
		History:     r.providerHistory(recent, ""),
		TripContext: r.tripContext(ctx, req.RoomID),
	})

	if _, err := r.provider.SendMessage(ctx, ch, out.ReplyText, r.aiUser.ID); err != nil {
		return ai.Output{}, fmt.Errorf("post ai reply: %w", err)
	}
	return out, nil
}

func (r *Responder) roomTemplate(ctx context.Context, roomID string) models.RoomTemplate {
	room, err := r.store.Rooms.GetOrCreate(ctx, roomID, models.DefaultTemplate)
	if err != nil {
		r.log.Warnw("room template unavailable, using default", "room", roomID, "error", err)
		return models.DefaultTemplate
	}
	return room.Template
}

func (r *Responder) tripContext(ctx context.Context, roomID string) *models.TripContextData {
	tc, err := r.store.TripContexts.Get(ctx, roomID)
	if err != nil {
		r.log.Warnw("trip context unavailable", "room", roomID, "error", err)
		return nil
	}
	if tc == nil {
		return nil
	}
	data := tc.Data.Data()
	return &data
}

func (r *Responder) providerHistory(msgs []chat.Message, skipID string) []ai.HistoryEntry {
	history := make([]ai.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		if skipID != "" && m.ID == skipID {
			continue
		}
		kind := models.KindUser
		if m.User.ID == r.aiUser.ID {
			kind = models.KindAI
		}
		history = append(history, ai.HistoryEntry{Kind: kind, UserID: m.User.ID, Username: m.User.Name, Text: m.Text})
	}
	return history
}
