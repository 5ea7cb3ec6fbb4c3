package autoreply

import (
	"context"
	"fmt"
	"strings"

	"github.com/Devhypertech/aigroupgepanda/internal/ai"
	"github.com/Devhypertech/aigroupgepanda/models"
)

// ReplyInRoom answers a message posted over the realtime socket. The reply
// is stored as an AI message and returned; it is nil when no reply was due.
// Rooms share cooldown keys with their "room-" provider channels.
func (r *Responder) ReplyInRoom(ctx context.Context, trigger models.Message) (*models.Message, Outcome, error) {
	text := strings.TrimSpace(trigger.Text)
	if !r.trigger.ShouldRespond(ai.Candidate{UserID: trigger.UserID, Text: text}) {
		return nil, OutcomeIgnored, nil
	}

	channelKey := "room-" + trigger.RoomID
	remaining, err := r.cooldown.Remaining(ctx, channelKey)
	if err != nil {
		return nil, "", fmt.Errorf("read cooldown: %w", err)
	}
	if remaining > 0 {
		return nil, OutcomeCooldown, nil
	}

	recent, err := r.store.Messages.ListByRoom(ctx, trigger.RoomID, historyLimit+1, "")
	if err != nil {
		r.log.Warnw("load room history", "room", trigger.RoomID, "error", err)
		recent = nil
	}
	for _, m := range recent {
		if m.ID == trigger.ID {
			continue
		}
		if m.Kind == models.KindAI && m.CreatedAt.After(trigger.CreatedAt) {
			return nil, OutcomeDuplicate, nil
		}
		break
	}

	out := r.generator.Generate(ctx, ai.Input{
		RoomID:      trigger.RoomID,
		Template:    r.roomTemplate(ctx, trigger.RoomID),
		Message:     ai.TriggerMessage{ID: trigger.ID, Text: text, UserID: trigger.UserID, Username: trigger.Username},
		History:     roomHistory(recent, trigger.ID),
		TripContext: r.tripContext(ctx, trigger.RoomID),
	})

	reply := &models.Message{
		RoomID:   trigger.RoomID,
		UserID:   r.aiUser.ID,
		Username: r.aiUser.Name,
		Text:     out.ReplyText,
		Kind:     models.KindAI,
	}
	if err := r.store.Messages.Create(ctx, reply); err != nil {
		return nil, "", fmt.Errorf("store ai reply: %w", err)
	}
	if err := r.cooldown.Mark(ctx, channelKey); err != nil {
		r.log.Warnw("record cooldown", "room", trigger.RoomID, "error", err)
	}
	return reply, OutcomeReplied, nil
}

// roomHistory turns a newest-first page into chronological history.
func roomHistory(page []models.Message, skipID string) []ai.HistoryEntry {
	history := make([]ai.HistoryEntry, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		m := page[i]
		if m.ID == skipID {
			continue
		}
		history = append(history, ai.HistoryEntry{Kind: m.Kind, UserID: m.UserID, Username: m.Username, Text: m.Text})
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	return history
}
