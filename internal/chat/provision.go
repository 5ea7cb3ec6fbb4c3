package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProvisionError is returned when a channel can be neither created nor watched.
type ProvisionError struct {
	Channel   Channel
	CreateErr error
	WatchErr  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("access or create channel %s: %v", e.Channel.ID, e.CreateErr)
}

// Provisioner makes a channel exist and puts a user in it.
type Provisioner struct {
	provider         Provider
	log              *zap.SugaredLogger
	CreateTimeout    time.Duration
	WatchTimeout     time.Duration
	AddMemberTimeout time.Duration
}

func NewProvisioner(provider Provider, log *zap.SugaredLogger) *Provisioner {
	return &Provisioner{
		provider:         provider,
		log:              log,
		CreateTimeout:    15 * time.Second,
		WatchTimeout:     10 * time.Second,
		AddMemberTimeout: 5 * time.Second,
	}
}

// Ensure creates the channel, falls back to watching it, then adds userID as
// a member. Member-add failures only produce a warning.
func (p *Provisioner) Ensure(ctx context.Context, ch Channel, userID string) error {
	createCtx, cancel := context.WithTimeout(ctx, p.CreateTimeout)
	createErr := p.provider.CreateChannel(createCtx, ch, userID)
	cancel()

	if createErr != nil {
		p.log.Warnw("create channel failed, trying watch", "channel", ch.ID, "error", createErr)

		watchCtx, cancel := context.WithTimeout(ctx, p.WatchTimeout)
		watchErr := p.provider.WatchChannel(watchCtx, ch)
		cancel()
		if watchErr != nil {
			p.log.Errorw("watch channel failed", "channel", ch.ID, "error", watchErr)
			return &ProvisionError{Channel: ch, CreateErr: createErr, WatchErr: watchErr}
		}
	}

	addCtx, cancel := context.WithTimeout(ctx, p.AddMemberTimeout)
	defer cancel()
	if err := p.provider.AddMembers(addCtx, ch, userID); err != nil {
		p.log.Warnw("add member failed, continuing", "channel", ch.ID, "user", userID, "error", err)
	}
	return nil
}
