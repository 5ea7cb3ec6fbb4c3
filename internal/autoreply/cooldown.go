package autoreply

import (
	"context"
	"strconv"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/kv"
)

// DefaultCooldown is the minimum gap between two AI posts in one channel.
const DefaultCooldown = 10 * time.Second

// Cooldown remembers when the AI last posted per channel. The check and the
// mark are separate calls; concurrent deliveries can both pass the check.
type Cooldown struct {
	store  kv.Store
	window time.Duration
	now    func() time.Time
}

func NewCooldown(store kv.Store, window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{store: store, window: window, now: time.Now}
}

// WithClock swaps the time source.
func (c *Cooldown) WithClock(now func() time.Time) *Cooldown {
	c.now = now
	return c
}

func key(channelID string) string { return "cooldown:" + channelID }

// Remaining reports how long the channel stays blocked; zero means free.
func (c *Cooldown) Remaining(ctx context.Context, channelID string) (time.Duration, error) {
	raw, ok, err := c.store.Get(ctx, key(channelID))
	if err != nil || !ok {
		return 0, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	elapsed := c.now().Sub(time.UnixMilli(ms))
	if elapsed >= c.window {
		return 0, nil
	}
	if elapsed < 0 {
		return c.window, nil
	}
	return c.window - elapsed, nil
}

// Mark records an AI post at the current time.
func (c *Cooldown) Mark(ctx context.Context, channelID string) error {
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	return c.store.Set(ctx, key(channelID), ts, c.window)
}
