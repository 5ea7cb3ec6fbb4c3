package autoreply

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/ai"
	"github.com/Devhypertech/aigroupgepanda/internal/chat"
	"github.com/Devhypertech/aigroupgepanda/internal/chat/chattest"
	"github.com/Devhypertech/aigroupgepanda/internal/kv"
	"github.com/Devhypertech/aigroupgepanda/internal/logger"
	"github.com/Devhypertech/aigroupgepanda/internal/repository"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aiUser = chat.User{ID: "gepanda-ai", Name: "GePanda AI", Role: "admin"}

type stubGenerator struct {
	mu     sync.Mutex
	inputs []ai.Input
}

func (g *stubGenerator) Generate(_ context.Context, in ai.Input) ai.Output {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs = append(g.inputs, in)
	return ai.Output{ReplyText: "reply to " + in.Message.Text, Audience: ai.AudienceGroup}
}

type fixture struct {
	provider  *chattest.Fake
	store     *repository.Store
	generator *stubGenerator
	responder *Responder
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider:  chattest.New(),
		store:     repository.NewEphemeralStore(kv.NewMemory()),
		generator: &stubGenerator{},
		now:       time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	cooldown := NewCooldown(kv.NewMemory(), DefaultCooldown).WithClock(func() time.Time { return f.now })
	f.responder = NewResponder(f.provider, f.store, f.generator, cooldown, aiUser, logger.Nop())
	return f
}

func (f *fixture) deliver(t *testing.T, channelID, userID, text string) Outcome {
	t.Helper()
	ch := chat.Channel{Type: "messaging", ID: channelID}
	msg := f.provider.Post(ch, userID, userID+"-name", text)
	out, err := f.responder.HandleEvent(context.Background(), Event{
		Type:    EventMessageNew,
		Message: &msg,
		CID:     "messaging:" + channelID,
	})
	require.NoError(t, err)
	return out
}

func TestCooldownAllowsOneReplyPerWindow(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, OutcomeReplied, f.deliver(t, "room-lisbon", "ana", "where should we eat?"))

	f.now = f.now.Add(2 * time.Second)
	assert.Equal(t, OutcomeCooldown, f.deliver(t, "room-lisbon", "ben", "and drinks?"))
	assert.Len(t, f.provider.SentBy("room-lisbon", aiUser.ID), 1)

	f.now = f.now.Add(9 * time.Second)
	assert.Equal(t, OutcomeReplied, f.deliver(t, "room-lisbon", "ben", "any museums?"))
	assert.Len(t, f.provider.SentBy("room-lisbon", aiUser.ID), 2)
}

func TestCooldownIsPerChannel(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, OutcomeReplied, f.deliver(t, "room-a", "ana", "hi"))
	assert.Equal(t, OutcomeReplied, f.deliver(t, "room-b", "ana", "hi"))
}

func TestHandleEventIgnores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]Event{
		"other type":  {Type: "message.updated", Message: &chat.Message{ID: "1", Text: "x", User: chat.User{ID: "ana"}}, CID: "messaging:room-a"},
		"no message":  {Type: EventMessageNew, CID: "messaging:room-a"},
		"from ai":     {Type: EventMessageNew, Message: &chat.Message{ID: "2", Text: "x", User: aiUser}, CID: "messaging:room-a"},
		"system user": {Type: EventMessageNew, Message: &chat.Message{ID: "3", Text: "x", User: chat.User{ID: "system"}}, CID: "messaging:room-a"},
		"system type": {Type: EventMessageNew, Message: &chat.Message{ID: "4", Text: "x", Type: "system", User: chat.User{ID: "ana"}}, CID: "messaging:room-a"},
		"empty text":  {Type: EventMessageNew, Message: &chat.Message{ID: "5", Text: "  ", User: chat.User{ID: "ana"}}, CID: "messaging:room-a"},
		"no channel":  {Type: EventMessageNew, Message: &chat.Message{ID: "6", Text: "x", User: chat.User{ID: "ana"}}},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := f.responder.HandleEvent(ctx, ev)
			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, out)
		})
	}
	assert.Zero(t, f.provider.Sent)
}

func TestDuplicateGuard(t *testing.T) {
	f := newFixture(t)
	ch := chat.Channel{Type: "messaging", ID: "room-a"}
	msg := f.provider.Post(ch, "ana", "Ana", "hello")
	f.provider.Post(ch, aiUser.ID, aiUser.Name, "already answered")

	out, err := f.responder.HandleEvent(context.Background(), Event{Type: EventMessageNew, Message: &msg, CID: "messaging:room-a"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)
	assert.Zero(t, f.provider.Sent)
}

func TestHandleEventBuildsInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Rooms.GetOrCreate(ctx, "lisbon", models.TemplateFoodDiscovery)
	require.NoError(t, err)
	dest := "Lisbon"
	_, err = f.store.TripContexts.Upsert(ctx, "lisbon", models.TripContextData{Destination: &dest})
	require.NoError(t, err)

	ch := chat.Channel{Type: "messaging", ID: "room-lisbon"}
	f.provider.Post(ch, "ben", "Ben", "we land friday")
	f.provider.Post(ch, aiUser.ID, aiUser.Name, "great")
	msg := f.provider.Post(ch, "ana", "Ana", "  pastel de nata spots?  ")

	out, err := f.responder.HandleEvent(ctx, Event{
		Type:    EventMessageNew,
		Message: &msg,
		Channel: &EventChannel{ID: "room-lisbon", CID: "messaging:room-lisbon"},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeReplied, out)

	require.Len(t, f.generator.inputs, 1)
	in := f.generator.inputs[0]
	assert.Equal(t, "lisbon", in.RoomID)
	assert.Equal(t, models.TemplateFoodDiscovery, in.Template)
	assert.Equal(t, "pastel de nata spots?", in.Message.Text)
	require.NotNil(t, in.TripContext)
	assert.Equal(t, "Lisbon", *in.TripContext.Destination)
	require.Len(t, in.History, 2)
	assert.Equal(t, models.KindUser, in.History[0].Kind)
	assert.Equal(t, models.KindAI, in.History[1].Kind)

	assert.Equal(t, []string{"great", "reply to pastel de nata spots?"}, f.provider.SentBy("room-lisbon", aiUser.ID))
}

func TestFailedPostDoesNotStartCooldown(t *testing.T) {
	f := newFixture(t)
	f.provider.SendErr = errors.New("provider down")
	ch := chat.Channel{Type: "messaging", ID: "room-a"}
	msg := f.provider.Post(ch, "ana", "Ana", "hello")

	_, err := f.responder.HandleEvent(context.Background(), Event{Type: EventMessageNew, Message: &msg, CID: "messaging:room-a"})
	require.Error(t, err)

	f.provider.SendErr = nil
	assert.Equal(t, OutcomeReplied, f.deliver(t, "room-a", "ana", "hello again"))
}

func TestReplyDirect(t *testing.T) {
	f := newFixture(t)
	f.provider.QueryErr = errors.New("history unavailable")

	out, err := f.responder.ReplyDirect(context.Background(), DirectRequest{
		ChannelID: "room-x", RoomID: "x", Template: models.TemplateLiveTrip,
		UserID: "ana", Username: "Ana", Text: "metro tips",
	})
	require.NoError(t, err)
	assert.Equal(t, "reply to metro tips", out.ReplyText)
	assert.Empty(t, f.generator.inputs[0].History)
	assert.Equal(t, models.TemplateLiveTrip, f.generator.inputs[0].Template)

	f.provider.SendErr = errors.New("down")
	_, err = f.responder.ReplyDirect(context.Background(), DirectRequest{ChannelID: "room-x", Text: "again"})
	assert.Error(t, err)
}

func TestReplyInRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trigger := &models.Message{RoomID: "kyoto", UserID: "ana", Username: "Ana", Text: "temples?"}
	require.NoError(t, f.store.Messages.Create(ctx, trigger))

	reply, out, err := f.responder.ReplyInRoom(ctx, *trigger)
	require.NoError(t, err)
	require.Equal(t, OutcomeReplied, out)
	require.NotNil(t, reply)
	assert.Equal(t, models.KindAI, reply.Kind)
	assert.Equal(t, aiUser.ID, reply.UserID)

	stored, err := f.store.Messages.Get(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, "reply to temples?", stored.Text)

	second := &models.Message{RoomID: "kyoto", UserID: "ben", Username: "Ben", Text: "food?"}
	require.NoError(t, f.store.Messages.Create(ctx, second))
	reply, out, err = f.responder.ReplyInRoom(ctx, *second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCooldown, out)
	assert.Nil(t, reply)

	reply, out, err = f.responder.ReplyInRoom(ctx, models.Message{RoomID: "kyoto", UserID: aiUser.ID, Text: "self"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Nil(t, reply)
}

func TestCooldownRemaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewCooldown(kv.NewMemory(), 10*time.Second).WithClock(func() time.Time { return now })
	ctx := context.Background()

	left, err := c.Remaining(ctx, "room-a")
	require.NoError(t, err)
	assert.Zero(t, left)

	require.NoError(t, c.Mark(ctx, "room-a"))
	now = now.Add(4 * time.Second)
	left, err = c.Remaining(ctx, "room-a")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, left)

	now = now.Add(6 * time.Second)
	left, err = c.Remaining(ctx, "room-a")
	require.NoError(t, err)
	assert.Zero(t, left)
}
