package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/internal/logger"
	"github.com/Devhypertech/aigroupgepanda/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	assert.Equal(t, Channel{Type: "messaging", ID: "room-a"}, ParseChannel("room-a", ""))
	assert.Equal(t, Channel{Type: "team", ID: "room-b"}, ParseChannel("", "team:room-b"))
	assert.Equal(t, Channel{Type: "team", ID: "explicit"}, ParseChannel("explicit", "team:other"))
	assert.Equal(t, Channel{Type: "messaging", ID: ""}, ParseChannel("", "no-colon"))
	assert.Equal(t, "lisbon", RoomID("room-lisbon"))
	assert.Equal(t, "lisbon", RoomID("lisbon"))
}

func TestNewStreamClientRequiresCredentials(t *testing.T) {
	_, err := NewStreamClient(StreamConfig{}, logger.Nop())
	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ElementsMatch(t, []string{"STREAM_API_KEY", "STREAM_API_SECRET"}, cfgErr.Missing)
}

type recorded struct {
	path string
	body map[string]interface{}
}

func newStreamServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*StreamClient, *[]recorded) {
	t.Helper()
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.URL.Query().Get("api_key"))
		assert.Equal(t, "jwt", r.Header.Get("Stream-Auth-Type"))
		assert.NotEmpty(t, r.Header.Get("Authorization"))

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, recorded{path: r.URL.Path, body: body})
		handle(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := NewStreamClient(StreamConfig{APIKey: "key-1", APISecret: "secret-1", BaseURL: server.URL, Timeout: time.Second}, logger.Nop())
	require.NoError(t, err)
	return c, &calls
}

func TestStreamClientRequests(t *testing.T) {
	c, calls := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels/messaging/room-a/message":
			w.Write([]byte(`{"message":{"id":"m9","text":"hello","user":{"id":"gepanda-ai"}}}`))
		case "/channels/messaging/room-a/query":
			w.Write([]byte(`{"messages":[{"id":"m1","text":"hi","user":{"id":"ana","name":"Ana"}}]}`))
		default:
			w.Write([]byte(`{}`))
		}
	})
	ctx := context.Background()
	ch := Channel{Type: "messaging", ID: "room-a"}

	require.NoError(t, c.UpsertUser(ctx, User{ID: "ana", Name: "Ana"}))
	require.NoError(t, c.AddMembers(ctx, ch, "ana"))

	msgs, err := c.QueryMessages(ctx, ch, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ana", msgs[0].User.Name)

	sent, err := c.SendMessage(ctx, ch, "hello", "gepanda-ai")
	require.NoError(t, err)
	assert.Equal(t, "m9", sent.ID)

	require.Len(t, *calls, 4)
	assert.Equal(t, "/users", (*calls)[0].path)
	assert.Contains(t, (*calls)[0].body["users"], "ana")
	assert.Equal(t, []interface{}{"ana"}, (*calls)[1].body["add_members"])
	assert.Equal(t, map[string]interface{}{"limit": float64(10)}, (*calls)[2].body["messages"])
	assert.Equal(t, map[string]interface{}{"text": "hello", "user_id": "gepanda-ai"}, (*calls)[3].body["message"])
}

func TestStreamClientUpstreamError(t *testing.T) {
	c, _ := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":17,"message":"not allowed"}`))
	})

	err := c.WatchChannel(context.Background(), Channel{Type: "messaging", ID: "x"})
	var upstream *apperr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.Equal(t, "not allowed", upstream.Body)
}

func TestStreamClientTokenVerifies(t *testing.T) {
	c, err := NewStreamClient(StreamConfig{APIKey: "k", APISecret: "s"}, logger.Nop())
	require.NoError(t, err)

	token, err := c.CreateToken("ana")
	require.NoError(t, err)
	userID, err := utils.ParseUserToken("s", token)
	require.NoError(t, err)
	assert.Equal(t, "ana", userID)
}

type scriptedProvider struct {
	Provider
	createErr, watchErr, addErr error
	watched, added              bool
}

func (p *scriptedProvider) CreateChannel(context.Context, Channel, string) error { return p.createErr }
func (p *scriptedProvider) WatchChannel(context.Context, Channel) error {
	p.watched = true
	return p.watchErr
}
func (p *scriptedProvider) AddMembers(context.Context, Channel, ...string) error {
	p.added = true
	return p.addErr
}

func TestProvisionerEnsure(t *testing.T) {
	ch := Channel{Type: "messaging", ID: "room-a"}

	t.Run("created", func(t *testing.T) {
		p := &scriptedProvider{}
		require.NoError(t, NewProvisioner(p, logger.Nop()).Ensure(context.Background(), ch, "ana"))
		assert.False(t, p.watched)
		assert.True(t, p.added)
	})

	t.Run("watch fallback and member error tolerated", func(t *testing.T) {
		p := &scriptedProvider{createErr: errors.New("exists"), addErr: errors.New("already a member")}
		require.NoError(t, NewProvisioner(p, logger.Nop()).Ensure(context.Background(), ch, "ana"))
		assert.True(t, p.watched)
	})

	t.Run("both fail", func(t *testing.T) {
		p := &scriptedProvider{createErr: errors.New("create boom"), watchErr: errors.New("watch boom")}
		err := NewProvisioner(p, logger.Nop()).Ensure(context.Background(), ch, "ana")
		var perr *ProvisionError
		require.ErrorAs(t, err, &perr)
		assert.EqualError(t, perr.WatchErr, "watch boom")
		assert.False(t, p.added)
	})
}
