package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/internal/kv"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.MessageReaction{},
		&models.InviteLink{},
		&models.TripContext{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// backings runs fn once per store implementation.
func backings(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Run("gorm", func(t *testing.T) { fn(t, NewGormStore(openTestDB(t))) })
	t.Run("memory", func(t *testing.T) { fn(t, NewEphemeralStore(kv.NewMemory())) })
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestInviteRoundTrip(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		link, err := s.Invites.Create(ctx, "lisbon-2025", nil)
		require.NoError(t, err)
		assert.Len(t, link.Token, 64)

		roomID, err := s.Invites.Resolve(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, "lisbon-2025", roomID)

		_, err = s.Invites.Resolve(ctx, "deadbeef")
		assert.True(t, apperr.IsNotFound(err))

		tampered := link.Token[:63] + "x"
		_, err = s.Invites.Resolve(ctx, tampered)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestInviteExpired(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		past := time.Now().Add(-time.Hour)

		link, err := s.Invites.Create(ctx, "room-a", &past)
		require.NoError(t, err)

		_, err = s.Invites.Resolve(ctx, link.Token)
		assert.True(t, apperr.IsNotFound(err))

		future := time.Now().Add(time.Hour)
		link, err = s.Invites.Create(ctx, "room-a", &future)
		require.NoError(t, err)
		roomID, err := s.Invites.Resolve(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, "room-a", roomID)
	})
}

func TestKVInviteCleanupByAge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewKVInviteRepository(kv.NewMemory())
	repo.now = func() time.Time { return now.Add(-8 * 24 * time.Hour) }
	old, err := repo.Create(ctx, "old-room", nil)
	require.NoError(t, err)

	repo.now = func() time.Time { return now }
	fresh, err := repo.Create(ctx, "new-room", nil)
	require.NoError(t, err)

	removed, err := repo.Cleanup(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Resolve(ctx, old.Token)
	assert.True(t, apperr.IsNotFound(err))
	_, err = repo.Resolve(ctx, fresh.Token)
	assert.NoError(t, err)
}

func TestRoomGetOrCreateKeepsTemplate(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		room, err := s.Rooms.GetOrCreate(ctx, "food-club", models.TemplateFoodDiscovery)
		require.NoError(t, err)
		assert.Equal(t, models.TemplateFoodDiscovery, room.Template)

		room, err = s.Rooms.GetOrCreate(ctx, "food-club", models.TemplateLiveTrip)
		require.NoError(t, err)
		assert.Equal(t, models.TemplateFoodDiscovery, room.Template, "template is immutable after creation")

		room, err = s.Rooms.GetOrCreate(ctx, "plain", "NOT_A_TEMPLATE")
		require.NoError(t, err)
		assert.Equal(t, models.TemplateTravelPlanning, room.Template)
	})
}

func TestAddMemberIdempotent(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		err := s.Rooms.AddMember(ctx, "ghost", "u1", "Ana")
		assert.True(t, apperr.IsNotFound(err), "room must exist")

		_, err = s.Rooms.GetOrCreate(ctx, "r1", models.TemplateGeneral)
		require.NoError(t, err)
		require.NoError(t, s.Rooms.AddMember(ctx, "r1", "u1", "Ana"))
		require.NoError(t, s.Rooms.AddMember(ctx, "r1", "u1", "Ana"))
		require.NoError(t, s.Rooms.AddMember(ctx, "r1", "u2", "Ben"))

		members, err := s.Rooms.Members(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "u1", members[0].UserID)
	})
}

func TestEditDeleteAuthorization(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		msg := &models.Message{RoomID: "r1", UserID: "author", Username: "Ana", Text: "original"}
		require.NoError(t, s.Messages.Create(ctx, msg))
		require.NotEmpty(t, msg.ID)

		_, err := s.Messages.Edit(ctx, msg.ID, "intruder", "hijacked")
		var authErr *apperr.AuthorizationError
		assert.ErrorAs(t, err, &authErr)

		_, err = s.Messages.Delete(ctx, msg.ID, "intruder")
		assert.ErrorAs(t, err, &authErr)

		got, err := s.Messages.Get(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", got.Text)
		assert.False(t, got.IsDeleted)

		edited, err := s.Messages.Edit(ctx, msg.ID, "author", "updated")
		require.NoError(t, err)
		assert.Equal(t, "updated", edited.Text)
		assert.NotNil(t, edited.EditedAt)

		_, err = s.Messages.Edit(ctx, "missing", "author", "x")
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestDeletedMessageReadsBack(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		msg := &models.Message{RoomID: "r1", UserID: "author", Username: "Ana", Text: "secret plan"}
		require.NoError(t, s.Messages.Create(ctx, msg))
		require.NoError(t, s.Messages.AddReaction(ctx, models.MessageReaction{
			MessageID: msg.ID, UserID: "friend", Username: "Ben", Emoji: "👍",
		}))

		deleted, err := s.Messages.Delete(ctx, msg.ID, "author")
		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted)
		assert.Equal(t, models.DeletedPlaceholder, deleted.Text)
		assert.NotNil(t, deleted.DeletedAt)

		got, err := s.Messages.Get(ctx, msg.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)
		assert.Equal(t, models.DeletedPlaceholder, got.Text)
		assert.Len(t, got.Reactions, 1, "reactions survive deletion")

		_, err = s.Messages.Edit(ctx, msg.ID, "author", "back again")
		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)

		page, err := s.Messages.ListByRoom(ctx, "r1", 10, "")
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func TestReactionsUpsertAndRemove(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		msg := &models.Message{RoomID: "r1", UserID: "a", Username: "Ana", Text: "hi"}
		require.NoError(t, s.Messages.Create(ctx, msg))

		r := models.MessageReaction{MessageID: msg.ID, UserID: "b", Username: "Ben", Emoji: "🎉"}
		require.NoError(t, s.Messages.AddReaction(ctx, r))
		require.NoError(t, s.Messages.AddReaction(ctx, r))
		require.NoError(t, s.Messages.AddReaction(ctx, models.MessageReaction{MessageID: msg.ID, UserID: "b", Username: "Ben", Emoji: "❤️"}))

		reactions, err := s.Messages.Reactions(ctx, msg.ID)
		require.NoError(t, err)
		assert.Len(t, reactions, 2)

		require.NoError(t, s.Messages.RemoveReaction(ctx, msg.ID, "b", "🎉"))
		reactions, err = s.Messages.Reactions(ctx, msg.ID)
		require.NoError(t, err)
		require.Len(t, reactions, 1)
		assert.Equal(t, "❤️", reactions[0].Emoji)

		err = s.Messages.AddReaction(ctx, models.MessageReaction{MessageID: "nope", UserID: "b", Emoji: "x"})
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestListByRoomPaging(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		base := time.Now().Add(-time.Minute)
		var ids []string
		for i := 0; i < 5; i++ {
			m := &models.Message{
				RoomID: "r1", UserID: "a", Username: "Ana",
				Text: fmt.Sprintf("m%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, s.Messages.Create(ctx, m))
			ids = append(ids, m.ID)
		}
		require.NoError(t, s.Messages.Create(ctx, &models.Message{RoomID: "other", UserID: "a", Text: "elsewhere"}))

		page, err := s.Messages.ListByRoom(ctx, "r1", 2, "")
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "m4", page[0].Text)
		assert.Equal(t, "m3", page[1].Text)

		older, err := s.Messages.ListByRoom(ctx, "r1", 10, ids[3])
		require.NoError(t, err)
		require.Len(t, older, 3)
		assert.Equal(t, "m2", older[0].Text)
		assert.Equal(t, "m0", older[2].Text)
	})
}

func TestTripContextReplacesWholeDocument(t *testing.T) {
	backings(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		got, err := s.TripContexts.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Nil(t, got)

		_, err = s.TripContexts.Upsert(ctx, "r1", models.TripContextData{
			Destination: strPtr("Paris"),
			Travelers:   intPtr(3),
		})
		require.NoError(t, err)

		_, err = s.TripContexts.Upsert(ctx, "r1", models.TripContextData{Notes: strPtr("x")})
		require.NoError(t, err)

		got, err = s.TripContexts.Get(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, got)
		data := got.Data.Data()
		assert.Nil(t, data.Destination, "no merge with the previous document")
		assert.Nil(t, data.Travelers)
		require.NotNil(t, data.Notes)
		assert.Equal(t, "x", *data.Notes)
		assert.False(t, got.UpdatedAt.IsZero())
	})
}
