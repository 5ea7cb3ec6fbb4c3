package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/internal/kv"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	roomPrefix   = "room:"
	memberPrefix = "member:"
	invitePrefix = "invite:"
	tripPrefix   = "trip:"
)

func getJSON(ctx context.Context, store kv.Store, key string, out interface{}) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, store kv.Store, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(raw), ttl)
}

// KVRoomRepository keeps rooms and members in a kv.Store.
type KVRoomRepository struct {
	mu    sync.Mutex
	store kv.Store
}

func NewKVRoomRepository(store kv.Store) *KVRoomRepository {
	return &KVRoomRepository{store: store}
}

func (r *KVRoomRepository) GetOrCreate(ctx context.Context, roomID string, template models.RoomTemplate) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var room models.Room
	ok, err := getJSON(ctx, r.store, roomPrefix+roomID, &room)
	if err != nil {
		return nil, err
	}
	if ok {
		return &room, nil
	}
	if !template.Valid() {
		template = models.DefaultTemplate
	}
	now := time.Now()
	room = models.Room{RoomID: roomID, Template: template, CreatedAt: now, UpdatedAt: now}
	if err := setJSON(ctx, r.store, roomPrefix+roomID, room, 0); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *KVRoomRepository) Find(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	ok, err := getJSON(ctx, r.store, roomPrefix+roomID, &room)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("room", roomID)
	}
	return &room, nil
}

func (r *KVRoomRepository) AddMember(ctx context.Context, roomID, userID, username string) error {
	if _, err := r.Find(ctx, roomID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberPrefix + roomID + ":" + userID
	var existing models.RoomMember
	ok, err := getJSON(ctx, r.store, key, &existing)
	if err != nil || ok {
		return err
	}
	member := models.RoomMember{RoomID: roomID, UserID: userID, Username: username, JoinedAt: time.Now()}
	return setJSON(ctx, r.store, key, member, 0)
}

func (r *KVRoomRepository) Members(ctx context.Context, roomID string) ([]models.RoomMember, error) {
	keys, err := r.store.Keys(ctx, memberPrefix+roomID+":")
	if err != nil {
		return nil, err
	}
	members := make([]models.RoomMember, 0, len(keys))
	for _, key := range keys {
		var m models.RoomMember
		ok, err := getJSON(ctx, r.store, key, &m)
		if err != nil {
			return nil, err
		}
		// room ids may themselves contain ':'; keep exact matches only
		if ok && m.RoomID == roomID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

// KVInviteRepository keeps invite tokens in a kv.Store.
type KVInviteRepository struct {
	store kv.Store
	now   func() time.Time
}

func NewKVInviteRepository(store kv.Store) *KVInviteRepository {
	return &KVInviteRepository{store: store, now: time.Now}
}

func (r *KVInviteRepository) Create(ctx context.Context, roomID string, expiresAt *time.Time) (*models.InviteLink, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	link := models.InviteLink{Token: token, RoomID: roomID, CreatedAt: r.now(), ExpiresAt: expiresAt}

	var ttl time.Duration
	if expiresAt != nil {
		ttl = expiresAt.Sub(link.CreatedAt)
		if ttl <= 0 {
			ttl = time.Millisecond
		}
	}
	if err := setJSON(ctx, r.store, invitePrefix+token, link, ttl); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *KVInviteRepository) Resolve(ctx context.Context, token string) (string, error) {
	var link models.InviteLink
	ok, err := getJSON(ctx, r.store, invitePrefix+token, &link)
	if err != nil {
		return "", err
	}
	if !ok || link.Expired(r.now()) {
		return "", apperr.NotFound("invite", "")
	}
	return link.RoomID, nil
}

// Cleanup removes invites created more than maxAge ago, and any whose
// explicit expiry has passed.
func (r *KVInviteRepository) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	keys, err := r.store.Keys(ctx, invitePrefix)
	if err != nil {
		return 0, err
	}
	now := r.now()
	removed := 0
	for _, key := range keys {
		var link models.InviteLink
		ok, err := getJSON(ctx, r.store, key, &link)
		if err != nil {
			return removed, err
		}
		if !ok {
			continue
		}
		if now.Sub(link.CreatedAt) > maxAge || link.Expired(now) {
			if err := r.store.Delete(ctx, key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

type tripRecord struct {
	Data      models.TripContextData `json:"data"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// KVTripContextRepository keeps trip documents in a kv.Store.
type KVTripContextRepository struct {
	store kv.Store
}

func NewKVTripContextRepository(store kv.Store) *KVTripContextRepository {
	return &KVTripContextRepository{store: store}
}

func (r *KVTripContextRepository) Get(ctx context.Context, roomID string) (*models.TripContext, error) {
	var rec tripRecord
	ok, err := getJSON(ctx, r.store, tripPrefix+roomID, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return toTripContext(roomID, rec), nil
}

func (r *KVTripContextRepository) Upsert(ctx context.Context, roomID string, data models.TripContextData) (*models.TripContext, error) {
	rec := tripRecord{Data: data, UpdatedAt: time.Now()}
	if err := setJSON(ctx, r.store, tripPrefix+roomID, rec, 0); err != nil {
		return nil, err
	}
	return toTripContext(roomID, rec), nil
}

func toTripContext(roomID string, rec tripRecord) *models.TripContext {
	tc := &models.TripContext{RoomID: roomID, UpdatedAt: rec.UpdatedAt}
	tc.Data = datatypes.NewJSONType(rec.Data)
	return tc
}

// MemoryMessageRepository keeps messages in process memory.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	byRoom   map[string][]string
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[string]*models.Message),
		byRoom:   make(map[string][]string),
	}
}

func cloneMessage(m *models.Message) models.Message {
	out := *m
	out.Reactions = append([]models.MessageReaction(nil), m.Reactions...)
	return out
}

func (r *MemoryMessageRepository) Create(_ context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Kind == "" {
		msg.Kind = models.KindUser
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneMessage(msg)
	r.messages[msg.ID] = &stored
	r.byRoom[msg.RoomID] = append(r.byRoom[msg.RoomID], msg.ID)
	return nil
}

func (r *MemoryMessageRepository) Get(_ context.Context, messageID string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.messages[messageID]
	if !ok {
		return nil, apperr.NotFound("message", messageID)
	}
	out := cloneMessage(m)
	return &out, nil
}

func (r *MemoryMessageRepository) ListByRoom(_ context.Context, roomID string, limit int, beforeID string) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cutoff time.Time
	if before, ok := r.messages[beforeID]; ok && beforeID != "" {
		cutoff = before.CreatedAt
	}

	limit = clampLimit(limit)
	ids := r.byRoom[roomID]
	out := make([]models.Message, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.messages[ids[i]]
		if m.IsDeleted {
			continue
		}
		if !cutoff.IsZero() && !m.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, cloneMessage(m))
	}
	return out, nil
}

func (r *MemoryMessageRepository) owned(messageID, userID, action string) (*models.Message, error) {
	m, ok := r.messages[messageID]
	if !ok {
		return nil, apperr.NotFound("message", messageID)
	}
	if m.UserID != userID {
		return nil, apperr.Forbidden("not authorized to " + action + " this message")
	}
	return m, nil
}

func (r *MemoryMessageRepository) Edit(_ context.Context, messageID, userID, text string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.owned(messageID, userID, "edit")
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, apperr.Validation("cannot edit deleted message")
	}
	now := time.Now()
	m.Text = text
	m.EditedAt = &now
	out := cloneMessage(m)
	return &out, nil
}

func (r *MemoryMessageRepository) Delete(_ context.Context, messageID, userID string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.owned(messageID, userID, "delete")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	m.IsDeleted = true
	m.DeletedAt = &now
	m.Text = models.DeletedPlaceholder
	out := cloneMessage(m)
	return &out, nil
}

func (r *MemoryMessageRepository) AddReaction(_ context.Context, reaction models.MessageReaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[reaction.MessageID]
	if !ok {
		return apperr.NotFound("message", reaction.MessageID)
	}
	for _, existing := range m.Reactions {
		if existing.UserID == reaction.UserID && existing.Emoji == reaction.Emoji {
			return nil
		}
	}
	m.Reactions = append(m.Reactions, reaction)
	return nil
}

func (r *MemoryMessageRepository) RemoveReaction(_ context.Context, messageID, userID, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[messageID]
	if !ok {
		return nil
	}
	kept := m.Reactions[:0]
	for _, existing := range m.Reactions {
		if existing.UserID == userID && existing.Emoji == emoji {
			continue
		}
		kept = append(kept, existing)
	}
	m.Reactions = kept
	return nil
}

func (r *MemoryMessageRepository) Reactions(_ context.Context, messageID string) ([]models.MessageReaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.messages[messageID]
	if !ok {
		return nil, nil
	}
	return append([]models.MessageReaction(nil), m.Reactions...), nil
}

// NewEphemeralStore is the backing used when no database is configured.
// Rooms, invites and trip context live in store; messages stay in process.
func NewEphemeralStore(store kv.Store) *Store {
	backend := "memory"
	if _, ok := store.(*kv.Redis); ok {
		backend = "redis"
	}
	return &Store{
		Backend:      backend,
		Rooms:        NewKVRoomRepository(store),
		Messages:     NewMemoryMessageRepository(),
		Invites:      NewKVInviteRepository(store),
		TripContexts: NewKVTripContextRepository(store),
	}
}
