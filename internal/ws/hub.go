package ws

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/Devhypertech/aigroupgepanda/internal/autoreply"
	"github.com/Devhypertech/aigroupgepanda/internal/repository"

	"go.uber.org/zap"
)

// Hub tracks connected clients by room and fans events out to them.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	Store     *repository.Store
	Responder *autoreply.Responder // nil disables AI replies on the socket
	log       *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	typing  map[string]map[string]string // room -> userID -> username
}

func NewHub(store *repository.Store, responder *autoreply.Responder, log *zap.SugaredLogger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Store:      store,
		Responder:  responder,
		log:        log,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		typing:     make(map[string]map[string]string),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	h.log.Infow("socket connected", "user", client.UserID)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.Send)

	room := client.activeRoom()
	stoppedTyping := false
	if room != "" {
		delete(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
		if _, ok := h.typing[room][client.UserID]; ok && !h.userInRoomLocked(room, client.UserID) {
			delete(h.typing[room], client.UserID)
			stoppedTyping = true
		}
	}
	h.mu.Unlock()

	if stoppedTyping {
		h.broadcastTyping(room)
	}
	h.log.Infow("socket disconnected", "user", client.UserID)
}

// join moves client into room, leaving its previous room.
func (h *Hub) join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev := client.activeRoom(); prev != "" && prev != room {
		delete(h.rooms[prev], client)
		if len(h.rooms[prev]) == 0 {
			delete(h.rooms, prev)
		}
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.setActiveRoom(room)
}

func (h *Hub) userInRoomLocked(room, userID string) bool {
	for c := range h.rooms[room] {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// BroadcastToRoom queues payload for every client in room. Clients with a
// full buffer miss the event.
func (h *Hub) BroadcastToRoom(room string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[room] {
		select {
		case client.Send <- payload:
		default:
			h.log.Warnw("dropping event for slow client", "user", client.UserID, "room", room)
		}
	}
}

// Emit marshals an event and broadcasts it to room.
func (h *Hub) Emit(room, eventType string, fields map[string]interface{}) {
	h.BroadcastToRoom(room, encode(eventType, fields))
}

type typingUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (h *Hub) setTyping(room, userID, username string, typing bool) {
	h.mu.Lock()
	if typing {
		if h.typing[room] == nil {
			h.typing[room] = make(map[string]string)
		}
		h.typing[room][userID] = username
	} else {
		delete(h.typing[room], userID)
	}
	h.mu.Unlock()
	h.broadcastTyping(room)
}

func (h *Hub) typingUsers(room string) []typingUser {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := make([]typingUser, 0, len(h.typing[room]))
	for id, name := range h.typing[room] {
		users = append(users, typingUser{UserID: id, Username: name})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

func (h *Hub) broadcastTyping(room string) {
	h.Emit(room, "typing:users", map[string]interface{}{
		"roomId": room,
		"users":  h.typingUsers(room),
	})
}

func encode(eventType string, fields map[string]interface{}) []byte {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["type"] = eventType
	payload, _ := json.Marshal(out)
	return payload
}
