package ws

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/contrib/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	joinHistory   = 50
	requestBudget = 10 * time.Second
	aiBudget      = 45 * time.Second
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// User ID taken from the chat token.
	UserID string

	mu       sync.Mutex
	username string
	room     string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), UserID: userID}
}

// WSMessage is an inbound socket event. Which fields matter depends on Type.
type WSMessage struct {
	Type      string              `json:"type"`
	RoomID    string              `json:"roomId,omitempty"`
	Username  string              `json:"username,omitempty"`
	Template  models.RoomTemplate `json:"template,omitempty"`
	Text      string              `json:"text,omitempty"`
	MessageID string              `json:"messageId,omitempty"`
	Emoji     string              `json:"emoji,omitempty"`
	Before    string              `json:"before,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
}

func (c *Client) activeRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setActiveRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

func (c *Client) name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.username == "" {
		return c.UserID
	}
	return c.username
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warnw("socket read", "user", c.UserID, "error", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection. Every
// event is its own text frame so clients can parse frames independently.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var wsMsg WSMessage
	if err := json.Unmarshal(message, &wsMsg); err != nil {
		c.sendError(apperr.Validation("invalid event payload"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestBudget)
	defer cancel()

	var err error
	switch wsMsg.Type {
	case "room:join":
		err = c.joinRoom(ctx, &wsMsg)
	case "message:send":
		err = c.sendMessage(ctx, &wsMsg)
	case "message:edit":
		err = c.editMessage(ctx, &wsMsg)
	case "message:delete":
		err = c.deleteMessage(ctx, &wsMsg)
	case "typing:start", "typing:stop":
		err = c.typing(wsMsg.Type == "typing:start")
	case "messages:load-more":
		err = c.loadMore(ctx, &wsMsg)
	case "message:reaction:add", "message:reaction:remove":
		err = c.react(ctx, &wsMsg, wsMsg.Type == "message:reaction:add")
	default:
		err = apperr.Validation("unknown event type " + wsMsg.Type)
	}
	if err != nil {
		c.sendError(err)
	}
}

// sendError reports a failure to this client only.
func (c *Client) sendError(err error) {
	msg := err.Error()
	if apperr.StatusCode(err) >= 500 {
		c.Hub.log.Errorw("socket event failed", "user", c.UserID, "error", err)
		msg = "internal error"
	}
	c.push("error", map[string]interface{}{"message": msg, "code": apperr.StatusCode(err)})
}

func (c *Client) push(eventType string, fields map[string]interface{}) {
	select {
	case c.Send <- encode(eventType, fields):
	default:
		c.Hub.log.Warnw("dropping event for slow client", "user", c.UserID, "type", eventType)
	}
}

func (c *Client) requireRoom() (string, error) {
	room := c.activeRoom()
	if room == "" {
		return "", apperr.Validation("join a room first")
	}
	return room, nil
}

func (c *Client) joinRoom(ctx context.Context, m *WSMessage) error {
	roomID := strings.TrimSpace(m.RoomID)
	if roomID == "" {
		return apperr.Validation("roomId is required")
	}
	if name := strings.TrimSpace(m.Username); name != "" {
		c.mu.Lock()
		c.username = name
		c.mu.Unlock()
	}

	template := m.Template
	if !template.Valid() {
		template = models.DefaultTemplate
	}
	store := c.Hub.Store
	room, err := store.Rooms.GetOrCreate(ctx, roomID, template)
	if err != nil {
		return err
	}
	if err := store.Rooms.AddMember(ctx, roomID, c.UserID, c.name()); err != nil {
		return err
	}

	page, err := store.Messages.ListByRoom(ctx, roomID, joinHistory+1, "")
	if err != nil {
		return err
	}
	hasMore := len(page) > joinHistory
	if hasMore {
		page = page[:joinHistory]
	}

	c.Hub.join(c, roomID)
	c.Hub.log.Infow("user joined room", "user", c.UserID, "room", roomID)

	c.push("room:joined", map[string]interface{}{
		"roomId":   roomID,
		"template": room.Template,
		"messages": chronological(page),
		"hasMore":  hasMore,
	})

	members, err := store.Rooms.Members(ctx, roomID)
	if err != nil {
		return err
	}
	c.Hub.Emit(roomID, "room:members", map[string]interface{}{"roomId": roomID, "members": members})
	return nil
}

func (c *Client) sendMessage(ctx context.Context, m *WSMessage) error {
	room, err := c.requireRoom()
	if err != nil {
		return err
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return apperr.Validation("text is required")
	}

	msg := &models.Message{RoomID: room, UserID: c.UserID, Username: c.name(), Text: text, Kind: models.KindUser}
	if err := c.Hub.Store.Messages.Create(ctx, msg); err != nil {
		return err
	}
	c.Hub.Emit(room, "message:new", map[string]interface{}{"message": msg})

	if c.Hub.Responder != nil {
		go c.Hub.replyWithAI(*msg)
	}
	return nil
}

func (h *Hub) replyWithAI(trigger models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), aiBudget)
	defer cancel()

	reply, outcome, err := h.Responder.ReplyInRoom(ctx, trigger)
	if err != nil {
		h.log.Errorw("ai reply on socket", "room", trigger.RoomID, "error", err)
		return
	}
	if reply == nil {
		h.log.Debugw("no ai reply", "room", trigger.RoomID, "outcome", outcome)
		return
	}
	h.Emit(trigger.RoomID, "message:new", map[string]interface{}{"message": reply})
}

func (c *Client) editMessage(ctx context.Context, m *WSMessage) error {
	if m.MessageID == "" || strings.TrimSpace(m.Text) == "" {
		return apperr.Validation("messageId and text are required")
	}
	msg, err := c.Hub.Store.Messages.Edit(ctx, m.MessageID, c.UserID, strings.TrimSpace(m.Text))
	if err != nil {
		return err
	}
	c.Hub.Emit(msg.RoomID, "message:updated", map[string]interface{}{"message": msg})
	return nil
}

func (c *Client) deleteMessage(ctx context.Context, m *WSMessage) error {
	if m.MessageID == "" {
		return apperr.Validation("messageId is required")
	}
	msg, err := c.Hub.Store.Messages.Delete(ctx, m.MessageID, c.UserID)
	if err != nil {
		return err
	}
	c.Hub.Emit(msg.RoomID, "message:deleted", map[string]interface{}{"messageId": msg.ID, "message": msg})
	return nil
}

func (c *Client) typing(active bool) error {
	room, err := c.requireRoom()
	if err != nil {
		return err
	}
	c.Hub.setTyping(room, c.UserID, c.name(), active)
	return nil
}

func (c *Client) loadMore(ctx context.Context, m *WSMessage) error {
	room, err := c.requireRoom()
	if err != nil {
		return err
	}
	limit := m.Limit
	if limit <= 0 || limit > joinHistory {
		limit = joinHistory
	}
	page, err := c.Hub.Store.Messages.ListByRoom(ctx, room, limit+1, m.Before)
	if err != nil {
		return err
	}
	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}
	c.push("messages:loaded", map[string]interface{}{
		"roomId":   room,
		"messages": chronological(page),
		"hasMore":  hasMore,
	})
	return nil
}

func (c *Client) react(ctx context.Context, m *WSMessage, add bool) error {
	if m.MessageID == "" || m.Emoji == "" {
		return apperr.Validation("messageId and emoji are required")
	}
	msgs := c.Hub.Store.Messages
	target, err := msgs.Get(ctx, m.MessageID)
	if err != nil {
		return err
	}

	if add {
		err = msgs.AddReaction(ctx, models.MessageReaction{MessageID: m.MessageID, UserID: c.UserID, Username: c.name(), Emoji: m.Emoji})
	} else {
		err = msgs.RemoveReaction(ctx, m.MessageID, c.UserID, m.Emoji)
	}
	if err != nil {
		return err
	}

	reactions, err := msgs.Reactions(ctx, m.MessageID)
	if err != nil {
		return err
	}
	c.Hub.Emit(target.RoomID, "message:reaction:updated", map[string]interface{}{
		"messageId": m.MessageID,
		"reactions": reactions,
	})
	return nil
}

// chronological reverses a newest-first page.
func chronological(page []models.Message) []models.Message {
	out := make([]models.Message, len(page))
	for i, m := range page {
		out[len(page)-1-i] = m
	}
	return out
}
