package handlers

import (
	"github.com/Devhypertech/aigroupgepanda/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	Hub *ws.Hub
}

func NewChatHandler(hub *ws.Hub) *ChatHandler {
	return &ChatHandler{Hub: hub}
}

// WebSocketUpgradeMiddleware ensures the client is trying to upgrade to WebSocket
func (h *ChatHandler) WebSocketUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket handler function. It expects user_id in
// Locals, set by utils.AuthMiddleware.
func (h *ChatHandler) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, ok := c.Locals("user_id").(string)
		if !ok || userID == "" {
			c.Close()
			return
		}

		client := ws.NewClient(h.Hub, c, userID)
		client.Hub.Register <- client

		go client.WritePump()
		client.ReadPump()
	})
}
