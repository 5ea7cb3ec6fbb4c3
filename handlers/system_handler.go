package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type SystemHandler struct {
	Backend string
}

func NewSystemHandler(backend string) *SystemHandler {
	return &SystemHandler{Backend: backend}
}

func (h *SystemHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "API is healthy",
		"storage": h.Backend,
	})
}

// Index lists the public endpoints.
func (h *SystemHandler) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":      "Gepanda AI Group Chat API",
		"version":      "0.1.0",
		"status":       "running",
		"chatProvider": "Stream Chat",
		"aiModel":      "Zhipu GLM-4 Flash",
		"endpoints": fiber.Map{
			"stream": fiber.Map{
				"POST /api/stream/token":   "Generate Stream Chat token for a user",
				"POST /api/stream/channel": "Create or get channel and add user as member",
				"POST /api/stream/webhook": "Stream Chat webhook endpoint (for AI responses)",
			},
			"ai": fiber.Map{
				"POST /api/ai/reply": "Generate and post AI reply to Stream channel",
			},
			"rooms": fiber.Map{
				"POST /api/rooms/:roomId/invite":  "Create an invite link for a room",
				"GET /api/rooms/:roomId/context":  "Get trip context for a room",
				"PUT /api/rooms/:roomId/context":  "Update trip context for a room",
				"POST /api/rooms/:roomId/join":    "Join a room, creating it on first use",
				"GET /api/rooms/:roomId":          "Get a room and its members",
				"GET /api/rooms/:roomId/messages": "Page through room messages",
			},
			"messages": fiber.Map{
				"PATCH /api/messages/:messageId":            "Edit your message",
				"DELETE /api/messages/:messageId":           "Delete your message",
				"POST /api/messages/:messageId/reactions":   "Add a reaction",
				"DELETE /api/messages/:messageId/reactions": "Remove a reaction",
			},
			"invites": fiber.Map{
				"GET /api/invites/:token": "Resolve an invite token to get roomId",
			},
			"realtime": fiber.Map{
				"GET /ws?token=": "Room socket authenticated with a chat token",
			},
		},
	})
}
