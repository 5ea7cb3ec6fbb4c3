package handlers

import (
	"strings"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/internal/repository"
	"github.com/Devhypertech/aigroupgepanda/internal/ws"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
)

// MessageHandler edits, deletes and reacts to stored room messages. Changes
// are pushed to sockets in the message's room when a hub is attached.
type MessageHandler struct {
	Messages repository.MessageRepository
	Hub      *ws.Hub
}

func NewMessageHandler(messages repository.MessageRepository, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{Messages: messages, Hub: hub}
}

type EditMessageRequest struct {
	UserID string `json:"userId" validate:"required"`
	Text   string `json:"text" validate:"required,max=4000"`
}

type DeleteMessageRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type ReactionRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username"`
	Emoji    string `json:"emoji" validate:"required,max=32"`
}

func messageParam(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("messageId"))
	if id == "" {
		return "", apperr.Validation("Message ID is required")
	}
	return id, nil
}

func (h *MessageHandler) emit(room, eventType string, fields map[string]interface{}) {
	if h.Hub != nil {
		h.Hub.Emit(room, eventType, fields)
	}
}

func (h *MessageHandler) Edit(c *fiber.Ctx) error {
	id, err := messageParam(c)
	if err != nil {
		return err
	}
	var req EditMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	msg, err := h.Messages.Edit(c.UserContext(), id, req.UserID, strings.TrimSpace(req.Text))
	if err != nil {
		return err
	}
	h.emit(msg.RoomID, "message:updated", map[string]interface{}{"message": msg})
	return c.JSON(fiber.Map{"message": msg})
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	id, err := messageParam(c)
	if err != nil {
		return err
	}
	var req DeleteMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	msg, err := h.Messages.Delete(c.UserContext(), id, req.UserID)
	if err != nil {
		return err
	}
	h.emit(msg.RoomID, "message:deleted", map[string]interface{}{"messageId": msg.ID, "message": msg})
	return c.JSON(fiber.Map{"message": msg})
}

func (h *MessageHandler) AddReaction(c *fiber.Ctx) error {
	return h.react(c, true)
}

func (h *MessageHandler) RemoveReaction(c *fiber.Ctx) error {
	return h.react(c, false)
}

func (h *MessageHandler) react(c *fiber.Ctx, add bool) error {
	id, err := messageParam(c)
	if err != nil {
		return err
	}
	var req ReactionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	msg, err := h.Messages.Get(ctx, id)
	if err != nil {
		return err
	}
	if add {
		err = h.Messages.AddReaction(ctx, models.MessageReaction{MessageID: id, UserID: req.UserID, Username: req.Username, Emoji: req.Emoji})
	} else {
		err = h.Messages.RemoveReaction(ctx, id, req.UserID, req.Emoji)
	}
	if err != nil {
		return err
	}

	reactions, err := h.Messages.Reactions(ctx, id)
	if err != nil {
		return err
	}
	h.emit(msg.RoomID, "message:reaction:updated", map[string]interface{}{"messageId": id, "reactions": reactions})
	return c.JSON(fiber.Map{"messageId": id, "reactions": reactions})
}
