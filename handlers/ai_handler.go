package handlers

import (
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/autoreply"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AIHandler struct {
	Responder *autoreply.Responder
	log       *zap.SugaredLogger
}

func NewAIHandler(responder *autoreply.Responder, log *zap.SugaredLogger) *AIHandler {
	return &AIHandler{Responder: responder, log: log}
}

type AIReplyRequest struct {
	ChannelID    string `json:"channelId" validate:"required"`
	RoomID       string `json:"roomId" validate:"required"`
	RoomTemplate string `json:"roomTemplate"`
	UserID       string `json:"userId" validate:"required"`
	Username     string `json:"username" validate:"required"`
	Text         string `json:"text" validate:"required"`
}

// Reply generates an AI answer and posts it to the channel as the AI user.
func (h *AIHandler) Reply(c *fiber.Ctx) error {
	start := time.Now()

	var req AIReplyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	h.log.Infow("ai reply requested", "channel", req.ChannelID, "user", req.UserID, "text_length", len(req.Text))

	out, err := h.Responder.ReplyDirect(c.UserContext(), autoreply.DirectRequest{
		ChannelID: req.ChannelID,
		RoomID:    req.RoomID,
		Template:  models.RoomTemplate(req.RoomTemplate),
		UserID:    req.UserID,
		Username:  req.Username,
		Text:      req.Text,
	})
	if err != nil {
		h.log.Errorw("post ai reply", "channel", req.ChannelID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to post AI message to channel", ""))
	}

	duration := time.Since(start).Milliseconds()
	h.log.Infow("ai reply posted", "channel", req.ChannelID, "duration_ms", duration)
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "AI reply posted to channel",
		"replyText": out.ReplyText,
		"duration":  duration,
	})
}
