package handlers

import (
	"encoding/json"

	"github.com/Devhypertech/aigroupgepanda/internal/autoreply"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookHandler receives chat-provider events. Signature checks happen in
// middleware before the body reaches it.
type WebhookHandler struct {
	Responder *autoreply.Responder
	log       *zap.SugaredLogger
}

func NewWebhookHandler(responder *autoreply.Responder, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{Responder: responder, log: log}
}

func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var ev autoreply.Event
	if err := json.Unmarshal(c.Body(), &ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid webhook payload", ""))
	}
	h.log.Debugw("stream webhook event", "type", ev.Type)

	outcome, err := h.Responder.HandleEvent(c.UserContext(), ev)
	if err != nil {
		h.log.Errorw("handle stream webhook", "type", ev.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Webhook processing failed", ""))
	}
	if outcome == autoreply.OutcomeReplied {
		h.log.Infow("ai reply sent", "channel", ev.ChannelRef().ID)
	}
	return c.JSON(fiber.Map{"received": true})
}
