package handlers

import (
	"errors"

	"github.com/Devhypertech/aigroupgepanda/internal/chat"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StreamHandler issues chat-provider tokens and prepares channels.
type StreamHandler struct {
	Provider    chat.Provider
	Provisioner *chat.Provisioner
	log         *zap.SugaredLogger
}

func NewStreamHandler(provider chat.Provider, log *zap.SugaredLogger) *StreamHandler {
	return &StreamHandler{
		Provider:    provider,
		Provisioner: chat.NewProvisioner(provider, log),
		log:         log,
	}
}

type TokenRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type ChannelRequest struct {
	ChannelID string `json:"channelId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

func (h *StreamHandler) Token(c *fiber.Ctx) error {
	var req TokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.Provider.UpsertUser(c.UserContext(), chat.User{ID: req.UserID, Name: req.Username}); err != nil {
		h.log.Errorw("upsert chat user", "user", req.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to generate token", err.Error()))
	}

	token, err := h.Provider.CreateToken(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to generate token", err.Error()))
	}
	return c.JSON(fiber.Map{"token": token, "userId": req.UserID})
}

func (h *StreamHandler) Channel(c *fiber.Ctx) error {
	var req ChannelRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ch := chat.Channel{Type: chat.DefaultChannelType, ID: req.ChannelID}
	if err := h.Provisioner.Ensure(c.UserContext(), ch, req.UserID); err != nil {
		var perr *chat.ProvisionError
		if errors.As(err, &perr) {
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorBody{
				Error:   "Failed to access or create channel",
				Message: perr.CreateErr.Error(),
				Details: fiber.Map{
					"createError": perr.CreateErr.Error(),
					"watchError":  perr.WatchErr.Error(),
				},
			})
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"channelId": req.ChannelID,
		"message":   "Channel ready",
	})
}
