package handlers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/internal/repository"
	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RoomHandler struct {
	Store  *repository.Store
	WebURL string
	log    *zap.SugaredLogger
}

func NewRoomHandler(store *repository.Store, webURL string, log *zap.SugaredLogger) *RoomHandler {
	return &RoomHandler{Store: store, WebURL: strings.TrimRight(webURL, "/"), log: log}
}

type CreateInviteRequest struct {
	ExpiresInHours *float64 `json:"expiresInHours" validate:"omitempty,gt=0"`
}

type PutContextRequest struct {
	Data *models.TripContextData `json:"data" validate:"required"`
}

type JoinRoomRequest struct {
	UserID   string              `json:"userId" validate:"required"`
	Username string              `json:"username" validate:"required"`
	Template models.RoomTemplate `json:"template"`
}

func roomParam(c *fiber.Ctx) (string, error) {
	roomID := strings.TrimSpace(c.Params("roomId"))
	if roomID == "" {
		return "", apperr.Validation("Room ID is required")
	}
	return roomID, nil
}

// CreateInvite issues a shareable invite link for a room.
func (h *RoomHandler) CreateInvite(c *fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return err
	}

	var req CreateInviteRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	var expiresAt *time.Time
	if req.ExpiresInHours != nil {
		t := time.Now().Add(time.Duration(math.Round(*req.ExpiresInHours * float64(time.Hour))))
		expiresAt = &t
	}

	link, err := h.Store.Invites.Create(c.UserContext(), roomID, expiresAt)
	if err != nil {
		return err
	}
	h.log.Infow("invite created", "room", roomID, "expires", expiresAt != nil)

	return c.JSON(fiber.Map{
		"inviteToken": link.Token,
		"inviteUrl":   h.WebURL + "?invite=" + link.Token,
	})
}

func (h *RoomHandler) ResolveInvite(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return apperr.Validation("Token is required")
	}

	roomID, err := h.Store.Invites.Resolve(c.UserContext(), token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Invalid or expired invite link", ""))
		}
		return err
	}
	return c.JSON(fiber.Map{"roomId": roomID})
}

func (h *RoomHandler) GetContext(c *fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return err
	}

	tc, err := h.Store.TripContexts.Get(c.UserContext(), roomID)
	if err != nil {
		return err
	}
	if tc == nil {
		return c.JSON(fiber.Map{"data": nil, "updatedAt": nil})
	}
	return c.JSON(fiber.Map{"data": tc.Data.Data(), "updatedAt": tc.UpdatedAt.UTC()})
}

// PutContext replaces the room's trip context with the submitted document.
func (h *RoomHandler) PutContext(c *fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return err
	}

	var req PutContextRequest
	if err := decodeStrict(c.Body(), &req, "Invalid trip context data"); err != nil {
		return err
	}

	tc, err := h.Store.TripContexts.Upsert(c.UserContext(), roomID, *req.Data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tc.Data.Data(), "updatedAt": tc.UpdatedAt.UTC()})
}

// Join creates the room on first reference and records the membership.
func (h *RoomHandler) Join(c *fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return err
	}

	var req JoinRoomRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	template := req.Template
	if template == "" {
		template = models.DefaultTemplate
	}
	if !template.Valid() {
		return apperr.Validation("Unknown room template " + string(template))
	}

	room, err := h.Store.Rooms.GetOrCreate(c.UserContext(), roomID, template)
	if err != nil {
		return err
	}
	if err := h.Store.Rooms.AddMember(c.UserContext(), roomID, req.UserID, req.Username); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"room": room})
}

func (h *RoomHandler) GetRoom(c *fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return err
	}

	room, err := h.Store.Rooms.Find(c.UserContext(), roomID)
	if err != nil {
		return err
	}
	members, err := h.Store.Rooms.Members(c.UserContext(), roomID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"room": room, "members": members})
}

// ListMessages pages through non-deleted messages, newest first.
func (h *RoomHandler) ListMessages(c *fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return err
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			return apperr.Validation("limit must be between 1 and 100")
		}
		limit = n
	}

	page, err := h.Store.Messages.ListByRoom(c.UserContext(), roomID, limit+1, c.Query("before"))
	if err != nil {
		return err
	}
	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}
	return c.JSON(models.MessagePage{Messages: page, HasMore: hasMore})
}
