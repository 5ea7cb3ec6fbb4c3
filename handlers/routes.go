package handlers

import (
	"github.com/Devhypertech/aigroupgepanda/middleware"
	"github.com/Devhypertech/aigroupgepanda/utils"

	"github.com/gofiber/fiber/v2"
)

type Routes struct {
	System  *SystemHandler
	Rooms   *RoomHandler
	Message *MessageHandler
	Stream  *StreamHandler
	Webhook *WebhookHandler
	AI      *AIHandler
	Chat    *ChatHandler // optional

	// StreamSecret verifies webhook signatures and socket tokens.
	StreamSecret  string
	VerifyWebhook bool
}

func SetupRoutes(app *fiber.App, r Routes) {
	app.Get("/", r.System.Index)
	app.Get("/health", r.System.Health)

	api := app.Group("/api")

	rooms := api.Group("/rooms")
	rooms.Post("/:roomId/invite", r.Rooms.CreateInvite)
	rooms.Get("/:roomId/context", r.Rooms.GetContext)
	rooms.Put("/:roomId/context", r.Rooms.PutContext)
	rooms.Post("/:roomId/join", r.Rooms.Join)
	rooms.Get("/:roomId/messages", r.Rooms.ListMessages)
	rooms.Get("/:roomId", r.Rooms.GetRoom)

	api.Get("/invites/:token", r.Rooms.ResolveInvite)

	messages := api.Group("/messages")
	messages.Patch("/:messageId", r.Message.Edit)
	messages.Delete("/:messageId", r.Message.Delete)
	messages.Post("/:messageId/reactions", r.Message.AddReaction)
	messages.Delete("/:messageId/reactions", r.Message.RemoveReaction)

	stream := api.Group("/stream")
	stream.Post("/token", r.Stream.Token)
	stream.Post("/channel", r.Stream.Channel)
	stream.Post("/webhook", middleware.VerifySignature(r.StreamSecret, r.VerifyWebhook), r.Webhook.Handle)

	api.Post("/ai/reply", r.AI.Reply)

	if r.Chat != nil {
		app.Get("/ws", utils.AuthMiddleware(r.StreamSecret), r.Chat.WebSocketUpgradeMiddleware, r.Chat.Handler())
	}
}
