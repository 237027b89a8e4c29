package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewApp builds the local projection API. It binds to loopback only; there is
// no auth because the daemon and its render layer share a machine.
func NewApp(h *SyncHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "OM Messenger Sync",
		// Attachment uploads arrive base64-encoded in JSON bodies.
		BodyLimit: 16 * 1024 * 1024, // 16MB
	})

	app.Use(requestid.New())
	app.Use(logger.New())

	api := app.Group("/api")
	api.Get("/conversations", h.GetConversations)
	api.Get("/conversations/:key/messages", h.GetMessages)
	api.Get("/conversations/:key/pinned", h.GetPinnedMessages)
	api.Post("/conversations/:key/open", h.OpenConversation)
	api.Post("/conversations/close", h.CloseConversation)
	api.Post("/conversations/clear", h.ClearConversation)
	api.Get("/unread", h.GetUnread)
	api.Post("/send", h.Send)
	api.Post("/forward", h.Forward)
	api.Post("/focus", h.SetFocus)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "OM Messenger sync daemon is running",
		})
	})

	return app
}
