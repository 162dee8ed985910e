package routes

import (
	"os"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/handlers"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/middleware"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/services"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, assistant *services.Assistant, transport services.Transport) {
	whatsappHandler := handlers.NewWhatsAppHandler(assistant, transport)
	adminHandler := handlers.NewAdminHandler(store)
	healthHandler := handlers.NewHealthHandler("1.0.0")

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Beauty Manager Assistant!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":        "/health",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
				"admin":         "/admin",
			},
		})
	})

	app.Get("/health", healthHandler.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook with environment-aware signature validation
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: skip validation for ngrok
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
		if os.Getenv("ENVIRONMENT") == "development" {
			println("⚠️  WhatsApp webhook validation DISABLED for development")
		}
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsappHandler.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	app.Post("/test/whatsapp", whatsappHandler.HandleTestWebhook)

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin")
	admin.Get("/conversations", adminHandler.ListConversations)
	admin.Get("/conversations/:conversationID/messages", adminHandler.GetMessages)
	admin.Post("/conversations/:conversationID/takeover", adminHandler.Takeover)
	admin.Post("/conversations/:conversationID/release", adminHandler.Release)
}
