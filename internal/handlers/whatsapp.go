package handlers

import (
	"log"
	"os"
	"strings"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/services"
	"github.com/gofiber/fiber/v2"
)

// WhatsAppHandler receives inbound WhatsApp messages and pushes the
// assistant's replies back through the transport.
type WhatsAppHandler struct {
	assistant *services.Assistant
	transport services.Transport
	tenantID  string
}

// NewWhatsAppHandler creates the webhook handler. transport may be nil in
// development; replies are then logged instead of sent.
func NewWhatsAppHandler(assistant *services.Assistant, transport services.Transport) *WhatsAppHandler {
	tenantID := os.Getenv("TENANT_ID")
	if tenantID == "" {
		tenantID = "default"
	}
	return &WhatsAppHandler{
		assistant: assistant,
		transport: transport,
		tenantID:  tenantID,
	}
}

// TwilioWebhookPayload is the inbound WhatsApp message form Twilio posts.
type TwilioWebhookPayload struct {
	MessageSid  string `form:"MessageSid"`
	AccountSid  string `form:"AccountSid"`
	From        string `form:"From"` // whatsapp:+15551234567
	To          string `form:"To"`
	Body        string `form:"Body"`
	ProfileName string `form:"ProfileName"`
	NumMedia    string `form:"NumMedia"`
}

// HandleWebhook processes one incoming WhatsApp message. Status callbacks
// and media-only events carry no body and are acknowledged without
// processing.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.Body == "" || payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	from := strings.TrimPrefix(payload.From, "whatsapp:")
	log.Printf("📱 WhatsApp message from %s: %s", from, payload.Body)

	outcome, err := h.assistant.ProcessTurn(h.tenantID, from, payload.ProfileName, payload.Body)
	if err != nil {
		log.Printf("❌ Error processing message from %s: %v", from, err)
		return c.SendStatus(fiber.StatusOK)
	}

	h.deliver(from, outcome)
	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload drives the assistant without Twilio, for development.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// HandleTestWebhook processes a test message and returns the reply in the
// response body instead of relying on the transport.
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}
	if payload.From == "" || payload.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from and message are required",
		})
	}

	log.Printf("🧪 Test webhook from %s: %s", payload.From, payload.Message)

	outcome, err := h.assistant.ProcessTurn(h.tenantID, payload.From, payload.Name, payload.Message)
	if err != nil {
		log.Printf("❌ Error processing test message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	return c.JSON(fiber.Map{
		"reply":          outcome.Reply,
		"sent":           outcome.ShouldSend,
		"status_changed": outcome.StatusChanged,
		"new_status":     outcome.NewStatus,
	})
}

func (h *WhatsAppHandler) deliver(to string, outcome *services.TurnOutcome) {
	if !outcome.ShouldSend || outcome.Reply == "" {
		return
	}
	if h.transport == nil {
		log.Printf("📤 Reply (transport not configured): %s", outcome.Reply)
		return
	}
	if err := h.transport.SendText(to, outcome.Reply); err != nil {
		log.Printf("❌ Failed to send WhatsApp reply to %s: %v", to, err)
		return
	}
	log.Printf("✅ Reply sent to %s", to)
}
