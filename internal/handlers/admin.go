package handlers

import (
	"log"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the salon-staff operations: inspecting conversations
// and moving them between assistant and human handling.
type AdminHandler struct {
	store storage.Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// ListConversations lists conversations for a tenant.
func (h *AdminHandler) ListConversations(c *fiber.Ctx) error {
	tenantID := c.Query("tenant", "default")

	conversations, err := h.store.ListConversations(tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch conversations",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// GetMessages returns the recent message log for one conversation.
func (h *AdminHandler) GetMessages(c *fiber.Ctx) error {
	conversationID := c.Params("conversationID")

	if _, err := h.store.GetConversation(conversationID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Conversation not found",
		})
	}

	limit := c.QueryInt("limit", 50)
	messages, err := h.store.ListRecentMessages(conversationID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch messages",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"messages": messages,
		"count":    len(messages),
	})
}

// Takeover moves a conversation to human handling.
func (h *AdminHandler) Takeover(c *fiber.Ctx) error {
	return h.setHandling(c, models.ConversationStatusHuman)
}

// Release hands a conversation back to the assistant and clears the
// escalation accounting so a fresh failure streak is needed before the next
// handoff.
func (h *AdminHandler) Release(c *fiber.Ctx) error {
	conversationID := c.Params("conversationID")

	if err := h.setStatus(conversationID, models.ConversationStatusAI); err != nil {
		return err
	}
	if _, err := h.store.UpdateTurnState(conversationID, func(d *models.TurnStateData) error {
		d.HandoffNotified = false
		d.FailureCount = 0
		d.LastApologyAt = nil
		return nil
	}); err != nil {
		log.Printf("⚠️ Reset escalation state for %s: %v", conversationID, err)
	}

	log.Printf("🤖 Conversation %s released back to the assistant", conversationID)
	return c.JSON(fiber.Map{
		"success": true,
		"status":  models.ConversationStatusAI,
	})
}

func (h *AdminHandler) setHandling(c *fiber.Ctx, status string) error {
	conversationID := c.Params("conversationID")
	if err := h.setStatus(conversationID, status); err != nil {
		return err
	}
	log.Printf("🤝 Conversation %s moved to %s handling", conversationID, status)
	return c.JSON(fiber.Map{
		"success": true,
		"status":  status,
	})
}

func (h *AdminHandler) setStatus(conversationID, status string) error {
	if _, err := h.store.GetConversation(conversationID); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	if err := h.store.UpdateConversationStatus(conversationID, status); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update conversation")
	}
	return nil
}
