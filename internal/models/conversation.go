package models

import "time"

// Conversation represents one customer↔assistant WhatsApp thread.
// Created on the first inbound message for a (tenant, phone) pair with no
// open thread. Never hard-deleted; ended conversations stay for audit.
type Conversation struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	TenantID       string    `json:"tenant_id" gorm:"index:idx_conversations_tenant_phone"`
	Phone          string    `json:"phone" gorm:"index:idx_conversations_tenant_phone"`
	DisplayName    string    `json:"display_name"`
	Status         string    `json:"status"` // "ai", "human", "ended"
	LastActivityAt time.Time `json:"last_activity_at"`
	MessageCount   int       `json:"message_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation status constants
const (
	ConversationStatusAI    = "ai"
	ConversationStatusHuman = "human"
	ConversationStatusEnded = "ended"
)
