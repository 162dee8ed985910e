package models

import "time"

// Message is one append-only log entry per turn. Never mutated after insert;
// used for audit and to rebuild generator context.
type Message struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"index"`
	Role           string    `json:"role"` // "customer" or "assistant"
	Body           string    `json:"body"`
	Intent         string    `json:"intent,omitempty"`
	FilterOutcome  string    `json:"filter_outcome,omitempty"` // "clean", "blocked", "substituted", "replaced"
	CreatedAt      time.Time `json:"created_at"`
}

// Message role constants
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// Filter outcome constants
const (
	FilterClean       = "clean"
	FilterBlocked     = "blocked"
	FilterSubstituted = "substituted"
	FilterReplaced    = "replaced"
)
