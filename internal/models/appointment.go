package models

import "time"

// Appointment is the external booking record. Created by one call that
// either fully succeeds (returns an id) or fully fails; referenced from the
// turn state's commit marker by id.
type Appointment struct {
	ID             string `json:"id" gorm:"primaryKey"`
	TenantID       string `json:"tenant_id" gorm:"index"`
	ConversationID string `json:"conversation_id" gorm:"index"`
	CustomerPhone  string `json:"customer_phone" gorm:"index"`
	CustomerName   string `json:"customer_name"`

	ServiceID        string `json:"service_id"`
	ServiceName      string `json:"service_name"`
	ProfessionalID   string `json:"professional_id,omitempty"`
	ProfessionalName string `json:"professional_name,omitempty"`

	StartsAt time.Time `json:"starts_at"`
	Status   string    `json:"status"` // "confirmed", "canceled", "completed"

	CanceledBy   string     `json:"canceled_by,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment status constants
const (
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCanceled  = "canceled"
	AppointmentStatusCompleted = "completed"
)
