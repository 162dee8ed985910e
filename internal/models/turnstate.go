package models

import "time"

// TurnState is the single mutable record shared across turns of one
// conversation. The State column holds the TurnStateData document as JSON so
// the slot schema can evolve without migrations; LastReplyHash/LastReplyAt
// are dedicated columns because the reply dedup gate updates them with a
// conditional write. Version backs the optimistic check — every write must
// go through the store's conditional-update primitive, never a naive
// read-modify-write.
type TurnState struct {
	ConversationID string     `json:"conversation_id" gorm:"primaryKey"`
	Version        int64      `json:"version"`
	State          string     `json:"state"` // JSON-encoded TurnStateData
	LastReplyHash  string     `json:"last_reply_hash"`
	LastReplyAt    *time.Time `json:"last_reply_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Skill constants — at most one skill is active at a time.
const (
	SkillNone          = ""
	SkillScheduling    = "scheduling"
	SkillCancellation  = "cancellation"
	SkillChannelChoice = "channel_choice"
)

// Scheduling flow steps.
const (
	StepAwaitingService      = "awaiting_service"
	StepAwaitingDate         = "awaiting_date"
	StepAwaitingTime         = "awaiting_time"
	StepAwaitingProfessional = "awaiting_professional"
	StepReadyToCommit        = "ready_to_commit"
	StepAwaitingCorrection   = "awaiting_correction"
	StepCommitted            = "committed"
)

// Cancellation flow steps.
const (
	StepAwaitingCancelConfirm   = "awaiting_cancel_confirm"
	StepAwaitingRescheduleOffer = "awaiting_reschedule_offer"
)

// Channel-choice flow step.
const (
	StepAwaitingChannel = "awaiting_channel"
)

// TurnStateData is the document stored in TurnState.State. Exactly one of
// Scheduling/Cancellation is non-nil while its skill is active; both are nil
// when ActiveSkill is empty. A commit marker, once set, is permanent for the
// attempt and is cleared only by an explicit reset for a new attempt.
type TurnStateData struct {
	ActiveSkill string `json:"active_skill,omitempty"`
	Step        string `json:"step,omitempty"`

	Scheduling   *SchedulingSlots   `json:"scheduling,omitempty"`
	Cancellation *CancellationSlots `json:"cancellation,omitempty"`

	GreetingShown bool          `json:"greeting_shown,omitempty"`
	Commit        *CommitMarker `json:"commit,omitempty"`

	// Escalation accounting lives in persisted state so a failover between
	// instances does not reset it.
	FailureCount    int        `json:"failure_count,omitempty"`
	LastApologyAt   *time.Time `json:"last_apology_at,omitempty"`
	HandoffNotified bool       `json:"handoff_notified,omitempty"`
}

// SchedulingSlots collects the booking details across turns. Unmatched input
// re-prompts without discarding already-filled slots.
type SchedulingSlots struct {
	ServiceID        string `json:"service_id,omitempty"`
	ServiceName      string `json:"service_name,omitempty"`
	Date             string `json:"date,omitempty"` // YYYY-MM-DD
	Time             string `json:"time,omitempty"` // HH:MM
	ProfessionalID   string `json:"professional_id,omitempty"`
	ProfessionalName string `json:"professional_name,omitempty"`
	AnyProfessional  bool   `json:"any_professional,omitempty"`
}

// CancellationSlots tracks the cancellation retention sub-flow.
type CancellationSlots struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	OfferedRetain bool   `json:"offered_retain,omitempty"`
}

// CommitMarker is the persisted proof that the external mutation for this
// attempt already happened, enabling idempotent replay on retries.
type CommitMarker struct {
	Kind       string    `json:"kind"` // "booking" or "cancellation"
	ExternalID string    `json:"external_id"`
	At         time.Time `json:"at"`
}

// Reset clears the active skill and its slots. Called when a skill
// completes, is abandoned, or is explicitly reset. Escalation counters and
// the greeting flag survive a reset.
func (d *TurnStateData) Reset() {
	d.ActiveSkill = SkillNone
	d.Step = ""
	d.Scheduling = nil
	d.Cancellation = nil
	d.Commit = nil
}

// SkillActive reports whether a multi-step flow is in progress beyond its
// initial step.
func (d *TurnStateData) SkillActive() bool {
	return d.ActiveSkill != SkillNone && d.Step != ""
}
