package services

import (
	"time"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// Escalation thresholds. Counters and cooldown timestamps live inside the
// persisted turn state so a failover between instances keeps the
// accounting.
const (
	// EscalationThreshold is the consecutive-failure count that forces a
	// handoff to a human.
	EscalationThreshold = 2

	// ApologyCooldown suppresses repeated apologies within a short window.
	ApologyCooldown = 60 * time.Second
)

// FallbackApology is the deterministic message for a single collaborator
// failure.
const FallbackApology = "Sorry, I'm having a little trouble right now. 🙏 Give me a moment and try again."

// HandoffNotice is the one-time message sent when the assistant transfers
// the conversation to a human.
const HandoffNotice = "I'll bring one of our team members into the conversation to help you personally. One moment! 💁"

// EscalationDecision is the outcome of recording one collaborator failure.
type EscalationDecision struct {
	Reply      string
	ShouldSend bool
	Handoff    bool
}

// RecordFailure updates the escalation accounting inside state for one
// failed collaborator call and decides the outbound behavior: a cooldown
// suppresses repeat apologies, and reaching the threshold produces exactly
// one handoff notice with the counter reset.
func RecordFailure(state *models.TurnStateData, now time.Time) EscalationDecision {
	state.FailureCount++

	if state.FailureCount >= EscalationThreshold {
		state.FailureCount = 0
		state.LastApologyAt = nil
		if state.HandoffNotified {
			// Already handed off; stay silent rather than apologize again.
			return EscalationDecision{Handoff: true}
		}
		state.HandoffNotified = true
		return EscalationDecision{Reply: HandoffNotice, ShouldSend: true, Handoff: true}
	}

	if state.LastApologyAt != nil && now.Sub(*state.LastApologyAt) < ApologyCooldown {
		// Within cooldown: no outbound reply this turn.
		return EscalationDecision{}
	}

	state.LastApologyAt = &now
	return EscalationDecision{Reply: FallbackApology, ShouldSend: true}
}

// RecordSuccess resets the consecutive-failure counter after a successful
// collaborator call. The apology timestamp stays, so a collaborator that
// alternates between failing and working apologizes at most once per
// cooldown window.
func RecordSuccess(state *models.TurnStateData) {
	state.FailureCount = 0
}
