package services

import (
	"fmt"
	"strings"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// StartCancellationFlow enters the cancellation skill for the customer's
// upcoming appointment. The destructive action never runs here: the flow
// first confirms, then offers rescheduling before really cancelling.
func StartCancellationFlow(state models.TurnStateData, appt *models.Appointment) FlowResult {
	if appt == nil {
		state.Reset()
		return FlowResult{
			Next:  state,
			Reply: "I couldn't find an upcoming appointment for you. Would you like to book one? 💇",
		}
	}

	state.ActiveSkill = models.SkillCancellation
	state.Step = models.StepAwaitingCancelConfirm
	state.Scheduling = nil
	state.Commit = nil
	state.Cancellation = &models.CancellationSlots{AppointmentID: appt.ID}

	return FlowResult{
		Next: state,
		Reply: fmt.Sprintf(`You have *%s* on %s at %s.

Are you sure you want to cancel it? Reply *YES* to cancel or *NO* to keep it.`,
			appt.ServiceName, friendlyDate(appt.StartsAt.Format("2006-01-02")), appt.StartsAt.Format("3:04 PM")),
	}
}

// HandleCancellationTurn is the pure transition function for the
// cancellation skill, including the retention sub-flow: a confirmed cancel
// intent must first be offered "reschedule" vs. "really cancel" before the
// destructive call executes.
func HandleCancellationTurn(state models.TurnStateData, input string) FlowResult {
	if state.Cancellation == nil {
		state.Reset()
		return FlowResult{Next: state, Reply: "That cancellation is no longer active. Anything else I can help with?"}
	}

	if intent := ClassifyIntent(input); infoIntent(intent) {
		return FlowResult{Next: state, Signal: SideEffectInfoDetour}
	}

	switch state.Step {
	case models.StepAwaitingCancelConfirm:
		switch ClassifyIntent(input) {
		case IntentAppointmentConfirm, IntentCancel:
			// Retention offer before anything destructive happens.
			state.Step = models.StepAwaitingRescheduleOffer
			state.Cancellation.OfferedRetain = true
			return FlowResult{
				Next: state,
				Reply: `Before I cancel — would you rather move it to another day instead? 🔄

Reply *RESCHEDULE* to pick a new time, or *CANCEL* to really cancel.`,
			}
		case IntentAppointmentDecline:
			state.Reset()
			return FlowResult{
				Next:  state,
				Reply: "Great, your appointment is unchanged. See you there! ✨",
			}
		default:
			return FlowResult{
				Next:  state,
				Reply: "Just to be sure: reply *YES* to cancel the appointment or *NO* to keep it.",
			}
		}

	case models.StepAwaitingRescheduleOffer:
		switch ClassifyIntent(input) {
		case IntentReschedule, IntentSchedule:
			return FlowResult{Next: state, Signal: SideEffectCancelAndReschedule}
		case IntentCancel, IntentAppointmentConfirm:
			return FlowResult{Next: state, Signal: SideEffectCommitCancel}
		case IntentAppointmentDecline:
			state.Reset()
			return FlowResult{
				Next:  state,
				Reply: "Great, your appointment is unchanged. See you there! ✨",
			}
		default:
			return FlowResult{
				Next:  state,
				Reply: "Reply *RESCHEDULE* to pick a new time, or *CANCEL* to really cancel.",
			}
		}

	default:
		state.Reset()
		return FlowResult{Next: state, Reply: "That cancellation is no longer active. Anything else I can help with?"}
	}
}

// HandleChannelChoiceTurn runs the one-step follow-up after a completed
// cancellation: the customer picks how they'd like to hear about new slots.
func HandleChannelChoiceTurn(state models.TurnStateData, input string) FlowResult {
	msg := normalizeText(input)
	state.Reset()

	switch {
	case stringsContainsAny(msg, "whatsapp", "message", "here", "text"):
		return FlowResult{
			Next:  state,
			Reply: "Perfect, we'll message you right here when a good slot opens up. 📲",
		}
	case stringsContainsAny(msg, "call", "phone", "ring"):
		return FlowResult{
			Next:  state,
			Reply: "Perfect, our team will give you a call. 📞",
		}
	default:
		return FlowResult{
			Next:  state,
			Reply: "No problem — we're here whenever you want to book again. ✨",
		}
	}
}

func stringsContainsAny(msg string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
