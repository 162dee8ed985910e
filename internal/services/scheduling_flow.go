package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// StartSchedulingFlow enters the scheduling skill, pre-filling whatever
// slots the triggering message already contains, and prompts for the first
// missing slot.
func StartSchedulingFlow(state models.TurnStateData, input string, catalog *models.Catalog, now time.Time) FlowResult {
	state.ActiveSkill = models.SkillScheduling
	state.Cancellation = nil
	state.Commit = nil
	state.Scheduling = &models.SchedulingSlots{}

	slots := state.Scheduling
	if svc := matchService(catalog, input); svc != nil {
		slots.ServiceID = svc.ID
		slots.ServiceName = svc.Name
	}
	if date := parseDate(input, now); date != "" {
		slots.Date = date
	}
	if clock := parseClock(input); clock != "" {
		slots.Time = clock
	}

	return promptNextSchedulingSlot(state, catalog)
}

// HandleSchedulingTurn is the pure transition function for the scheduling
// skill: (state, input, read-only catalog) → (next state, reply, signal).
// Unmatched input re-prompts without discarding already-filled slots; info
// questions become side-trips, never resets.
func HandleSchedulingTurn(state models.TurnStateData, input string, catalog *models.Catalog, now time.Time) FlowResult {
	if state.Scheduling == nil {
		state.Scheduling = &models.SchedulingSlots{}
	}

	// Interruptions are side-trips: the orchestrator answers the info
	// question and re-emits the resume prompt; slots stay intact.
	if intent := ClassifyIntent(input); infoIntent(intent) {
		return FlowResult{Next: state, Signal: SideEffectInfoDetour}
	}

	slots := state.Scheduling

	switch state.Step {
	case models.StepAwaitingService:
		svc := matchService(catalog, input)
		if svc == nil {
			return FlowResult{
				Next:  state,
				Reply: "I couldn't find that service. " + serviceListLine(catalog) + "\nWhich one would you like?",
			}
		}
		slots.ServiceID = svc.ID
		slots.ServiceName = svc.Name
		// The same answer often carries more than one slot.
		if d := parseDate(input, now); d != "" && slots.Date == "" {
			slots.Date = d
		}
		if c := parseClock(input); c != "" && slots.Time == "" {
			slots.Time = c
		}
		return promptNextSchedulingSlot(state, catalog)

	case models.StepAwaitingDate:
		date := parseDate(input, now)
		if date == "" {
			return FlowResult{
				Next:  state,
				Reply: "Sorry, I didn't catch the date. You can say something like \"tomorrow\", \"friday\" or \"2026-09-03\". 📅",
			}
		}
		slots.Date = date
		if c := parseClock(input); c != "" && slots.Time == "" {
			slots.Time = c
		}
		return promptNextSchedulingSlot(state, catalog)

	case models.StepAwaitingTime:
		clock := parseClock(input)
		if clock == "" {
			return FlowResult{
				Next:  state,
				Reply: "What time works for you? For example \"2pm\" or \"14:30\". ⏰",
			}
		}
		slots.Time = clock
		return promptNextSchedulingSlot(state, catalog)

	case models.StepAwaitingProfessional:
		if anyProfessional(input) {
			slots.AnyProfessional = true
			return promptNextSchedulingSlot(state, catalog)
		}
		pro := matchProfessional(catalog, input)
		if pro == nil {
			return FlowResult{
				Next:  state,
				Reply: "I couldn't find that name on our team. " + professionalListLine(catalog) + "\nOr reply \"anyone\" and we'll pick for you.",
			}
		}
		slots.ProfessionalID = pro.ID
		slots.ProfessionalName = pro.Name
		return promptNextSchedulingSlot(state, catalog)

	case models.StepReadyToCommit:
		switch ClassifyIntent(input) {
		case IntentAppointmentConfirm:
			return FlowResult{Next: state, Signal: SideEffectCommitBooking}
		case IntentAppointmentDecline:
			state.Step = models.StepAwaitingCorrection
			return FlowResult{
				Next:  state,
				Reply: "No problem! What would you like to change — the service, the date, the time, or the professional?",
			}
		default:
			return FlowResult{
				Next:  state,
				Reply: confirmationSummary(slots) + "\n\nReply *YES* to confirm or *NO* to change something.",
			}
		}

	case models.StepAwaitingCorrection:
		changed := false
		if d := parseDate(input, now); d != "" {
			slots.Date = d
			changed = true
		}
		if c := parseClock(input); c != "" {
			slots.Time = c
			changed = true
		}
		if !changed {
			if svc := matchService(catalog, input); svc != nil {
				slots.ServiceID = svc.ID
				slots.ServiceName = svc.Name
				changed = true
			} else if pro := matchProfessional(catalog, input); pro != nil {
				slots.ProfessionalID = pro.ID
				slots.ProfessionalName = pro.Name
				slots.AnyProfessional = false
				changed = true
			}
		}
		if !changed {
			return FlowResult{
				Next:  state,
				Reply: "Just tell me the new detail — a service, a date like \"friday\", a time like \"3pm\", or a professional's name.",
			}
		}
		return promptNextSchedulingSlot(state, catalog)

	default:
		// Unknown step: fall back to the first missing slot instead of
		// discarding what was already collected.
		return promptNextSchedulingSlot(state, catalog)
	}
}

// promptNextSchedulingSlot advances to the first missing slot and produces
// its prompt; with everything filled it moves to the commit confirmation.
func promptNextSchedulingSlot(state models.TurnStateData, catalog *models.Catalog) FlowResult {
	slots := state.Scheduling

	switch {
	case slots.ServiceName == "":
		state.Step = models.StepAwaitingService
		return FlowResult{
			Next:  state,
			Reply: "Which service would you like to book? 💇\n" + serviceListLine(catalog),
		}

	case slots.Date == "":
		state.Step = models.StepAwaitingDate
		return FlowResult{
			Next:  state,
			Reply: fmt.Sprintf("Great, *%s*! What day works for you? 📅", slots.ServiceName),
		}

	case slots.Time == "":
		state.Step = models.StepAwaitingTime
		return FlowResult{
			Next:  state,
			Reply: fmt.Sprintf("*%s* on %s — what time would you like? ⏰", slots.ServiceName, friendlyDate(slots.Date)),
		}

	case slots.ProfessionalName == "" && !slots.AnyProfessional && len(catalog.Professionals) > 0:
		state.Step = models.StepAwaitingProfessional
		return FlowResult{
			Next:  state,
			Reply: "Any preferred professional? " + professionalListLine(catalog) + "\nOr reply \"anyone\".",
		}

	default:
		state.Step = models.StepReadyToCommit
		return FlowResult{
			Next:  state,
			Reply: confirmationSummary(slots) + "\n\nShall I book it? Reply *YES* to confirm or *NO* to change something.",
		}
	}
}

// SchedulingResumePrompt re-anchors the customer after an info side-trip.
func SchedulingResumePrompt(state models.TurnStateData) string {
	if state.Scheduling == nil {
		return "Now, back to your booking — where were we?"
	}
	switch state.Step {
	case models.StepAwaitingService:
		return "Now, back to your booking — which service would you like?"
	case models.StepAwaitingDate:
		return "Now, back to your booking — what day works for you?"
	case models.StepAwaitingTime:
		return "Now, back to your booking — what time would you like?"
	case models.StepAwaitingProfessional:
		return "Now, back to your booking — any preferred professional, or \"anyone\"?"
	case models.StepReadyToCommit:
		return "Now, back to your booking — shall I confirm it? Reply *YES* or *NO*."
	default:
		return "Now, back to your booking — where were we?"
	}
}

func confirmationSummary(slots *models.SchedulingSlots) string {
	pro := slots.ProfessionalName
	if pro == "" {
		pro = "first available professional"
	}
	return fmt.Sprintf(`📋 *Here's what I have:*

💇 *Service:* %s
📅 *Date:* %s
⏰ *Time:* %s
👤 *With:* %s`,
		slots.ServiceName, friendlyDate(slots.Date), friendlyClock(slots.Time), pro)
}

func serviceListLine(catalog *models.Catalog) string {
	if len(catalog.Services) == 0 {
		return "Our team can tell you everything we offer."
	}
	names := make([]string, 0, len(catalog.Services))
	for _, svc := range catalog.Services {
		names = append(names, svc.Name)
	}
	return "We offer: " + strings.Join(names, ", ") + "."
}

func professionalListLine(catalog *models.Catalog) string {
	if len(catalog.Professionals) == 0 {
		return ""
	}
	names := make([]string, 0, len(catalog.Professionals))
	for _, pro := range catalog.Professionals {
		names = append(names, pro.Name)
	}
	return "Our team: " + strings.Join(names, ", ") + "."
}
