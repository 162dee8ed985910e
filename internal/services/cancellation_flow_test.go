package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

func testAppointment() *models.Appointment {
	return &models.Appointment{
		ID:            "appt-1",
		TenantID:      "tenant-1",
		ServiceName:   "Haircut",
		CustomerPhone: "+15551234567",
		StartsAt:      time.Date(2026, 9, 4, 15, 0, 0, 0, time.UTC),
		Status:        models.AppointmentStatusConfirmed,
	}
}

func TestStartCancellationFlowAsksForConfirmation(t *testing.T) {
	res := StartCancellationFlow(models.TurnStateData{}, testAppointment())

	require.Equal(t, models.SkillCancellation, res.Next.ActiveSkill)
	require.Equal(t, models.StepAwaitingCancelConfirm, res.Next.Step)
	require.Equal(t, "appt-1", res.Next.Cancellation.AppointmentID)
	require.Contains(t, res.Reply, "Haircut")
	require.Contains(t, res.Reply, "YES")
}

func TestStartCancellationFlowWithoutAppointment(t *testing.T) {
	res := StartCancellationFlow(models.TurnStateData{}, nil)

	require.Equal(t, models.SkillNone, res.Next.ActiveSkill)
	require.Contains(t, res.Reply, "couldn't find")
}

func TestCancellationFlowConfirmLeadsToRetentionOffer(t *testing.T) {
	start := StartCancellationFlow(models.TurnStateData{}, testAppointment())

	res := HandleCancellationTurn(start.Next, "yes")
	require.Equal(t, models.StepAwaitingRescheduleOffer, res.Next.Step)
	require.True(t, res.Next.Cancellation.OfferedRetain)
	require.Equal(t, SideEffectNone, res.Signal)
	require.Contains(t, res.Reply, "RESCHEDULE")
}

func TestCancellationFlowDeclineKeepsAppointment(t *testing.T) {
	start := StartCancellationFlow(models.TurnStateData{}, testAppointment())

	res := HandleCancellationTurn(start.Next, "no")
	require.Equal(t, models.SkillNone, res.Next.ActiveSkill)
	require.Equal(t, SideEffectNone, res.Signal)
	require.Contains(t, res.Reply, "unchanged")
}

func TestCancellationFlowRetentionOfferOutcomes(t *testing.T) {
	base := models.TurnStateData{
		ActiveSkill:  models.SkillCancellation,
		Step:         models.StepAwaitingRescheduleOffer,
		Cancellation: &models.CancellationSlots{AppointmentID: "appt-1", OfferedRetain: true},
	}

	res := HandleCancellationTurn(base, "reschedule please")
	require.Equal(t, SideEffectCancelAndReschedule, res.Signal)

	res = HandleCancellationTurn(base, "just cancel it")
	require.Equal(t, SideEffectCommitCancel, res.Signal)

	res = HandleCancellationTurn(base, "no")
	require.Equal(t, SideEffectNone, res.Signal)
	require.Equal(t, models.SkillNone, res.Next.ActiveSkill)
}

func TestCancellationFlowInfoQuestionIsDetour(t *testing.T) {
	start := StartCancellationFlow(models.TurnStateData{}, testAppointment())

	res := HandleCancellationTurn(start.Next, "what are your opening hours?")
	require.Equal(t, SideEffectInfoDetour, res.Signal)
	require.Equal(t, models.StepAwaitingCancelConfirm, res.Next.Step)
	require.Equal(t, "appt-1", res.Next.Cancellation.AppointmentID)
}

func TestChannelChoiceTurn(t *testing.T) {
	base := models.TurnStateData{
		ActiveSkill: models.SkillChannelChoice,
		Step:        models.StepAwaitingChannel,
	}

	res := HandleChannelChoiceTurn(base, "whatsapp please")
	require.Equal(t, models.SkillNone, res.Next.ActiveSkill)
	require.Contains(t, res.Reply, "right here")

	res = HandleChannelChoiceTurn(base, "give me a call")
	require.Contains(t, res.Reply, "call")

	res = HandleChannelChoiceTurn(base, "neither, thanks")
	require.Contains(t, res.Reply, "whenever you want")
}
