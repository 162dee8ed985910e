package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// Wednesday, 2026-09-02.
var flowTestNow = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

func testCatalog() *models.Catalog {
	return &models.Catalog{
		TenantID:      "tenant-1",
		SalonName:     "Bella Studio",
		BusinessHours: "Tuesday to Saturday, 9am to 7pm",
		Services: []*models.SalonService{
			{ID: "svc-1", Name: "Haircut", Aliases: "cut,trim", Price: 45, DurationMin: 45, Active: true},
			{ID: "svc-2", Name: "Manicure", Price: 30, DurationMin: 40, Active: true},
			{ID: "svc-3", Name: "Keratin Treatment", Aliases: "keratin", Description: "Deep smoothing treatment", Price: 120, DurationMin: 90, Active: true},
		},
		Professionals: []*models.Professional{
			{ID: "pro-1", Name: "Ana", Role: "Hair stylist", Active: true},
			{ID: "pro-2", Name: "Carla Souza", Role: "Nail artist", Active: true},
		},
		Products: []*models.Product{
			{ID: "prod-1", Name: "Argan Oil Shampoo", Description: "Sulfate-free", Price: 25, InStock: true},
		},
		Packages: []*models.ServicePackage{
			{ID: "pkg-1", Name: "Hair Care Bundle", Sessions: 4, Price: 150, Active: true},
		},
	}
}

func TestStartSchedulingFlowAsksForService(t *testing.T) {
	res := StartSchedulingFlow(models.TurnStateData{}, "I want to book something", testCatalog(), flowTestNow)

	require.Equal(t, models.SkillScheduling, res.Next.ActiveSkill)
	require.Equal(t, models.StepAwaitingService, res.Next.Step)
	require.Contains(t, res.Reply, "Which service")
}

func TestStartSchedulingFlowPreFillsSlotsFromTrigger(t *testing.T) {
	res := StartSchedulingFlow(models.TurnStateData{}, "book a haircut tomorrow at 2pm", testCatalog(), flowTestNow)

	slots := res.Next.Scheduling
	require.Equal(t, "Haircut", slots.ServiceName)
	require.Equal(t, "2026-09-03", slots.Date)
	require.Equal(t, "14:00", slots.Time)
	require.Equal(t, models.StepAwaitingProfessional, res.Next.Step)
}

func TestSchedulingFlowFullWalk(t *testing.T) {
	catalog := testCatalog()

	res := StartSchedulingFlow(models.TurnStateData{}, "I'd like to book", catalog, flowTestNow)
	require.Equal(t, models.StepAwaitingService, res.Next.Step)

	res = HandleSchedulingTurn(res.Next, "a haircut please", catalog, flowTestNow)
	require.Equal(t, models.StepAwaitingDate, res.Next.Step)
	require.Equal(t, "Haircut", res.Next.Scheduling.ServiceName)

	res = HandleSchedulingTurn(res.Next, "friday", catalog, flowTestNow)
	require.Equal(t, models.StepAwaitingTime, res.Next.Step)
	require.Equal(t, "2026-09-04", res.Next.Scheduling.Date)

	res = HandleSchedulingTurn(res.Next, "3pm", catalog, flowTestNow)
	require.Equal(t, models.StepAwaitingProfessional, res.Next.Step)
	require.Equal(t, "15:00", res.Next.Scheduling.Time)

	res = HandleSchedulingTurn(res.Next, "with Ana", catalog, flowTestNow)
	require.Equal(t, models.StepReadyToCommit, res.Next.Step)
	require.Equal(t, "Ana", res.Next.Scheduling.ProfessionalName)
	require.Contains(t, res.Reply, "Haircut")

	res = HandleSchedulingTurn(res.Next, "yes", catalog, flowTestNow)
	require.Equal(t, SideEffectCommitBooking, res.Signal)
}

func TestSchedulingFlowAnyProfessional(t *testing.T) {
	catalog := testCatalog()
	state := models.TurnStateData{
		ActiveSkill: models.SkillScheduling,
		Step:        models.StepAwaitingProfessional,
		Scheduling:  &models.SchedulingSlots{ServiceID: "svc-1", ServiceName: "Haircut", Date: "2026-09-04", Time: "15:00"},
	}

	res := HandleSchedulingTurn(state, "anyone is fine", catalog, flowTestNow)
	require.Equal(t, models.StepReadyToCommit, res.Next.Step)
	require.True(t, res.Next.Scheduling.AnyProfessional)
}

func TestSchedulingFlowUnmatchedInputKeepsSlots(t *testing.T) {
	catalog := testCatalog()
	state := models.TurnStateData{
		ActiveSkill: models.SkillScheduling,
		Step:        models.StepAwaitingDate,
		Scheduling:  &models.SchedulingSlots{ServiceID: "svc-1", ServiceName: "Haircut"},
	}

	res := HandleSchedulingTurn(state, "hmm let me think", catalog, flowTestNow)
	require.Equal(t, models.StepAwaitingDate, res.Next.Step)
	require.Equal(t, "Haircut", res.Next.Scheduling.ServiceName)
	require.Contains(t, res.Reply, "date")
}

func TestSchedulingFlowInfoQuestionIsDetourNotReset(t *testing.T) {
	catalog := testCatalog()
	state := models.TurnStateData{
		ActiveSkill: models.SkillScheduling,
		Step:        models.StepAwaitingTime,
		Scheduling:  &models.SchedulingSlots{ServiceID: "svc-1", ServiceName: "Haircut", Date: "2026-09-04"},
	}

	res := HandleSchedulingTurn(state, "how much is a manicure?", catalog, flowTestNow)
	require.Equal(t, SideEffectInfoDetour, res.Signal)
	require.Equal(t, models.StepAwaitingTime, res.Next.Step)
	require.Equal(t, "Haircut", res.Next.Scheduling.ServiceName)
	require.Equal(t, "2026-09-04", res.Next.Scheduling.Date)
}

func TestSchedulingFlowDeclineEntersCorrection(t *testing.T) {
	catalog := testCatalog()
	state := models.TurnStateData{
		ActiveSkill: models.SkillScheduling,
		Step:        models.StepReadyToCommit,
		Scheduling:  &models.SchedulingSlots{ServiceID: "svc-1", ServiceName: "Haircut", Date: "2026-09-04", Time: "15:00", AnyProfessional: true},
	}

	res := HandleSchedulingTurn(state, "no", catalog, flowTestNow)
	require.Equal(t, models.StepAwaitingCorrection, res.Next.Step)

	res = HandleSchedulingTurn(res.Next, "make it 4pm instead", catalog, flowTestNow)
	require.Equal(t, "16:00", res.Next.Scheduling.Time)
	require.Equal(t, models.StepReadyToCommit, res.Next.Step)
}

func TestSchedulingFlowMultiSlotAnswer(t *testing.T) {
	catalog := testCatalog()
	state := models.TurnStateData{
		ActiveSkill: models.SkillScheduling,
		Step:        models.StepAwaitingService,
		Scheduling:  &models.SchedulingSlots{},
	}

	res := HandleSchedulingTurn(state, "keratin tomorrow at 11:00", catalog, flowTestNow)
	require.Equal(t, "Keratin Treatment", res.Next.Scheduling.ServiceName)
	require.Equal(t, "2026-09-03", res.Next.Scheduling.Date)
	require.Equal(t, "11:00", res.Next.Scheduling.Time)
	require.Equal(t, models.StepAwaitingProfessional, res.Next.Step)
}
