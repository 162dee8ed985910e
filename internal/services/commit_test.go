package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"
)

// countingBookings wraps the store-backed collaborator so tests can count
// external mutations and inject failures.
type countingBookings struct {
	inner       *StoreBookings
	createCalls int
	cancelCalls int
	failCreate  bool
	failCancel  bool
}

func (b *countingBookings) Create(tenantID string, appt *models.Appointment) (*models.Appointment, error) {
	b.createCalls++
	if b.failCreate {
		return nil, errors.New("booking backend unavailable")
	}
	return b.inner.Create(tenantID, appt)
}

func (b *countingBookings) Cancel(id, tenantID, actor, reason string) (*models.Appointment, error) {
	b.cancelCalls++
	if b.failCancel {
		return nil, errors.New("booking backend unavailable")
	}
	return b.inner.Cancel(id, tenantID, actor, reason)
}

func newCommitFixture(t *testing.T) (*storage.MemoryStore, *countingBookings, *CommitCoordinator, *models.Conversation) {
	t.Helper()

	store := storage.NewMemoryStore()
	conv, err := store.CreateConversation(&models.Conversation{
		TenantID:    "tenant-1",
		Phone:       "+15551234567",
		DisplayName: "Maria Lopez",
		Status:      models.ConversationStatusAI,
	})
	require.NoError(t, err)

	bookings := &countingBookings{inner: NewStoreBookings(store)}
	coordinator := NewCommitCoordinator(store, bookings, NewURLBookingLinker(""))
	return store, bookings, coordinator, conv
}

func readySchedulingState() models.TurnStateData {
	return models.TurnStateData{
		ActiveSkill: models.SkillScheduling,
		Step:        models.StepReadyToCommit,
		Scheduling: &models.SchedulingSlots{
			ServiceID:        "svc-1",
			ServiceName:      "Haircut",
			Date:             "2026-09-04",
			Time:             "15:00",
			ProfessionalName: "Ana",
		},
	}
}

func TestCommitBookingCreatesOnce(t *testing.T) {
	store, bookings, coordinator, conv := newCommitFixture(t)

	state := readySchedulingState()
	reply, err := coordinator.CommitBooking(conv, &state)
	require.NoError(t, err)
	require.Contains(t, reply, "Booking confirmed")
	require.Contains(t, reply, "Haircut")
	require.Equal(t, 1, bookings.createCalls)
	require.Equal(t, models.StepCommitted, state.Step)
	require.NotNil(t, state.Commit)

	persisted, err := store.GetTurnStateData(conv.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted.Commit)
	require.Equal(t, "booking", persisted.Commit.Kind)

	// The marker must carry the id of a real stored appointment.
	require.NotEmpty(t, persisted.Commit.ExternalID)
	appt, err := store.GetAppointment(persisted.Commit.ExternalID)
	require.NoError(t, err)
	require.Equal(t, models.AppointmentStatusConfirmed, appt.Status)
	require.Equal(t, "Haircut", appt.ServiceName)
}

func TestCommitBookingReplayDoesNotDoubleCreate(t *testing.T) {
	_, bookings, coordinator, conv := newCommitFixture(t)

	first := readySchedulingState()
	firstReply, err := coordinator.CommitBooking(conv, &first)
	require.NoError(t, err)

	second := first
	secondReply, err := coordinator.CommitBooking(conv, &second)
	require.NoError(t, err)

	require.Equal(t, 1, bookings.createCalls)
	require.Equal(t, firstReply, secondReply)
}

func TestCommitBookingStaleSnapshotReplay(t *testing.T) {
	// A retried turn can arrive with a snapshot taken before the first
	// attempt persisted its marker; the persisted marker must still win.
	_, bookings, coordinator, conv := newCommitFixture(t)

	first := readySchedulingState()
	_, err := coordinator.CommitBooking(conv, &first)
	require.NoError(t, err)

	stale := readySchedulingState() // marker-free copy
	_, err = coordinator.CommitBooking(conv, &stale)
	require.NoError(t, err)

	require.Equal(t, 1, bookings.createCalls)
	require.NotNil(t, stale.Commit)
	require.Equal(t, first.Commit.ExternalID, stale.Commit.ExternalID)
}

func TestCommitBookingFailureKeepsMarkerUnset(t *testing.T) {
	store, bookings, coordinator, conv := newCommitFixture(t)
	bookings.failCreate = true

	state := readySchedulingState()
	reply, err := coordinator.CommitBooking(conv, &state)
	require.Error(t, err)
	require.Equal(t, StillProcessingReply, reply)
	require.Nil(t, state.Commit)

	persisted, err := store.GetTurnStateData(conv.ID)
	require.NoError(t, err)
	require.Nil(t, persisted.Commit)

	// The retry succeeds and creates exactly one appointment.
	bookings.failCreate = false
	reply, err = coordinator.CommitBooking(conv, &state)
	require.NoError(t, err)
	require.Contains(t, reply, "Booking confirmed")
	require.Equal(t, 2, bookings.createCalls)
}

func TestCommitCancellationCancelsOnce(t *testing.T) {
	store, bookings, coordinator, conv := newCommitFixture(t)

	appt, err := store.CreateAppointment(&models.Appointment{
		TenantID:      "tenant-1",
		CustomerPhone: conv.Phone,
		ServiceName:   "Haircut",
		StartsAt:      time.Date(2026, 9, 4, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	state := models.TurnStateData{
		ActiveSkill:  models.SkillCancellation,
		Step:         models.StepAwaitingRescheduleOffer,
		Cancellation: &models.CancellationSlots{AppointmentID: appt.ID},
	}

	reply, err := coordinator.CommitCancellation(conv, &state)
	require.NoError(t, err)
	require.Contains(t, reply, "canceled")
	require.Equal(t, 1, bookings.cancelCalls)

	// Replay with a fresh snapshot does not cancel again.
	again := models.TurnStateData{
		Cancellation: &models.CancellationSlots{AppointmentID: appt.ID},
	}
	replayReply, err := coordinator.CommitCancellation(conv, &again)
	require.NoError(t, err)
	require.Equal(t, reply, replayReply)
	require.Equal(t, 1, bookings.cancelCalls)

	stored, err := store.GetAppointment(appt.ID)
	require.NoError(t, err)
	require.Equal(t, models.AppointmentStatusCanceled, stored.Status)
}

func TestCommitCancellationMissingAppointment(t *testing.T) {
	_, _, coordinator, conv := newCommitFixture(t)

	state := models.TurnStateData{
		Cancellation: &models.CancellationSlots{AppointmentID: "nope"},
	}
	reply, err := coordinator.CommitCancellation(conv, &state)
	require.NoError(t, err)
	require.Contains(t, reply, "couldn't find")
}
