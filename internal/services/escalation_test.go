package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

func TestRecordFailureFirstFailureApologizes(t *testing.T) {
	state := models.TurnStateData{}
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	dec := RecordFailure(&state, now)
	require.Equal(t, FallbackApology, dec.Reply)
	require.True(t, dec.ShouldSend)
	require.False(t, dec.Handoff)
	require.Equal(t, 1, state.FailureCount)
}

func TestRecordFailureSecondConsecutiveFailureHandsOff(t *testing.T) {
	state := models.TurnStateData{}
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	RecordFailure(&state, now)
	dec := RecordFailure(&state, now.Add(5*time.Second))

	require.True(t, dec.Handoff)
	require.True(t, dec.ShouldSend)
	require.Equal(t, HandoffNotice, dec.Reply)
	require.True(t, state.HandoffNotified)
	require.Zero(t, state.FailureCount)
}

func TestRecordFailureHandoffNoticeSentOnlyOnce(t *testing.T) {
	state := models.TurnStateData{HandoffNotified: true}
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	RecordFailure(&state, now)
	dec := RecordFailure(&state, now.Add(5*time.Second))

	require.True(t, dec.Handoff)
	require.False(t, dec.ShouldSend)
	require.Empty(t, dec.Reply)
}

func TestRecordFailureApologyCooldownSuppressesRepeat(t *testing.T) {
	state := models.TurnStateData{}
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	RecordFailure(&state, now)
	// Success in between resets the counter but the apology timestamp
	// stays, keeping the cooldown active.
	RecordSuccess(&state)
	require.Zero(t, state.FailureCount)

	dec := RecordFailure(&state, now.Add(10*time.Second))
	require.False(t, dec.ShouldSend)
	require.Empty(t, dec.Reply)
}

func TestRecordFailureApologizesAgainAfterCooldown(t *testing.T) {
	state := models.TurnStateData{}
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	RecordFailure(&state, now)
	RecordSuccess(&state)

	dec := RecordFailure(&state, now.Add(ApologyCooldown+time.Second))
	require.True(t, dec.ShouldSend)
	require.Equal(t, FallbackApology, dec.Reply)
}

func TestRecordSuccessResetsCounter(t *testing.T) {
	state := models.TurnStateData{FailureCount: 1}
	RecordSuccess(&state)
	require.Zero(t, state.FailureCount)
}
