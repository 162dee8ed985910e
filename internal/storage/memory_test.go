package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

func TestMemoryStoreConversationLifecycle(t *testing.T) {
	store := NewMemoryStore()

	conv, err := store.CreateConversation(&models.Conversation{
		TenantID: "tenant-1",
		Phone:    "+15551234567",
	})
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	require.Equal(t, models.ConversationStatusAI, conv.Status)

	found, err := store.GetOpenConversation("tenant-1", "+15551234567")
	require.NoError(t, err)
	require.Equal(t, conv.ID, found.ID)

	require.NoError(t, store.UpdateConversationStatus(conv.ID, models.ConversationStatusEnded))

	_, err = store.GetOpenConversation("tenant-1", "+15551234567")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTurnStateUpdateIsAtomic(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateTurnState("conv-1", func(d *models.TurnStateData) error {
				d.FailureCount++
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := store.GetTurnStateData("conv-1")
	require.NoError(t, err)
	require.Equal(t, 50, state.FailureCount)
}

func TestMemoryStoreReplyDedupGate(t *testing.T) {
	store := NewMemoryStore()

	ok, err := store.TryRegisterReply("conv-1", "See you soon!", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Same text inside the window is rejected.
	ok, err = store.TryRegisterReply("conv-1", "See you soon!", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// Different text passes and becomes the new fingerprint.
	ok, err = store.TryRegisterReply("conv-1", "Anything else?", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// The earlier text is no longer the last reply, so it passes again.
	ok, err = store.TryRegisterReply("conv-1", "See you soon!", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreReplyDedupWindowExpires(t *testing.T) {
	store := NewMemoryStore()

	ok, err := store.TryRegisterReply("conv-1", "Hello!", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = store.TryRegisterReply("conv-1", "Hello!", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreReplyDedupIsPerConversation(t *testing.T) {
	store := NewMemoryStore()

	ok, _ := store.TryRegisterReply("conv-1", "Welcome!", time.Minute)
	require.True(t, ok)
	ok, _ = store.TryRegisterReply("conv-2", "Welcome!", time.Minute)
	require.True(t, ok)
}

func TestReplyFingerprintIgnoresSurroundingWhitespace(t *testing.T) {
	require.Equal(t, ReplyFingerprint("hello"), ReplyFingerprint("  hello \n"))
	require.NotEqual(t, ReplyFingerprint("hello"), ReplyFingerprint("hello!"))
}

func TestMemoryStoreListIdleConversations(t *testing.T) {
	store := NewMemoryStore()

	idle, err := store.CreateConversation(&models.Conversation{TenantID: "t", Phone: "+1"})
	require.NoError(t, err)
	fresh, err := store.CreateConversation(&models.Conversation{TenantID: "t", Phone: "+2"})
	require.NoError(t, err)

	// Only the untouched conversation falls behind the cutoff.
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	require.NoError(t, store.TouchConversation(fresh.ID))

	got, err := store.ListIdleConversations(cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, idle.ID, got[0].ID)
}

func TestMemoryStoreAppointmentReminders(t *testing.T) {
	store := NewMemoryStore()

	soon, err := store.CreateAppointment(&models.Appointment{
		TenantID:      "t",
		CustomerPhone: "+1",
		ServiceName:   "Haircut",
		StartsAt:      time.Now().Add(3 * time.Hour),
	})
	require.NoError(t, err)

	_, err = store.CreateAppointment(&models.Appointment{
		TenantID:      "t",
		CustomerPhone: "+2",
		ServiceName:   "Manicure",
		StartsAt:      time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)

	due, err := store.ListAppointmentsNeedingReminder(24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, soon.ID, due[0].ID)

	require.NoError(t, store.MarkReminderSent(soon.ID))

	due, err = store.ListAppointmentsNeedingReminder(24 * time.Hour)
	require.NoError(t, err)
	require.Empty(t, due)
}
