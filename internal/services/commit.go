package services

import (
	"fmt"
	"log"
	"time"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"
)

// Bookings is the external booking mutation collaborator. Create either
// fully succeeds (returns a record with an id) or fully fails; Cancel
// returns nil when the appointment does not exist. The coordinator
// guarantees each is called at most once per committed attempt.
type Bookings interface {
	Create(tenantID string, appt *models.Appointment) (*models.Appointment, error)
	Cancel(id, tenantID, actor, reason string) (*models.Appointment, error)
}

// BookingLinker builds the customer-facing confirmation link for an
// appointment. External collaborator; deterministic.
type BookingLinker interface {
	Link(tenantID, appointmentID string) string
}

// StoreBookings implements Bookings on the persistence collaborator.
type StoreBookings struct {
	store storage.Store
}

// NewStoreBookings creates the store-backed booking collaborator.
func NewStoreBookings(store storage.Store) *StoreBookings {
	return &StoreBookings{store: store}
}

func (b *StoreBookings) Create(tenantID string, appt *models.Appointment) (*models.Appointment, error) {
	appt.TenantID = tenantID
	return b.store.CreateAppointment(appt)
}

func (b *StoreBookings) Cancel(id, tenantID, actor, reason string) (*models.Appointment, error) {
	return b.store.CancelAppointment(id, tenantID, actor, reason)
}

// StillProcessingReply is the non-committal message for a failed commit:
// success text must never be produced without persisted proof.
const StillProcessingReply = "I'm still processing your request — give me just a moment and I'll confirm everything. ⏳"

// CommitCoordinator turns an FSM "ready" signal into an idempotent external
// mutation plus a guaranteed confirmation artifact.
type CommitCoordinator struct {
	store    storage.Store
	bookings Bookings
	linker   BookingLinker
}

// NewCommitCoordinator creates a commit coordinator.
func NewCommitCoordinator(store storage.Store, bookings Bookings, linker BookingLinker) *CommitCoordinator {
	return &CommitCoordinator{store: store, bookings: bookings, linker: linker}
}

// CommitBooking performs the at-most-once booking creation for a scheduling
// flow that reached ready_to_commit:
//   - commit marker already set → skip the mutation, regenerate only the
//     confirmation artifact (idempotent replay);
//   - otherwise exactly one Create call;
//   - on success the marker and external id are persisted atomically BEFORE
//     the success text is composed;
//   - on failure the marker stays unset and the caller receives the
//     non-committal reply plus the error for escalation accounting.
func (c *CommitCoordinator) CommitBooking(conv *models.Conversation, state *models.TurnStateData) (string, error) {
	// The marker check reads persisted state, not the caller's copy: a
	// retried turn may arrive with a stale snapshot taken before the first
	// attempt finished persisting.
	if persisted, err := c.store.GetTurnStateData(conv.ID); err == nil && persisted.Commit != nil && persisted.Commit.Kind == "booking" {
		state.Commit = persisted.Commit
		state.Step = models.StepCommitted
		log.Printf("Commit replay for conversation %s, appointment %s", conv.ID, persisted.Commit.ExternalID)
		return c.bookingConfirmation(conv.TenantID, persisted.Commit.ExternalID)
	}
	if state.Commit != nil && state.Commit.Kind == "booking" {
		return c.bookingConfirmation(conv.TenantID, state.Commit.ExternalID)
	}

	slots := state.Scheduling
	if slots == nil || slots.ServiceName == "" || slots.Date == "" || slots.Time == "" {
		return "", fmt.Errorf("commit booking: incomplete slots for conversation %s", conv.ID)
	}

	startsAt, err := combineDateTime(slots.Date, slots.Time, time.Local)
	if err != nil {
		return "", fmt.Errorf("commit booking: bad date/time %q %q: %w", slots.Date, slots.Time, err)
	}

	appt, err := c.bookings.Create(conv.TenantID, &models.Appointment{
		ConversationID:   conv.ID,
		CustomerPhone:    conv.Phone,
		CustomerName:     conv.DisplayName,
		ServiceID:        slots.ServiceID,
		ServiceName:      slots.ServiceName,
		ProfessionalID:   slots.ProfessionalID,
		ProfessionalName: slots.ProfessionalName,
		StartsAt:         startsAt,
	})
	if err != nil {
		return StillProcessingReply, fmt.Errorf("commit booking: %w", err)
	}

	// Persist the proof before any success text exists.
	marker := &models.CommitMarker{Kind: "booking", ExternalID: appt.ID, At: time.Now()}
	if _, err := c.store.UpdateTurnState(conv.ID, func(d *models.TurnStateData) error {
		if d.Commit != nil && d.Commit.Kind == "booking" {
			// A concurrent attempt won; keep its marker.
			marker = d.Commit
			return nil
		}
		d.Commit = marker
		d.Step = models.StepCommitted
		return nil
	}); err != nil {
		return StillProcessingReply, fmt.Errorf("commit booking: persist marker: %w", err)
	}

	state.Commit = marker
	state.Step = models.StepCommitted
	return c.bookingConfirmation(conv.TenantID, marker.ExternalID)
}

// bookingConfirmation regenerates the confirmation artifact from the
// persisted appointment record. Structurally identical on every replay.
func (c *CommitCoordinator) bookingConfirmation(tenantID, appointmentID string) (string, error) {
	appt, err := c.store.GetAppointment(appointmentID)
	if err != nil {
		return StillProcessingReply, fmt.Errorf("confirmation for %s: %w", appointmentID, err)
	}

	pro := appt.ProfessionalName
	if pro == "" {
		pro = "our first available professional"
	}

	return fmt.Sprintf(`🎉 *Booking confirmed!*

💇 *Service:* %s
📅 *When:* %s at %s
👤 *With:* %s
🔖 *Booking ref:* %s

Manage your booking here: %s

See you soon! ✨`,
		appt.ServiceName,
		friendlyDate(appt.StartsAt.Format("2006-01-02")),
		appt.StartsAt.Format("3:04 PM"),
		pro,
		appt.ID,
		c.linker.Link(tenantID, appt.ID)), nil
}

// CommitCancellation performs the at-most-once cancellation, with the same
// marker discipline as CommitBooking.
func (c *CommitCoordinator) CommitCancellation(conv *models.Conversation, state *models.TurnStateData) (string, error) {
	if persisted, err := c.store.GetTurnStateData(conv.ID); err == nil && persisted.Commit != nil && persisted.Commit.Kind == "cancellation" {
		state.Commit = persisted.Commit
		log.Printf("Cancel replay for conversation %s, appointment %s", conv.ID, persisted.Commit.ExternalID)
		return c.cancellationConfirmation(persisted.Commit.ExternalID)
	}
	if state.Commit != nil && state.Commit.Kind == "cancellation" {
		return c.cancellationConfirmation(state.Commit.ExternalID)
	}

	slots := state.Cancellation
	if slots == nil || slots.AppointmentID == "" {
		return "", fmt.Errorf("commit cancel: no appointment selected for conversation %s", conv.ID)
	}

	appt, err := c.bookings.Cancel(slots.AppointmentID, conv.TenantID, "customer", "canceled via assistant")
	if err != nil {
		return StillProcessingReply, fmt.Errorf("commit cancel: %w", err)
	}
	if appt == nil {
		return "I couldn't find that appointment anymore — it may already be canceled. Our team can double-check for you.", nil
	}

	marker := &models.CommitMarker{Kind: "cancellation", ExternalID: appt.ID, At: time.Now()}
	if _, err := c.store.UpdateTurnState(conv.ID, func(d *models.TurnStateData) error {
		if d.Commit != nil && d.Commit.Kind == "cancellation" {
			marker = d.Commit
			return nil
		}
		d.Commit = marker
		return nil
	}); err != nil {
		return StillProcessingReply, fmt.Errorf("commit cancel: persist marker: %w", err)
	}

	state.Commit = marker
	return c.cancellationConfirmation(marker.ExternalID)
}

func (c *CommitCoordinator) cancellationConfirmation(appointmentID string) (string, error) {
	appt, err := c.store.GetAppointment(appointmentID)
	if err != nil {
		return StillProcessingReply, fmt.Errorf("cancel confirmation for %s: %w", appointmentID, err)
	}

	return fmt.Sprintf(`✅ Your *%s* on %s has been canceled.

Would you like us to let you know when a good slot opens up — here on WhatsApp, or by phone?`,
		appt.ServiceName, friendlyDate(appt.StartsAt.Format("2006-01-02"))), nil
}

// URLBookingLinker builds booking-management links from a base URL.
type URLBookingLinker struct {
	baseURL string
}

// NewURLBookingLinker creates the link generator from BOOKING_LINK_BASE_URL
// or a sensible default.
func NewURLBookingLinker(baseURL string) *URLBookingLinker {
	if baseURL == "" {
		baseURL = "https://book.beauty-manager.app"
	}
	return &URLBookingLinker{baseURL: baseURL}
}

func (l *URLBookingLinker) Link(tenantID, appointmentID string) string {
	return fmt.Sprintf("%s/%s/appointments/%s", l.baseURL, tenantID, appointmentID)
}
