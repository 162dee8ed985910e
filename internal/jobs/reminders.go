package jobs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/services"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"
)

// ReminderHorizon is how far ahead the reminder scan looks.
const ReminderHorizon = 24 * time.Hour

// DefaultIdleWindow is how long a conversation may sit without activity
// before the sweep marks it ended. Overridable via CONVERSATION_IDLE_HOURS.
const DefaultIdleWindow = 24 * time.Hour

// Scheduler runs the periodic background work: appointment reminders and
// the idle-conversation sweep.
type Scheduler struct {
	store      storage.Store
	transport  services.Transport
	cron       *cron.Cron
	idleWindow time.Duration
}

// NewScheduler creates the background job scheduler.
func NewScheduler(store storage.Store, transport services.Transport) *Scheduler {
	idleWindow := DefaultIdleWindow
	if raw := os.Getenv("CONVERSATION_IDLE_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			log.Printf("Invalid CONVERSATION_IDLE_HOURS %q, using default %v", raw, DefaultIdleWindow)
		} else {
			idleWindow = time.Duration(hours) * time.Hour
		}
	}
	return &Scheduler{
		store:      store,
		transport:  transport,
		cron:       cron.New(),
		idleWindow: idleWindow,
	}
}

// Start registers and launches the scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/15 * * * *", s.SendAppointmentReminders); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	if _, err := s.cron.AddFunc("@hourly", s.SweepIdleConversations); err != nil {
		return fmt.Errorf("schedule idle sweep: %w", err)
	}
	s.cron.Start()
	log.Println("⏰ Scheduled jobs started (reminders every 15m, idle sweep hourly)")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("⏹️  Scheduled jobs stopped")
}

// SendAppointmentReminders messages customers whose appointments start
// within the horizon. The sent marker is persisted before the send, so a
// crash mid-batch never double-reminds.
func (s *Scheduler) SendAppointmentReminders() {
	appointments, err := s.store.ListAppointmentsNeedingReminder(ReminderHorizon)
	if err != nil {
		log.Printf("❌ Reminder scan failed: %v", err)
		return
	}
	if len(appointments) == 0 {
		return
	}
	log.Printf("⏰ Sending %d appointment reminder(s)", len(appointments))

	for _, appt := range appointments {
		if err := s.store.MarkReminderSent(appt.ID); err != nil {
			log.Printf("❌ Mark reminder sent for %s: %v", appt.ID, err)
			continue
		}

		body := fmt.Sprintf(`⏰ *Appointment reminder*

Hi%s! Just a reminder: your *%s* is tomorrow, %s at %s.

See you there! ✨`,
			firstNamePrefix(appt.CustomerName),
			appt.ServiceName,
			appt.StartsAt.Format("Monday, Jan 2"),
			appt.StartsAt.Format("3:04 PM"))

		if s.transport == nil {
			log.Printf("📤 Reminder (transport not configured) for %s", appt.ID)
			continue
		}
		if err := s.transport.SendText(appt.CustomerPhone, body); err != nil {
			log.Printf("❌ Send reminder for %s: %v", appt.ID, err)
		}
	}
}

// SweepIdleConversations ends conversations with no activity inside the
// idle window. Ended conversations restart with fresh state on the
// customer's next message.
func (s *Scheduler) SweepIdleConversations() {
	cutoff := time.Now().Add(-s.idleWindow)
	conversations, err := s.store.ListIdleConversations(cutoff)
	if err != nil {
		log.Printf("❌ Idle sweep failed: %v", err)
		return
	}

	for _, conv := range conversations {
		if err := s.store.UpdateConversationStatus(conv.ID, models.ConversationStatusEnded); err != nil {
			log.Printf("❌ End idle conversation %s: %v", conv.ID, err)
			continue
		}
		log.Printf("💤 Ended idle conversation %s (last activity %s)", conv.ID, conv.LastActivityAt.Format(time.RFC3339))
	}
}

func firstNamePrefix(name string) string {
	if name == "" {
		return ""
	}
	for i, r := range name {
		if r == ' ' {
			return " " + name[:i]
		}
	}
	return " " + name
}
