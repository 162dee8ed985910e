package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// DatabaseStore implements Store on top of PostgreSQL via GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// conditionalWriteRetries bounds the optimistic-version retry loop for turn
// state updates before surfacing ErrConflict.
const conditionalWriteRetries = 5

// Conversation operations

func (d *DatabaseStore) GetConversation(id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (d *DatabaseStore) GetOpenConversation(tenantID, phone string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.
		Where("tenant_id = ? AND phone = ? AND status <> ?", tenantID, phone, models.ConversationStatusEnded).
		Order("last_activity_at DESC").
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (d *DatabaseStore) CreateConversation(conv *models.Conversation) (*models.Conversation, error) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.Status == "" {
		conv.Status = models.ConversationStatusAI
	}
	conv.LastActivityAt = time.Now()
	if err := d.db.Create(conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (d *DatabaseStore) UpdateConversationStatus(id, status string) error {
	result := d.db.Model(&models.Conversation{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) TouchConversation(id string) error {
	result := d.db.Model(&models.Conversation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_activity_at": time.Now(),
		"message_count":    gorm.Expr("message_count + 1"),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ListConversations(tenantID string) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	err := d.db.Where("tenant_id = ?", tenantID).Order("last_activity_at DESC").Find(&convs).Error
	return convs, err
}

func (d *DatabaseStore) ListIdleConversations(before time.Time) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	err := d.db.
		Where("status <> ? AND last_activity_at < ?", models.ConversationStatusEnded, before).
		Find(&convs).Error
	return convs, err
}

// Turn state operations

func (d *DatabaseStore) loadOrCreateTurnState(conversationID string) (*models.TurnState, error) {
	var state models.TurnState
	err := d.db.First(&state, "conversation_id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.TurnState{ConversationID: conversationID, State: "{}"}
		// Another writer may create the row first; re-read on conflict.
		if createErr := d.db.Create(&state).Error; createErr != nil {
			if readErr := d.db.First(&state, "conversation_id = ?", conversationID).Error; readErr != nil {
				return nil, createErr
			}
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func decodeTurnState(raw string) (*models.TurnStateData, error) {
	data := &models.TurnStateData{}
	if strings.TrimSpace(raw) == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(raw), data); err != nil {
		return nil, fmt.Errorf("decode turn state: %w", err)
	}
	return data, nil
}

func (d *DatabaseStore) GetTurnStateData(conversationID string) (*models.TurnStateData, error) {
	state, err := d.loadOrCreateTurnState(conversationID)
	if err != nil {
		return nil, err
	}
	return decodeTurnState(state.State)
}

func (d *DatabaseStore) UpdateTurnState(conversationID string, mutate func(*models.TurnStateData) error) (*models.TurnStateData, error) {
	for attempt := 0; attempt < conditionalWriteRetries; attempt++ {
		state, err := d.loadOrCreateTurnState(conversationID)
		if err != nil {
			return nil, err
		}

		data, err := decodeTurnState(state.State)
		if err != nil {
			return nil, err
		}
		if err := mutate(data); err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode turn state: %w", err)
		}

		// Single conditional write: the version predicate makes the
		// read-mutate-write atomic with respect to concurrent updaters.
		result := d.db.Model(&models.TurnState{}).
			Where("conversation_id = ? AND version = ?", conversationID, state.Version).
			Updates(map[string]interface{}{
				"state":   string(encoded),
				"version": state.Version + 1,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			return data, nil
		}
		// Lost the race; reload and re-apply.
	}
	return nil, ErrConflict
}

func (d *DatabaseStore) TryRegisterReply(conversationID, candidate string, window time.Duration) (bool, error) {
	fingerprint := ReplyFingerprint(candidate)

	for attempt := 0; attempt < conditionalWriteRetries; attempt++ {
		state, err := d.loadOrCreateTurnState(conversationID)
		if err != nil {
			return false, err
		}

		now := time.Now()
		if state.LastReplyHash == fingerprint && state.LastReplyAt != nil && now.Sub(*state.LastReplyAt) < window {
			return false, nil
		}

		result := d.db.Model(&models.TurnState{}).
			Where("conversation_id = ? AND version = ?", conversationID, state.Version).
			Updates(map[string]interface{}{
				"last_reply_hash": fingerprint,
				"last_reply_at":   now,
				"version":         state.Version + 1,
			})
		if result.Error != nil {
			return false, result.Error
		}
		if result.RowsAffected == 1 {
			return true, nil
		}
		// A concurrent attempt advanced the version; re-check against the
		// fresh row so a duplicate that just registered is rejected.
	}
	return false, ErrConflict
}

// Message log

func (d *DatabaseStore) AppendMessage(msg *models.Message) (*models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := d.db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

func (d *DatabaseStore) ListRecentMessages(conversationID string, limit int) ([]*models.Message, error) {
	var msgs []*models.Message
	q := d.db.Where("conversation_id = ?", conversationID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Catalog operations

func (d *DatabaseStore) GetCatalog(tenantID string) (*models.Catalog, error) {
	catalog := &models.Catalog{TenantID: tenantID}

	if err := d.db.Where("tenant_id = ? AND active = ?", tenantID, true).Find(&catalog.Services).Error; err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	if err := d.db.Where("tenant_id = ? AND active = ?", tenantID, true).Find(&catalog.Professionals).Error; err != nil {
		return nil, fmt.Errorf("load professionals: %w", err)
	}
	if err := d.db.Where("tenant_id = ?", tenantID).Find(&catalog.Products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if err := d.db.Where("tenant_id = ? AND active = ?", tenantID, true).Find(&catalog.Packages).Error; err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	catalog.SalonName = envOrDefault("SALON_NAME", "Beauty Manager")
	catalog.BusinessHours = envOrDefault("SALON_HOURS", "Tue-Sat 9:00-19:00")
	return catalog, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Appointment operations

func (d *DatabaseStore) CreateAppointment(appt *models.Appointment) (*models.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentStatusConfirmed
	}
	if err := d.db.Create(appt).Error; err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return appt, nil
}

func (d *DatabaseStore) GetAppointment(id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := d.db.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (d *DatabaseStore) CancelAppointment(id, tenantID, actor, reason string) (*models.Appointment, error) {
	var appt models.Appointment
	err := d.db.First(&appt, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if appt.Status == models.AppointmentStatusCanceled {
		return &appt, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.AppointmentStatusCanceled,
		"canceled_by":   actor,
		"cancel_reason": reason,
		"canceled_at":   now,
	}
	if err := d.db.Model(&appt).Updates(updates).Error; err != nil {
		return nil, err
	}
	appt.Status = models.AppointmentStatusCanceled
	appt.CanceledBy = actor
	appt.CancelReason = reason
	appt.CanceledAt = &now
	return &appt, nil
}

func (d *DatabaseStore) FindUpcomingAppointment(tenantID, phone string) (*models.Appointment, error) {
	var appt models.Appointment
	err := d.db.
		Where("tenant_id = ? AND customer_phone = ? AND status = ? AND starts_at > ?",
			tenantID, phone, models.AppointmentStatusConfirmed, time.Now()).
		Order("starts_at ASC").
		First(&appt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (d *DatabaseStore) ListAppointmentsNeedingReminder(within time.Duration) ([]*models.Appointment, error) {
	now := time.Now()
	var appts []*models.Appointment
	err := d.db.
		Where("status = ? AND reminder_sent_at IS NULL AND starts_at > ? AND starts_at < ?",
			models.AppointmentStatusConfirmed, now, now.Add(within)).
		Find(&appts).Error
	return appts, err
}

func (d *DatabaseStore) MarkReminderSent(id string) error {
	result := d.db.Model(&models.Appointment{}).Where("id = ?", id).Update("reminder_sent_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
