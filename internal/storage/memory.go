package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

// MemoryStore holds all data in memory for tests and local development.
type MemoryStore struct {
	conversations map[string]*models.Conversation
	turnStates    map[string]*memoryTurnState
	messages      map[string][]*models.Message
	appointments  map[string]*models.Appointment
	catalogs      map[string]*models.Catalog

	// Mutexes for thread safety
	convMu  sync.RWMutex
	stateMu sync.Mutex
	msgMu   sync.RWMutex
	apptMu  sync.RWMutex
}

type memoryTurnState struct {
	data          models.TurnStateData
	lastReplyHash string
	lastReplyAt   time.Time
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		turnStates:    make(map[string]*memoryTurnState),
		messages:      make(map[string][]*models.Message),
		appointments:  make(map[string]*models.Appointment),
		catalogs:      make(map[string]*models.Catalog),
	}
}

// SeedCatalog installs a catalog snapshot for a tenant. Test/dev helper;
// catalog management is outside the conversational core.
func (m *MemoryStore) SeedCatalog(catalog *models.Catalog) {
	m.catalogs[catalog.TenantID] = catalog
}

// Conversation operations

func (m *MemoryStore) GetConversation(id string) (*models.Conversation, error) {
	m.convMu.RLock()
	defer m.convMu.RUnlock()

	conv, exists := m.conversations[id]
	if !exists {
		return nil, ErrNotFound
	}
	return conv, nil
}

func (m *MemoryStore) GetOpenConversation(tenantID, phone string) (*models.Conversation, error) {
	m.convMu.RLock()
	defer m.convMu.RUnlock()

	for _, conv := range m.conversations {
		if conv.TenantID == tenantID && conv.Phone == phone && conv.Status != models.ConversationStatusEnded {
			return conv, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateConversation(conv *models.Conversation) (*models.Conversation, error) {
	m.convMu.Lock()
	defer m.convMu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.Status == "" {
		conv.Status = models.ConversationStatusAI
	}
	now := time.Now()
	conv.LastActivityAt = now
	conv.CreatedAt = now
	conv.UpdatedAt = now

	m.conversations[conv.ID] = conv
	return conv, nil
}

func (m *MemoryStore) UpdateConversationStatus(id, status string) error {
	m.convMu.Lock()
	defer m.convMu.Unlock()

	conv, exists := m.conversations[id]
	if !exists {
		return ErrNotFound
	}
	conv.Status = status
	conv.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) TouchConversation(id string) error {
	m.convMu.Lock()
	defer m.convMu.Unlock()

	conv, exists := m.conversations[id]
	if !exists {
		return ErrNotFound
	}
	now := time.Now()
	conv.LastActivityAt = now
	conv.MessageCount++
	conv.UpdatedAt = now
	return nil
}

func (m *MemoryStore) ListConversations(tenantID string) ([]*models.Conversation, error) {
	m.convMu.RLock()
	defer m.convMu.RUnlock()

	var convs []*models.Conversation
	for _, conv := range m.conversations {
		if conv.TenantID == tenantID {
			convs = append(convs, conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastActivityAt.After(convs[j].LastActivityAt)
	})
	return convs, nil
}

func (m *MemoryStore) ListIdleConversations(before time.Time) ([]*models.Conversation, error) {
	m.convMu.RLock()
	defer m.convMu.RUnlock()

	var idle []*models.Conversation
	for _, conv := range m.conversations {
		if conv.Status != models.ConversationStatusEnded && conv.LastActivityAt.Before(before) {
			idle = append(idle, conv)
		}
	}
	return idle, nil
}

// Turn state operations

func (m *MemoryStore) GetTurnStateData(conversationID string) (*models.TurnStateData, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	st := m.turnStates[conversationID]
	if st == nil {
		st = &memoryTurnState{}
		m.turnStates[conversationID] = st
	}
	data := st.data
	return &data, nil
}

func (m *MemoryStore) UpdateTurnState(conversationID string, mutate func(*models.TurnStateData) error) (*models.TurnStateData, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	st := m.turnStates[conversationID]
	if st == nil {
		st = &memoryTurnState{}
		m.turnStates[conversationID] = st
	}

	data := st.data
	if err := mutate(&data); err != nil {
		return nil, err
	}
	st.data = data

	result := data
	return &result, nil
}

func (m *MemoryStore) TryRegisterReply(conversationID, candidate string, window time.Duration) (bool, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	st := m.turnStates[conversationID]
	if st == nil {
		st = &memoryTurnState{}
		m.turnStates[conversationID] = st
	}

	fingerprint := ReplyFingerprint(candidate)
	now := time.Now()

	if st.lastReplyHash == fingerprint && !st.lastReplyAt.IsZero() && now.Sub(st.lastReplyAt) < window {
		return false, nil
	}

	st.lastReplyHash = fingerprint
	st.lastReplyAt = now
	return true, nil
}

// Message log

func (m *MemoryStore) AppendMessage(msg *models.Message) (*models.Message, error) {
	m.msgMu.Lock()
	defer m.msgMu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], msg)
	return msg, nil
}

func (m *MemoryStore) ListRecentMessages(conversationID string, limit int) ([]*models.Message, error) {
	m.msgMu.RLock()
	defer m.msgMu.RUnlock()

	all := m.messages[conversationID]
	if limit <= 0 || limit >= len(all) {
		out := make([]*models.Message, len(all))
		copy(out, all)
		return out, nil
	}
	out := make([]*models.Message, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}

// Catalog operations

func (m *MemoryStore) GetCatalog(tenantID string) (*models.Catalog, error) {
	catalog, exists := m.catalogs[tenantID]
	if !exists {
		return nil, fmt.Errorf("catalog not found for tenant %s", tenantID)
	}
	return catalog, nil
}

// Appointment operations

func (m *MemoryStore) CreateAppointment(appt *models.Appointment) (*models.Appointment, error) {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentStatusConfirmed
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	m.appointments[appt.ID] = appt
	return appt, nil
}

func (m *MemoryStore) GetAppointment(id string) (*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	appt, exists := m.appointments[id]
	if !exists {
		return nil, ErrNotFound
	}
	return appt, nil
}

func (m *MemoryStore) CancelAppointment(id, tenantID, actor, reason string) (*models.Appointment, error) {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	appt, exists := m.appointments[id]
	if !exists || appt.TenantID != tenantID {
		return nil, nil
	}
	if appt.Status == models.AppointmentStatusCanceled {
		return appt, nil
	}

	now := time.Now()
	appt.Status = models.AppointmentStatusCanceled
	appt.CanceledBy = actor
	appt.CancelReason = reason
	appt.CanceledAt = &now
	appt.UpdatedAt = now
	return appt, nil
}

func (m *MemoryStore) FindUpcomingAppointment(tenantID, phone string) (*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	var next *models.Appointment
	now := time.Now()
	for _, appt := range m.appointments {
		if appt.TenantID != tenantID || appt.CustomerPhone != phone {
			continue
		}
		if appt.Status != models.AppointmentStatusConfirmed || appt.StartsAt.Before(now) {
			continue
		}
		if next == nil || appt.StartsAt.Before(next.StartsAt) {
			next = appt
		}
	}
	if next == nil {
		return nil, ErrNotFound
	}
	return next, nil
}

func (m *MemoryStore) ListAppointmentsNeedingReminder(within time.Duration) ([]*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	now := time.Now()
	cutoff := now.Add(within)

	var due []*models.Appointment
	for _, appt := range m.appointments {
		if appt.Status != models.AppointmentStatusConfirmed || appt.ReminderSentAt != nil {
			continue
		}
		if appt.StartsAt.After(now) && appt.StartsAt.Before(cutoff) {
			due = append(due, appt)
		}
	}
	return due, nil
}

func (m *MemoryStore) MarkReminderSent(id string) error {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	appt, exists := m.appointments[id]
	if !exists {
		return ErrNotFound
	}
	now := time.Now()
	appt.ReminderSentAt = &now
	appt.UpdatedAt = now
	return nil
}
