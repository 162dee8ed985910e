package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
)

var (
	storeInstance Store
	storeOnce     sync.Once
)

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a conditional write loses the version race
// too many times in a row.
var ErrConflict = errors.New("concurrent update conflict")

// Store defines the interface for storage operations
type Store interface {
	// Conversation operations
	GetConversation(id string) (*models.Conversation, error)
	GetOpenConversation(tenantID, phone string) (*models.Conversation, error)
	CreateConversation(conv *models.Conversation) (*models.Conversation, error)
	UpdateConversationStatus(id, status string) error
	TouchConversation(id string) error
	ListConversations(tenantID string) ([]*models.Conversation, error)
	ListIdleConversations(before time.Time) ([]*models.Conversation, error)

	// Turn state operations. UpdateTurnState runs mutate against the current
	// document and persists it with a single conditional write (version
	// check); two overlapping turn-processing attempts can never both apply
	// against the same stale copy.
	GetTurnStateData(conversationID string) (*models.TurnStateData, error)
	UpdateTurnState(conversationID string, mutate func(*models.TurnStateData) error) (*models.TurnStateData, error)

	// TryRegisterReply is the reply dedup gate: it fails when candidate has
	// the same fingerprint as the last registered reply within window, and
	// otherwise atomically records the new fingerprint and succeeds.
	TryRegisterReply(conversationID, candidate string, window time.Duration) (bool, error)

	// Message log (append-only)
	AppendMessage(msg *models.Message) (*models.Message, error)
	ListRecentMessages(conversationID string, limit int) ([]*models.Message, error)

	// Catalog operations (read-only snapshot for the flows)
	GetCatalog(tenantID string) (*models.Catalog, error)

	// Appointment operations
	CreateAppointment(appt *models.Appointment) (*models.Appointment, error)
	GetAppointment(id string) (*models.Appointment, error)
	CancelAppointment(id, tenantID, actor, reason string) (*models.Appointment, error)
	FindUpcomingAppointment(tenantID, phone string) (*models.Appointment, error)
	ListAppointmentsNeedingReminder(within time.Duration) ([]*models.Appointment, error)
	MarkReminderSent(id string) error
}

// ReplyFingerprint computes the dedup fingerprint of an outbound reply.
func ReplyFingerprint(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
