package services

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultDebounceWindow groups quick message bursts from one customer into a
// single turn. Overridable via DEBOUNCE_WINDOW_MS.
const DefaultDebounceWindow = 6 * time.Second

// CoalesceResult is the outcome of submitting one inbound message.
// Exactly one submitter per burst (the window owner) resolves with
// Deferred=false and the merged text; everyone else resolves immediately
// with Deferred=true.
type CoalesceResult struct {
	Deferred   bool
	MergedText string
}

type coalesceEntry struct {
	texts []string
	timer *time.Timer
	done  chan string
	fired bool
}

// Coalescer merges message bursts per conversation id. The registry entry is
// the per-conversation mutual-exclusion point: while a window is open, all
// later submissions feed the owner's buffer, which keeps per-conversation
// turn processing logically sequential even under concurrent delivery.
// Process-local by design; a multi-instance deployment needs sticky routing
// of conversations to one instance.
type Coalescer struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*coalesceEntry
}

// NewCoalescer creates a coalescer with the window from the environment, or
// the default when unset.
func NewCoalescer() *Coalescer {
	window := DefaultDebounceWindow
	if raw := os.Getenv("DEBOUNCE_WINDOW_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			log.Printf("Invalid DEBOUNCE_WINDOW_MS %q, using default %v", raw, DefaultDebounceWindow)
		} else {
			window = time.Duration(ms) * time.Millisecond
		}
	}
	return NewCoalescerWithWindow(window)
}

// NewCoalescerWithWindow creates a coalescer with an explicit window.
func NewCoalescerWithWindow(window time.Duration) *Coalescer {
	return &Coalescer{
		window:  window,
		entries: make(map[string]*coalesceEntry),
	}
}

// Submit registers one inbound message. The first caller for a conversation
// becomes the window owner and blocks until the window closes, receiving the
// buffer joined in arrival order; later callers append, re-arm the timer and
// return deferred right away. When the timer fires the entry is deleted so
// the next message starts a fresh turn.
func (c *Coalescer) Submit(conversationID, text string) CoalesceResult {
	c.mu.Lock()

	if entry, open := c.entries[conversationID]; open {
		entry.texts = append(entry.texts, text)
		entry.timer.Reset(c.window)
		c.mu.Unlock()
		return CoalesceResult{Deferred: true}
	}

	entry := &coalesceEntry{
		texts: []string{text},
		done:  make(chan string, 1),
	}
	entry.timer = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		if entry.fired {
			// A Reset raced with an earlier firing of this timer; that
			// firing already delivered the buffer.
			c.mu.Unlock()
			return
		}
		entry.fired = true
		merged := strings.TrimSpace(strings.Join(entry.texts, " "))
		// Delete only our own registry entry; a later burst may have
		// opened a fresh one under the same conversation id.
		if c.entries[conversationID] == entry {
			delete(c.entries, conversationID)
		}
		c.mu.Unlock()
		entry.done <- merged
	})
	c.entries[conversationID] = entry
	c.mu.Unlock()

	return CoalesceResult{MergedText: <-entry.done}
}
