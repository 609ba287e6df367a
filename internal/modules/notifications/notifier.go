// Package notifications provides the transient user-facing message shown after trades and launches.
package notifications

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/clock"
	"github.com/aristath/crapto/internal/events"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 5 * time.Second

// Severity classifies a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a message with a fixed lifetime
type Notification struct {
	ShownAt   time.Time `json:"shown_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// EventEmitter publishes notification events
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Notifier holds at most one visible notification. A new one replaces the current one.
type Notifier struct {
	mu      sync.Mutex
	current *Notification
	timer   clock.Timer
	seq     int64
	ttl     time.Duration
	clock   clock.Clock
	events  EventEmitter
	log     zerolog.Logger
}

// NewNotifier creates a notifier. A non-positive ttl uses DefaultTTL.
func NewNotifier(clk clock.Clock, ttl time.Duration, eventEmitter EventEmitter, log zerolog.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{
		ttl:    ttl,
		clock:  clk,
		events: eventEmitter,
		log:    log.With().Str("module", "notifications").Logger(),
	}
}

// Show replaces the active notification and schedules its clearing
func (n *Notifier) Show(message string, severity Severity) Notification {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	now := n.clock.Now()
	notification := Notification{
		ID:        strconv.FormatInt(n.seq, 10),
		Message:   message,
		Severity:  severity,
		ShownAt:   now,
		ExpiresAt: now.Add(n.ttl),
	}
	n.current = &notification
	id := notification.ID
	n.timer = n.clock.AfterFunc(n.ttl, func() { n.expire(id) })
	n.mu.Unlock()

	n.log.Debug().Str("severity", string(severity)).Str("message", message).Msg("Notification shown")

	if n.events != nil {
		n.events.EmitTyped("notifications", &events.NotificationData{
			ID:        notification.ID,
			Message:   notification.Message,
			Severity:  string(notification.Severity),
			ExpiresAt: notification.ExpiresAt.Format(time.RFC3339Nano),
		})
	}
	return notification
}

// Active returns the visible notification, if any
func (n *Notifier) Active() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil || !n.clock.Now().Before(n.current.ExpiresAt) {
		return Notification{}, false
	}
	return *n.current, true
}

// Clear removes the visible notification
func (n *Notifier) Clear() {
	n.mu.Lock()
	cleared := n.clearLocked()
	n.mu.Unlock()
	n.emitCleared(cleared)
}

// Sweep clears the notification if it has expired and reports whether it did
func (n *Notifier) Sweep() bool {
	n.mu.Lock()
	var cleared *Notification
	if n.current != nil && !n.clock.Now().Before(n.current.ExpiresAt) {
		cleared = n.clearLocked()
	}
	n.mu.Unlock()

	n.emitCleared(cleared)
	return cleared != nil
}

func (n *Notifier) expire(id string) {
	n.mu.Lock()
	var cleared *Notification
	if n.current != nil && n.current.ID == id {
		cleared = n.clearLocked()
	}
	n.mu.Unlock()
	n.emitCleared(cleared)
}

func (n *Notifier) clearLocked() *Notification {
	cleared := n.current
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	return cleared
}

func (n *Notifier) emitCleared(cleared *Notification) {
	if cleared == nil || n.events == nil {
		return
	}
	n.events.EmitTyped("notifications", &events.NotificationData{ID: cleared.ID, Cleared: true})
}
