// Package notify is the toast surface surrounding pages use to report
// simulated outcomes and rejected edits.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/acso/flowcanvas/internal/streaming"
	"github.com/acso/flowcanvas/pkg/schema"
)

// Severity grades a toast.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Show(message string, severity Severity)
}

// Toast is a recorded notification.
type Toast struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}

// MemoryNotifier records toasts in memory. Safe for concurrent use.
type MemoryNotifier struct {
	mu     sync.Mutex
	toasts []Toast
}

// NewMemoryNotifier creates an empty MemoryNotifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Show records the toast.
func (n *MemoryNotifier) Show(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, Toast{Message: message, Severity: severity, Time: time.Now().UTC()})
}

// Toasts returns a copy of everything shown so far.
func (n *MemoryNotifier) Toasts() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// HubNotifier forwards toasts onto the event hub so live subscribers see
// them alongside run events.
type HubNotifier struct {
	hub streaming.EventHub
}

// NewHubNotifier creates a HubNotifier.
func NewHubNotifier(hub streaming.EventHub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// Show publishes the toast as a notification_sent event. Delivery is
// best-effort; a full hub drops for slow subscribers.
func (n *HubNotifier) Show(message string, severity Severity) {
	_ = n.hub.Publish(context.Background(), streaming.StreamEvent{
		EventType: schema.EventNotificationSent,
		Payload:   Toast{Message: message, Severity: severity, Time: time.Now().UTC()},
	})
}
