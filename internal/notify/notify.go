package notify

import (
	"fmt"
	"log"
	"strings"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	RunID   string // Optional planning run reference
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// LogNotifier writes notifications to the standard logger
type LogNotifier struct{}

func (LogNotifier) Send(n Notification) error {
	if n.RunID != "" {
		log.Printf("%s (run %s): %s", n.Title, n.RunID, n.Message)
		return nil
	}
	log.Printf("%s: %s", n.Title, n.Message)
	return nil
}

// ForRun summarizes the outcome of a planning run. Runs that dropped wells
// are warnings; failed runs are errors.
func ForRun(runID string, rows int, dropped []string, err error) Notification {
	switch {
	case err != nil:
		return Notification{
			Title:   "padsched: planning failed",
			Message: err.Error(),
			Type:    NotifyError,
		}
	case len(dropped) > 0:
		return Notification{
			Title:   "padsched: underresourced wells",
			Message: fmt.Sprintf("%d wells dropped: %s", len(dropped), strings.Join(dropped, ", ")),
			Type:    NotifyWarning,
			RunID:   runID,
		}
	default:
		return Notification{
			Title:   "padsched: schedule updated",
			Message: fmt.Sprintf("%d schedule rows", rows),
			Type:    NotifySuccess,
			RunID:   runID,
		}
	}
}
