// Package mqtt mirrors notifications and run outcomes to an MQTT broker,
// with abstraction for testing.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sweeney/rachio-notifier/internal/logic"
	"github.com/sweeney/rachio-notifier/internal/notify"
)

// TopicNotifications carries every notification sent to the user.
const TopicNotifications = "irrigation/rachio/notifications"

// TopicStatus carries the retained outcome of the latest invocation.
const TopicStatus = "irrigation/rachio/status"

// Publisher publishes to MQTT. It doubles as a notify.Sender.
type Publisher interface {
	notify.Sender

	// PublishOutcome sends the result of one invocation.
	PublishOutcome(event OutcomeEvent) error

	// Close disconnects from the broker.
	Close() error
}

// OutcomeEvent describes what a single invocation decided.
type OutcomeEvent struct {
	Timestamp    time.Time
	Outcome      logic.Outcome
	Mode         logic.OperatingMode
	NextRun      string
	ReminderSent bool
	Evaluation   *logic.Evaluation // nil when no run was evaluated
	Sent         int               // notifications delivered by the primary sender
}

// Payload is the envelope for all messages.
type Payload struct {
	Rachio RachioPayload `json:"rachio"`
}

// RachioPayload contains the event details. Fields not relevant to an event are omitted.
type RachioPayload struct {
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	Title        string `json:"title,omitempty"`
	Message      string `json:"message,omitempty"`
	Mode         string `json:"mode,omitempty"`
	NextRun      string `json:"next_run,omitempty"`
	NextRunLocal string `json:"next_run_local,omitempty"`
	Tomorrow     *bool  `json:"tomorrow,omitempty"`
	ReminderSent *bool  `json:"reminder_sent,omitempty"`
	Sent         *int   `json:"notifications_sent,omitempty"`
}

// FormatNotificationPayload creates the JSON payload for a notification.
func FormatNotificationPayload(n logic.Notification, ts time.Time) ([]byte, error) {
	return json.Marshal(Payload{
		Rachio: RachioPayload{
			Timestamp: ts.UTC().Format(time.RFC3339),
			Event:     string(n.Kind),
			Title:     n.Title,
			Message:   n.Message,
		},
	})
}

// FormatOutcomePayload creates the JSON payload for a run outcome.
func FormatOutcomePayload(event OutcomeEvent) ([]byte, error) {
	p := RachioPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Outcome),
		Mode:      string(event.Mode),
		NextRun:   event.NextRun,
		Sent:      &event.Sent,
	}
	if event.Evaluation != nil {
		p.NextRunLocal = event.Evaluation.RunAt.Format(time.RFC3339)
		p.Tomorrow = &event.Evaluation.Tomorrow
		p.ReminderSent = &event.ReminderSent
	}
	return json.Marshal(Payload{Rachio: p})
}

// sendTimeout bounds a publish by the caller's deadline when it is shorter.
func sendTimeout(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < fallback {
			return d
		}
	}
	return fallback
}
