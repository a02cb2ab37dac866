package mqtt

import (
	"context"
	"time"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Notifications contains all notifications that were published.
	Notifications []logic.Notification

	// Outcomes contains all outcome events that were published.
	Outcomes []OutcomeEvent

	// Payloads contains the JSON payloads that were published, in order.
	Payloads [][]byte

	// SendError, if set, will be returned by Send.
	SendError error

	// PublishOutcomeError, if set, will be returned by PublishOutcome.
	PublishOutcomeError error

	// Closed tracks if Close was called.
	Closed bool

	// Now stamps notification payloads; defaults to time.Now.
	Now func() time.Time
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Send records the notification.
func (f *FakePublisher) Send(_ context.Context, n logic.Notification) error {
	if f.SendError != nil {
		return f.SendError
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	payload, err := FormatNotificationPayload(n, now())
	if err != nil {
		return err
	}
	f.Notifications = append(f.Notifications, n)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishOutcome records the outcome event.
func (f *FakePublisher) PublishOutcome(event OutcomeEvent) error {
	if f.PublishOutcomeError != nil {
		return f.PublishOutcomeError
	}

	payload, err := FormatOutcomePayload(event)
	if err != nil {
		return err
	}
	f.Outcomes = append(f.Outcomes, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Notifications = nil
	f.Outcomes = nil
	f.Payloads = nil
	f.SendError = nil
	f.PublishOutcomeError = nil
	f.Closed = false
}
