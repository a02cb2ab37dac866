package notify

import (
	"context"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// FakeSender records notifications for test assertions.
type FakeSender struct {
	// Sent contains every notification that was delivered.
	Sent []logic.Notification

	// Attempts counts Send calls, including failed ones.
	Attempts int

	// SendError, if set, will be returned by Send.
	SendError error
}

// NewFakeSender creates a FakeSender for testing.
func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

// Send records n.
func (f *FakeSender) Send(_ context.Context, n logic.Notification) error {
	f.Attempts++
	if f.SendError != nil {
		return f.SendError
	}
	f.Sent = append(f.Sent, n)
	return nil
}

// Reset clears recorded notifications.
func (f *FakeSender) Reset() {
	f.Sent = nil
	f.Attempts = 0
	f.SendError = nil
}
