// Package notify delivers notifications to the user, with abstraction for testing.
package notify

import (
	"context"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// Sender delivers a notification.
type Sender interface {
	// Send delivers n. Returns error if delivery fails (should not abort the run).
	Send(ctx context.Context, n logic.Notification) error
}
