package notify

import "context"

// Notifier publishes reward-event messages to an ops channel. The abstraction
// lets a real chat/webhook integration replace the log-backed one without
// touching the handlers.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}
