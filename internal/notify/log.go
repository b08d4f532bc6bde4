package notify

import (
	"context"
	"log"
)

// LogNotifier implements Notifier by writing messages to the process log.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Publish(ctx context.Context, message string) error {
	log.Printf("📨 [rewards] %s", message)
	return nil
}
