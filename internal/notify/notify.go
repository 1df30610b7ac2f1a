// Package notify delivers monitor messages to the configured Telegram chat.
package notify

import "context"

// Notifier sends a plain text message to the configured destination.
// Delivery failure is returned for the caller to log; it must never be fatal.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
