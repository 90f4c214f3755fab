// Package notify delivers messages and ticket artifacts to purchasers.
package notify

import "context"

// Notifier is the narrow delivery surface the services depend on, so the
// core flows can be tested without the Telegram Bot API.
type Notifier interface {
	// SendText delivers a plain (Markdown-formatted) message.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendPhoto delivers a PNG with a caption, used for ticket QR codes.
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error

	// SendKeyboard delivers a message with inline buttons. Each button
	// reports Data back as a callback when tapped.
	SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]Button) error
}

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}
