// Package dialogue runs the multi-step purchase conversation: which event,
// how many tickets, the buyer's name and phone number. State lives in a
// Store keyed by chat id so the flow survives process restarts.
package dialogue

import "time"

// State names the step the conversation is waiting on.
type State string

const (
	StateAwaitingQuantity State = "awaiting_quantity"
	StateAwaitingName     State = "awaiting_name"
	StateAwaitingPhone    State = "awaiting_phone"
)

// Session is one in-flight purchase conversation.
type Session struct {
	ChatID       int64     `json:"chat_id"`
	EventID      string    `json:"event_id"`
	State        State     `json:"state"`
	Quantity     int       `json:"quantity"`
	Name         string    `json:"name"`
	PhoneRetries int       `json:"phone_retries"`
	StartedAt    time.Time `json:"started_at"`
}
