package status

import "errors"

var (
	// ErrNotFound is returned when an event is missing or archived.
	ErrNotFound = errors.New("event not found")

	// ErrOversold is returned when a reservation or issuance would exceed
	// the event capacity. It must reach the user as a distinct message.
	ErrOversold = errors.New("not enough tickets left")

	// ErrInvalidPhone is recoverable: the dialogue re-prompts.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrSessionExpired is returned when a dialogue step fires without a
	// stored session for the purchaser.
	ErrSessionExpired = errors.New("purchase session expired")

	// ErrPaymentNotConfirmed is returned when fulfillment runs on an
	// intent whose provider status is anything but paid.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")

	// ErrAlreadyFulfilled guards checkout intents against replay.
	ErrAlreadyFulfilled = errors.New("checkout intent already fulfilled")

	// ErrUpstreamUnavailable wraps collaborator transport failures.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
