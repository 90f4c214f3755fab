// Package payment abstracts the hosted-checkout provider. The broker only
// needs to create an intent and the fulfillment side only needs to read one
// back, so the rest of the system stays testable without network calls.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProviderName selects a checkout backend.
type ProviderName string

const (
	ProviderStripe ProviderName = "stripe"
	ProviderFake   ProviderName = "fake"
)

// Status is the provider-reported payment state of an intent.
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// Metadata travels with the intent to the provider and back, so fulfillment
// can act without re-querying the dialogue.
type Metadata map[string]string

// IntentRequest describes one checkout: quantity units of a single product
// at UnitPrice each.
type IntentRequest struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Currency    string
	Metadata    Metadata
	SuccessURL  string
	CancelURL   string
}

// Intent is a created or retrieved checkout session.
type Intent struct {
	ID       string
	URL      string
	Status   Status
	Amount   decimal.Decimal
	Currency string
	Metadata Metadata
}

// Provider is the common interface for all checkout providers.
type Provider interface {
	// CreateIntent opens a hosted checkout session and returns its id
	// and payment URL.
	CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error)

	// RetrieveIntent loads a session by id, including its payment status
	// and metadata.
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)

	// Close gracefully closes any connections.
	Close(ctx context.Context) error
}
