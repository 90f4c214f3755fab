package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"partyflow/internal/services/payment/stripe"
	"partyflow/internal/status"
)

var hundred = decimal.NewFromInt(100)

// stripeAdapter maps the generic Provider contract onto the Stripe
// Checkout client.
type stripeAdapter struct {
	client *stripe.Client
}

func newStripeAdapter(secretKey string) *stripeAdapter {
	return &stripeAdapter{client: stripe.New(secretKey)}
}

func (a *stripeAdapter) CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error) {
	session, err := a.client.CreateSession(ctx, &stripe.SessionRequest{
		ProductName: req.ProductName,
		UnitAmount:  req.UnitPrice.Mul(hundred).IntPart(),
		Quantity:    req.Quantity,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w (%w)", err, status.ErrUpstreamUnavailable)
	}
	return intentFromSession(session), nil
}

func (a *stripeAdapter) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	session, err := a.client.RetrieveSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve intent: %w (%w)", err, status.ErrUpstreamUnavailable)
	}
	return intentFromSession(session), nil
}

func (a *stripeAdapter) Close(ctx context.Context) error {
	return nil
}

func intentFromSession(s *stripe.Session) *Intent {
	st := StatusUnpaid
	if s.PaymentStatus == "paid" {
		st = StatusPaid
	}
	return &Intent{
		ID:       s.ID,
		URL:      s.URL,
		Status:   st,
		Amount:   decimal.New(s.AmountTotal, -2),
		Currency: s.Currency,
		Metadata: Metadata(s.Metadata),
	}
}
