package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"partyflow/config"
	"partyflow/internal/ledger"
	"partyflow/internal/services/payment"
	"partyflow/monitoring"
)

// Metadata keys attached to every checkout session so fulfillment can
// reconstruct the purchase without any local state.
const (
	metaEventID  = "event_id"
	metaUserID   = "user_id"
	metaUserName = "user_name"
	metaPhone    = "phone_number"
	metaQuantity = "quantity"
)

// CheckoutService opens hosted payment sessions for completed purchase
// dialogues. Inventory is checked optimistically here and re-checked at
// issuance, nothing is held between the two.
type CheckoutService struct {
	ledger   *ledger.Service
	provider payment.Provider
	cfg      *config.Config
}

func NewCheckoutService(ledgerService *ledger.Service, provider payment.Provider, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		ledger:   ledgerService,
		provider: provider,
		cfg:      cfg,
	}
}

// BeginCheckout is everything the dialogue collected.
type BeginCheckout struct {
	EventID  string
	ChatID   int64
	UserName string
	Phone    string
	Quantity int
}

// Begin validates availability and returns the hosted payment URL.
func (s *CheckoutService) Begin(ctx context.Context, req BeginCheckout) (string, error) {
	event, err := s.ledger.Event(ctx, req.EventID)
	if err != nil {
		return "", err
	}

	if err := s.ledger.TryReserve(ctx, req.EventID, req.Quantity); err != nil {
		monitoring.IncOversoldRejection(req.EventID, "reserve")
		return "", err
	}

	intent, err := s.provider.CreateIntent(ctx, &payment.IntentRequest{
		ProductName: fmt.Sprintf("Ticket for %s", event.Name),
		UnitPrice:   decimal.NewFromFloat(event.Price),
		Quantity:    req.Quantity,
		Currency:    s.cfg.Currency,
		Metadata: payment.Metadata{
			metaEventID:  req.EventID,
			metaUserID:   strconv.FormatInt(req.ChatID, 10),
			metaUserName: req.UserName,
			metaPhone:    req.Phone,
			metaQuantity: strconv.Itoa(req.Quantity),
		},
		SuccessURL: s.cfg.PublicURL + "/payment_success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.PublicURL + "/payment_cancel",
	})
	if err != nil {
		monitoring.IncCheckoutSession(s.cfg.PaymentProvider, "failed")
		return "", fmt.Errorf("begin checkout: %w", err)
	}

	monitoring.IncCheckoutSession(s.cfg.PaymentProvider, "created")
	slog.Info("checkout session opened",
		"event", req.EventID,
		"chat", req.ChatID,
		"quantity", req.Quantity,
		"session", intent.ID,
	)
	return intent.URL, nil
}
