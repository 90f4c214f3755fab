package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	pubnub "github.com/pubnub/go"
	"github.com/skip2/go-qrcode"

	"partyflow/internal/ledger"
	"partyflow/internal/notify"
	"partyflow/internal/services/payment"
	"partyflow/internal/status"
	"partyflow/models"
	"partyflow/monitoring"
)

// FulfillmentService turns a confirmed payment into issued tickets and
// delivers the QR artifacts. Issuance is transactional and replay-safe,
// delivery is best effort and never rolls tickets back.
type FulfillmentService struct {
	ledger     *ledger.Service
	provider   payment.Provider
	notifier   notify.Notifier
	pubnub     *pubnub.PubNub
	opsChannel string
}

func NewFulfillmentService(ledgerService *ledger.Service, provider payment.Provider, notifier notify.Notifier, pn *pubnub.PubNub, opsChannel string) *FulfillmentService {
	return &FulfillmentService{
		ledger:     ledgerService,
		provider:   provider,
		notifier:   notifier,
		pubnub:     pn,
		opsChannel: opsChannel,
	}
}

// FulfillmentResult reports what a confirmation produced.
type FulfillmentResult struct {
	EventName string
	Tickets   []models.Ticket
	Delivered int
}

// OnPaymentConfirmed verifies the session with the provider, mints the
// purchased tickets and sends one QR code per ticket to the buyer's chat.
func (s *FulfillmentService) OnPaymentConfirmed(ctx context.Context, sessionID string) (*FulfillmentResult, error) {
	start := time.Now()

	intent, err := s.provider.RetrieveIntent(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: %w", err)
	}
	if intent.Status != payment.StatusPaid {
		return nil, fmt.Errorf("fulfillment: session %s: %w", sessionID, status.ErrPaymentNotConfirmed)
	}

	purchase, err := purchaseFromMetadata(intent.Metadata)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: session %s: %w", sessionID, err)
	}

	tickets, err := s.ledger.Issue(ctx, purchase.eventID, purchase.quantity, purchase.buyer, sessionID)
	if err != nil {
		if errors.Is(err, status.ErrOversold) {
			// Paid but no inventory left. Needs a manual refund.
			monitoring.IncOversoldRejection(purchase.eventID, "issue")
			slog.Error("paid checkout lost the inventory race, refund required",
				"session", sessionID,
				"event", purchase.eventID,
				"chat", purchase.buyer.ChatID,
				"quantity", purchase.quantity,
			)
		}
		return nil, err
	}

	event, err := s.ledger.Event(ctx, purchase.eventID)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: load event: %w", err)
	}

	result := &FulfillmentResult{EventName: event.Name, Tickets: tickets}
	result.Delivered = s.deliver(ctx, event, purchase.buyer, tickets)

	s.publishOps(purchase.eventID, sessionID, len(tickets))
	monitoring.IncTicketsIssued(purchase.eventID, len(tickets))
	monitoring.ObserveFulfillment(time.Since(start))

	slog.Info("fulfillment complete",
		"session", sessionID,
		"event", purchase.eventID,
		"issued", len(tickets),
		"delivered", result.Delivered,
	)
	return result, nil
}

func (s *FulfillmentService) deliver(ctx context.Context, event *models.Event, buyer models.Purchaser, tickets []models.Ticket) int {
	greeting := fmt.Sprintf("✅ Payment confirmed! Here are your %d ticket(s) for *%s* 🎟", len(tickets), event.Name)
	if err := s.notifier.SendText(ctx, buyer.ChatID, greeting); err != nil {
		monitoring.IncDeliveryFailure("text")
		slog.Warn("confirmation message failed", "chat", buyer.ChatID, "error", err)
	}

	delivered := 0
	for i, ticket := range tickets {
		png, err := qrcode.Encode(ticket.QRPayload(event.Name), qrcode.Medium, 256)
		if err != nil {
			monitoring.IncDeliveryFailure("encode")
			slog.Error("qr encode failed", "ticket", ticket.ID, "error", err)
			continue
		}

		caption := fmt.Sprintf("Ticket %d/%d for %s on %s", i+1, len(tickets), event.Name, event.Date)
		if err := s.notifier.SendPhoto(ctx, buyer.ChatID, png, caption); err != nil {
			monitoring.IncDeliveryFailure("photo")
			slog.Error("ticket delivery failed", "ticket", ticket.ID, "chat", buyer.ChatID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

func (s *FulfillmentService) publishOps(eventID, sessionID string, quantity int) {
	if s.pubnub == nil {
		return
	}
	s.pubnub.Publish().
		Channel(s.opsChannel).
		Message(map[string]any{
			"type":     "ticket-issued",
			"event_id": eventID,
			"session":  sessionID,
			"quantity": quantity,
		}).
		Execute()
}

type purchase struct {
	eventID  string
	quantity int
	buyer    models.Purchaser
}

func purchaseFromMetadata(meta payment.Metadata) (*purchase, error) {
	eventID := meta[metaEventID]
	if eventID == "" {
		return nil, errors.New("metadata missing event_id")
	}
	userID, err := strconv.ParseInt(meta[metaUserID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("metadata user_id: %w", err)
	}
	quantity, err := strconv.Atoi(meta[metaQuantity])
	if err != nil || quantity < 1 {
		return nil, fmt.Errorf("metadata quantity %q invalid", meta[metaQuantity])
	}

	return &purchase{
		eventID:  eventID,
		quantity: quantity,
		buyer: models.Purchaser{
			ChatID: userID,
			Name:   meta[metaUserName],
			Phone:  meta[metaPhone],
		},
	}, nil
}
