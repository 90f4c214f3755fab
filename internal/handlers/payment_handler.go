package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"partyflow/internal/services"
	"partyflow/internal/services/payment"
	"partyflow/internal/status"
)

// PaymentHandler serves the checkout return pages and the dev-only
// payment simulator.
type PaymentHandler struct {
	fulfillment *services.FulfillmentService
	provider    payment.Provider
	environment string
}

func NewPaymentHandler(fulfillment *services.FulfillmentService, provider payment.Provider, environment string) *PaymentHandler {
	return &PaymentHandler{
		fulfillment: fulfillment,
		provider:    provider,
		environment: environment,
	}
}

// PaymentSuccess - checkout return URL, verifies and fulfills
func (h *PaymentHandler) PaymentSuccess(e *core.RequestEvent) error {
	sessionID := e.Request.URL.Query().Get("session_id")
	if sessionID == "" {
		return apis.NewBadRequestError("session_id is required", nil)
	}

	result, err := h.fulfillment.OnPaymentConfirmed(e.Request.Context(), sessionID)
	switch {
	case errors.Is(err, status.ErrAlreadyFulfilled):
		return h.page(e, "Already processed", "These tickets were already issued. Check your Telegram chat.")
	case errors.Is(err, status.ErrPaymentNotConfirmed):
		return apis.NewBadRequestError("Payment has not been completed", nil)
	case errors.Is(err, status.ErrOversold):
		return h.page(e, "We're sorry", "The last tickets were sold while you were paying. Our team will refund you shortly.")
	case err != nil:
		return apis.NewInternalServerError("Failed to process payment", err)
	}

	body := fmt.Sprintf("Payment confirmed! Your %d ticket(s) for %s have been sent to your Telegram chat. 🎉",
		len(result.Tickets), result.EventName)
	return h.page(e, "Payment successful", body)
}

// PaymentCancel - checkout cancel URL
func (h *PaymentHandler) PaymentCancel(e *core.RequestEvent) error {
	return h.page(e, "Payment cancelled", "No charge was made. You can start a new purchase from the bot at any time.")
}

type simulatePaymentRequest struct {
	SessionID string `json:"session_id"`
}

// SimulatePayment - dev-only shortcut that marks a fake session paid and
// runs fulfillment
func (h *PaymentHandler) SimulatePayment(e *core.RequestEvent) error {
	if h.environment == "production" {
		return apis.NewNotFoundError("Not found", nil)
	}

	fake, ok := h.provider.(*payment.FakeProvider)
	if !ok {
		return apis.NewBadRequestError("Simulation requires the fake payment provider", nil)
	}

	var req simulatePaymentRequest
	if err := e.BindBody(&req); err != nil || req.SessionID == "" {
		return apis.NewBadRequestError("session_id is required", err)
	}

	if err := fake.MarkPaid(req.SessionID); err != nil {
		return apis.NewNotFoundError("Unknown session", nil)
	}

	result, err := h.fulfillment.OnPaymentConfirmed(e.Request.Context(), req.SessionID)
	if err != nil {
		return apis.NewInternalServerError("Fulfillment failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"issued": len(result.Tickets),
		"event":  result.EventName,
	})
}

func (h *PaymentHandler) page(e *core.RequestEvent, title, body string) error {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4rem;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, title, body)
	return e.HTML(http.StatusOK, html)
}
