package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"partyflow/internal/phone"
	"partyflow/internal/services"
	"partyflow/internal/status"
)

// CheckoutHandler exposes the checkout broker over HTTP for non-bot
// clients.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	region   string
}

func NewCheckoutHandler(checkout *services.CheckoutService, region string) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		region:   region,
	}
}

type createCheckoutRequest struct {
	EventID     string `json:"event_id"`
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	PhoneNumber string `json:"phone_number"`
	Quantity    int    `json:"quantity"`
}

// CreateCheckoutSession - open a hosted payment session
func (h *CheckoutHandler) CreateCheckoutSession(e *core.RequestEvent) error {
	var req createCheckoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.EventID == "" || req.Quantity < 1 {
		return apis.NewBadRequestError("event_id and a positive quantity are required", nil)
	}

	normalized, err := phone.Normalize(req.PhoneNumber, h.region)
	if err != nil {
		return apis.NewBadRequestError("Invalid phone number", nil)
	}

	url, err := h.checkout.Begin(e.Request.Context(), services.BeginCheckout{
		EventID:  req.EventID,
		ChatID:   req.UserID,
		UserName: req.UserName,
		Phone:    normalized,
		Quantity: req.Quantity,
	})
	switch {
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Event not found", nil)
	case errors.Is(err, status.ErrOversold):
		return apis.NewBadRequestError("Not enough tickets left!", nil)
	case err != nil:
		return apis.NewInternalServerError("Failed to create checkout session", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"checkout_url": url})
}
