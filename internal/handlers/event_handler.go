package handlers

import (
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"partyflow/internal/ledger"
)

// EventHandler serves the public read-only API.
type EventHandler struct {
	ledger *ledger.Service
}

func NewEventHandler(ledgerService *ledger.Service) *EventHandler {
	return &EventHandler{ledger: ledgerService}
}

// ListEvents - active events with live availability
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	ctx := e.Request.Context()

	events, err := h.ledger.ActiveEvents(ctx)
	if err != nil {
		return apis.NewInternalServerError("Failed to load events", err)
	}

	type eventView struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Date      string  `json:"date"`
		Location  string  `json:"location"`
		Price     float64 `json:"price"`
		Remaining int     `json:"remaining"`
	}

	views := make([]eventView, 0, len(events))
	for _, event := range events {
		remaining, err := h.ledger.Remaining(ctx, event.ID)
		if err != nil {
			continue
		}
		views = append(views, eventView{
			ID:        event.ID,
			Name:      event.Name,
			Date:      event.Date,
			Location:  event.Location,
			Price:     event.Price,
			Remaining: remaining,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"events": views})
}

// UserTickets - all tickets held by one Telegram user
func (h *EventHandler) UserTickets(e *core.RequestEvent) error {
	userID, err := strconv.ParseInt(e.Request.PathValue("userId"), 10, 64)
	if err != nil {
		return apis.NewBadRequestError("Invalid user id", err)
	}

	tickets, err := h.ledger.UserTickets(e.Request.Context(), userID)
	if err != nil {
		return apis.NewInternalServerError("Failed to load tickets", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}
