package ledger

import (
	"context"
	"fmt"

	"partyflow/internal/status"
	"partyflow/models"
	"partyflow/utils"
)

// Service is the single source of truth for how many tickets remain per
// event. Reservation is optimistic: TryReserve only checks, Issue is the
// sole mutation that consumes capacity and it re-validates inside one
// transaction, so two confirmations racing for the last ticket cannot both
// win.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Remaining returns capacity minus issued count. Never negative.
func (s *Service) Remaining(ctx context.Context, eventID string) (int, error) {
	var remaining int
	err := s.store.RunInTx(ctx, func(tx Store) error {
		ev, err := tx.EventByID(ctx, eventID)
		if err != nil {
			return err
		}
		sold, err := tx.TicketCount(ctx, eventID)
		if err != nil {
			return err
		}
		remaining = ev.TotalTickets - sold
		if remaining < 0 {
			remaining = 0
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// TryReserve checks that quantity tickets can still be sold for the event.
// It takes no hold on inventory: the reservation window is bounded by the
// payment provider's own session expiry, and Issue re-checks capacity.
func (s *Service) TryReserve(ctx context.Context, eventID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("try reserve: quantity must be positive, got %d", quantity)
	}

	return s.store.RunInTx(ctx, func(tx Store) error {
		ev, err := tx.EventByID(ctx, eventID)
		if err != nil {
			return err
		}
		if !ev.IsActive {
			return status.ErrNotFound
		}

		sold, err := tx.TicketCount(ctx, eventID)
		if err != nil {
			return err
		}
		if sold+quantity > ev.TotalTickets {
			return status.ErrOversold
		}
		return nil
	})
}

// Issue mints quantity tickets for the purchaser against the event. The
// capacity check and the inserts happen in one write transaction, and a
// checkout reference that already produced tickets is rejected so a replayed
// payment confirmation cannot mint twice.
func (s *Service) Issue(ctx context.Context, eventID string, quantity int, p models.Purchaser, checkoutRef string) ([]models.Ticket, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("issue: quantity must be positive, got %d", quantity)
	}
	if checkoutRef == "" {
		return nil, fmt.Errorf("issue: missing checkout reference")
	}

	var tickets []models.Ticket
	err := s.store.RunInTx(ctx, func(tx Store) error {
		ev, err := tx.EventByID(ctx, eventID)
		if err != nil {
			return err
		}

		already, err := tx.TicketCountByRef(ctx, checkoutRef)
		if err != nil {
			return err
		}
		if already > 0 {
			return status.ErrAlreadyFulfilled
		}

		sold, err := tx.TicketCount(ctx, eventID)
		if err != nil {
			return err
		}
		if sold+quantity > ev.TotalTickets {
			return status.ErrOversold
		}

		for i := 0; i < quantity; i++ {
			code, err := utils.GenerateCode(4)
			if err != nil {
				return fmt.Errorf("issue: generate code: %w", err)
			}
			t := models.Ticket{
				EventID:     eventID,
				UserID:      p.ChatID,
				UserName:    p.Name,
				PhoneNumber: p.Phone,
				CheckoutRef: checkoutRef,
				Code:        code,
			}
			id, err := tx.InsertTicket(ctx, &t)
			if err != nil {
				return fmt.Errorf("issue: insert ticket: %w", err)
			}
			t.ID = id
			tickets = append(tickets, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// Event looks up a single event. Archived events are still returned: a paid
// checkout must fulfill even if the event was archived meanwhile.
func (s *Service) Event(ctx context.Context, id string) (*models.Event, error) {
	return s.store.EventByID(ctx, id)
}

// ActiveEvents lists events currently on sale.
func (s *Service) ActiveEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ActiveEvents(ctx)
}

// EventsOn lists active events happening on the given YYYY-MM-DD date.
func (s *Service) EventsOn(ctx context.Context, date string) ([]models.Event, error) {
	return s.store.EventsOn(ctx, date)
}

// TicketHolders returns the distinct purchaser chat ids for an event.
func (s *Service) TicketHolders(ctx context.Context, eventID string) ([]int64, error) {
	return s.store.TicketHolders(ctx, eventID)
}

// UserTickets returns the purchaser's tickets joined with event details.
func (s *Service) UserTickets(ctx context.Context, userID int64) ([]models.TicketView, error) {
	return s.store.UserTickets(ctx, userID)
}

// SetEventActive archives or restores an event. Archived events stay in the
// ledger so sold tickets keep resolving.
func (s *Service) SetEventActive(ctx context.Context, id string, active bool) error {
	return s.store.SetEventActive(ctx, id, active)
}

// AddEvent creates a new active event with fixed capacity.
func (s *Service) AddEvent(ctx context.Context, ev models.Event) (string, error) {
	if ev.TotalTickets < 1 {
		return "", fmt.Errorf("add event: capacity must be positive, got %d", ev.TotalTickets)
	}
	ev.IsActive = true
	return s.store.InsertEvent(ctx, &ev)
}
