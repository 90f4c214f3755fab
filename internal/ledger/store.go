package ledger

import (
	"context"

	"partyflow/models"
)

// Store is the narrow persistence surface the ledger needs. The PocketBase
// implementation is the production one; MemoryStore backs tests and local
// development without a database file.
type Store interface {
	// RunInTx executes fn atomically. All reads and writes made through
	// the tx Store belong to the same transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	EventByID(ctx context.Context, id string) (*models.Event, error)
	ActiveEvents(ctx context.Context) ([]models.Event, error)
	EventsOn(ctx context.Context, date string) ([]models.Event, error)
	InsertEvent(ctx context.Context, ev *models.Event) (string, error)
	SetEventActive(ctx context.Context, id string, active bool) error

	TicketCount(ctx context.Context, eventID string) (int, error)
	TicketCountByRef(ctx context.Context, checkoutRef string) (int, error)
	InsertTicket(ctx context.Context, t *models.Ticket) (string, error)
	TicketHolders(ctx context.Context, eventID string) ([]int64, error)
	UserTickets(ctx context.Context, userID int64) ([]models.TicketView, error)
}
