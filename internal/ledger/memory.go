package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"partyflow/internal/status"
	"partyflow/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the ledger and
// service tests and can run the app without a database file in development.
// RunInTx holds the store lock for the whole callback, which gives the same
// one-writer-at-a-time guarantee the SQLite transaction provides.
type MemoryStore struct {
	mu        sync.Mutex
	events    map[string]models.Event
	tickets   []models.Ticket
	eventSeq  int
	ticketSeq int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]models.Event)}
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(memTx{m})
}

func (m *MemoryStore) EventByID(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventByID(id)
}

func (m *MemoryStore) ActiveEvents(ctx context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeEvents()
}

func (m *MemoryStore) EventsOn(ctx context.Context, date string) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsOn(date)
}

func (m *MemoryStore) InsertEvent(ctx context.Context, ev *models.Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertEvent(ev)
}

func (m *MemoryStore) SetEventActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setEventActive(id, active)
}

func (m *MemoryStore) TicketCount(ctx context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketCount(eventID), nil
}

func (m *MemoryStore) TicketCountByRef(ctx context.Context, checkoutRef string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketCountByRef(checkoutRef), nil
}

func (m *MemoryStore) InsertTicket(ctx context.Context, t *models.Ticket) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTicket(t)
}

func (m *MemoryStore) TicketHolders(ctx context.Context, eventID string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketHolders(eventID), nil
}

func (m *MemoryStore) UserTickets(ctx context.Context, userID int64) ([]models.TicketView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userTickets(userID), nil
}

// memTx exposes the already-locked store inside RunInTx.
type memTx struct {
	m *MemoryStore
}

func (t memTx) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t memTx) EventByID(ctx context.Context, id string) (*models.Event, error) {
	return t.m.eventByID(id)
}

func (t memTx) ActiveEvents(ctx context.Context) ([]models.Event, error) {
	return t.m.activeEvents()
}

func (t memTx) EventsOn(ctx context.Context, date string) ([]models.Event, error) {
	return t.m.eventsOn(date)
}

func (t memTx) InsertEvent(ctx context.Context, ev *models.Event) (string, error) {
	return t.m.insertEvent(ev)
}

func (t memTx) SetEventActive(ctx context.Context, id string, active bool) error {
	return t.m.setEventActive(id, active)
}

func (t memTx) TicketCount(ctx context.Context, eventID string) (int, error) {
	return t.m.ticketCount(eventID), nil
}

func (t memTx) TicketCountByRef(ctx context.Context, checkoutRef string) (int, error) {
	return t.m.ticketCountByRef(checkoutRef), nil
}

func (t memTx) InsertTicket(ctx context.Context, tk *models.Ticket) (string, error) {
	return t.m.insertTicket(tk)
}

func (t memTx) TicketHolders(ctx context.Context, eventID string) ([]int64, error) {
	return t.m.ticketHolders(eventID), nil
}

func (t memTx) UserTickets(ctx context.Context, userID int64) ([]models.TicketView, error) {
	return t.m.userTickets(userID), nil
}

// unlocked internals

func (m *MemoryStore) eventByID(id string) (*models.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	return &ev, nil
}

func (m *MemoryStore) activeEvents() ([]models.Event, error) {
	var events []models.Event
	for _, ev := range m.events {
		if ev.IsActive {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	return events, nil
}

func (m *MemoryStore) eventsOn(date string) ([]models.Event, error) {
	var events []models.Event
	for _, ev := range m.events {
		if ev.IsActive && ev.Date == date {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (m *MemoryStore) insertEvent(ev *models.Event) (string, error) {
	m.eventSeq++
	ev.ID = fmt.Sprintf("evt%d", m.eventSeq)
	m.events[ev.ID] = *ev
	return ev.ID, nil
}

func (m *MemoryStore) setEventActive(id string, active bool) error {
	ev, ok := m.events[id]
	if !ok {
		return status.ErrNotFound
	}
	ev.IsActive = active
	m.events[id] = ev
	return nil
}

func (m *MemoryStore) ticketCount(eventID string) int {
	count := 0
	for _, t := range m.tickets {
		if t.EventID == eventID {
			count++
		}
	}
	return count
}

func (m *MemoryStore) ticketCountByRef(checkoutRef string) int {
	count := 0
	for _, t := range m.tickets {
		if t.CheckoutRef == checkoutRef {
			count++
		}
	}
	return count
}

func (m *MemoryStore) insertTicket(t *models.Ticket) (string, error) {
	m.ticketSeq++
	t.ID = fmt.Sprintf("tkt%d", m.ticketSeq)
	t.CreatedAt = time.Now()
	m.tickets = append(m.tickets, *t)
	return t.ID, nil
}

func (m *MemoryStore) ticketHolders(eventID string) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, t := range m.tickets {
		if t.EventID == eventID && !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}
	return ids
}

func (m *MemoryStore) userTickets(userID int64) []models.TicketView {
	var views []models.TicketView
	for _, t := range m.tickets {
		if t.UserID != userID {
			continue
		}
		ev := m.events[t.EventID]
		views = append(views, models.TicketView{
			ID:       t.ID,
			Name:     ev.Name,
			Date:     ev.Date,
			Location: ev.Location,
		})
	}
	return views
}
