package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"partyflow/internal/status"
	"partyflow/models"
)

// PBStore persists events and tickets in the PocketBase collections created
// by the migrations. RunInTx rides on app.RunInTransaction, so SQLite's
// single-writer transaction serializes every check-then-act on the ledger.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PBStore{app: txApp})
	})
}

func eventFromRecord(r *core.Record) models.Event {
	return models.Event{
		ID:           r.Id,
		Name:         r.GetString("name"),
		Date:         r.GetString("date"),
		Location:     r.GetString("location"),
		Price:        r.GetFloat("price"),
		TotalTickets: r.GetInt("total_tickets"),
		IsActive:     r.GetBool("is_active"),
	}
}

func (s *PBStore) EventByID(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		return nil, status.ErrNotFound
	}
	ev := eventFromRecord(record)
	return &ev, nil
}

func (s *PBStore) ActiveEvents(ctx context.Context) ([]models.Event, error) {
	records, err := s.app.FindRecordsByFilter("events", "is_active = true", "date", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("active events: %w", err)
	}

	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		events = append(events, eventFromRecord(r))
	}
	return events, nil
}

func (s *PBStore) EventsOn(ctx context.Context, date string) ([]models.Event, error) {
	records, err := s.app.FindRecordsByFilter(
		"events",
		"date = {:date} && is_active = true",
		"",
		0,
		0,
		dbx.Params{"date": date},
	)
	if err != nil {
		return nil, fmt.Errorf("events on %s: %w", date, err)
	}

	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		events = append(events, eventFromRecord(r))
	}
	return events, nil
}

func (s *PBStore) InsertEvent(ctx context.Context, ev *models.Event) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("events")
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("name", ev.Name)
	record.Set("date", ev.Date)
	record.Set("location", ev.Location)
	record.Set("price", ev.Price)
	record.Set("total_tickets", ev.TotalTickets)
	record.Set("is_active", ev.IsActive)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	ev.ID = record.Id
	return record.Id, nil
}

func (s *PBStore) SetEventActive(ctx context.Context, id string, active bool) error {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		return status.ErrNotFound
	}
	record.Set("is_active", active)
	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("set event active: %w", err)
	}
	return nil
}

func (s *PBStore) TicketCount(ctx context.Context, eventID string) (int, error) {
	var count int
	err := s.app.DB().
		NewQuery("SELECT COUNT(*) FROM tickets WHERE event = {:event}").
		Bind(dbx.Params{"event": eventID}).
		WithContext(ctx).
		Row(&count)
	if err != nil {
		return 0, fmt.Errorf("ticket count: %w", err)
	}
	return count, nil
}

func (s *PBStore) TicketCountByRef(ctx context.Context, checkoutRef string) (int, error) {
	var count int
	err := s.app.DB().
		NewQuery("SELECT COUNT(*) FROM tickets WHERE checkout_ref = {:ref}").
		Bind(dbx.Params{"ref": checkoutRef}).
		WithContext(ctx).
		Row(&count)
	if err != nil {
		return 0, fmt.Errorf("ticket count by ref: %w", err)
	}
	return count, nil
}

func (s *PBStore) InsertTicket(ctx context.Context, t *models.Ticket) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return "", fmt.Errorf("insert ticket: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("event", t.EventID)
	record.Set("user_id", t.UserID)
	record.Set("user_name", t.UserName)
	record.Set("phone_number", t.PhoneNumber)
	record.Set("checkout_ref", t.CheckoutRef)
	record.Set("code", t.Code)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return "", fmt.Errorf("insert ticket: %w", err)
	}
	return record.Id, nil
}

func (s *PBStore) TicketHolders(ctx context.Context, eventID string) ([]int64, error) {
	var ids []int64
	err := s.app.DB().
		NewQuery("SELECT DISTINCT user_id FROM tickets WHERE event = {:event}").
		Bind(dbx.Params{"event": eventID}).
		WithContext(ctx).
		Column(&ids)
	if err != nil {
		return nil, fmt.Errorf("ticket holders: %w", err)
	}
	return ids, nil
}

func (s *PBStore) UserTickets(ctx context.Context, userID int64) ([]models.TicketView, error) {
	var rows []struct {
		ID       string `db:"id"`
		Name     string `db:"name"`
		Date     string `db:"date"`
		Location string `db:"location"`
	}
	err := s.app.DB().
		NewQuery(`SELECT t.id, e.name, e.date, e.location
			FROM tickets t
			JOIN events e ON t.event = e.id
			WHERE t.user_id = {:user}
			ORDER BY t.created`).
		Bind(dbx.Params{"user": userID}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("user tickets: %w", err)
	}

	views := make([]models.TicketView, 0, len(rows))
	for _, r := range rows {
		views = append(views, models.TicketView{
			ID:       r.ID,
			Name:     r.Name,
			Date:     r.Date,
			Location: r.Location,
		})
	}
	return views, nil
}

// Stats is the headline figure block on the admin dashboard.
type Stats struct {
	TotalRevenue float64 `json:"total_revenue"`
	TicketsSold  int     `json:"tickets_sold"`
	TopEvent     string  `json:"top_event"`
}

func (s *PBStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{TopEvent: "No Sales Yet"}

	err := s.app.DB().
		NewQuery(`SELECT COALESCE(SUM(e.price), 0)
			FROM tickets t JOIN events e ON t.event = e.id`).
		WithContext(ctx).
		Row(&stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("stats revenue: %w", err)
	}

	err = s.app.DB().
		NewQuery("SELECT COUNT(*) FROM tickets").
		WithContext(ctx).
		Row(&stats.TicketsSold)
	if err != nil {
		return nil, fmt.Errorf("stats sold: %w", err)
	}

	var top string
	err = s.app.DB().
		NewQuery(`SELECT e.name
			FROM tickets t JOIN events e ON t.event = e.id
			GROUP BY e.id ORDER BY COUNT(t.id) DESC LIMIT 1`).
		WithContext(ctx).
		Row(&top)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stats top event: %w", err)
	}
	if top != "" {
		stats.TopEvent = top
	}
	return stats, nil
}

type eventSalesRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Date         string  `db:"date"`
	Location     string  `db:"location"`
	Price        float64 `db:"price"`
	TotalTickets int     `db:"total_tickets"`
	IsActive     bool    `db:"is_active"`
	Sold         int     `db:"sold"`
}

func (r eventSalesRow) toEventSales() models.EventSales {
	es := models.EventSales{
		Event: models.Event{
			ID:           r.ID,
			Name:         r.Name,
			Date:         r.Date,
			Location:     r.Location,
			Price:        r.Price,
			TotalTickets: r.TotalTickets,
			IsActive:     r.IsActive,
		},
		Sold:      r.Sold,
		Remaining: r.TotalTickets - r.Sold,
		Revenue:   float64(r.Sold) * r.Price,
	}
	if r.TotalTickets > 0 {
		es.Percent = r.Sold * 100 / r.TotalTickets
	}
	return es
}

// EventsPage returns one dashboard page of events (active or archived view)
// with their sales figures, plus the total page count.
func (s *PBStore) EventsPage(ctx context.Context, page, perPage int, search string, active bool) ([]models.EventSales, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 5
	}

	where := "e.is_active = {:active}"
	params := dbx.Params{
		"active": active,
		"limit":  perPage,
		"offset": (page - 1) * perPage,
	}
	if search != "" {
		where += " AND e.name LIKE {:q}"
		params["q"] = "%" + search + "%"
	}

	var rows []eventSalesRow
	err := s.app.DB().
		NewQuery(`SELECT e.id, e.name, e.date, e.location, e.price,
				e.total_tickets, e.is_active, COUNT(t.id) AS sold
			FROM events e
			LEFT JOIN tickets t ON t.event = e.id
			WHERE `+where+`
			GROUP BY e.id
			ORDER BY e.id ASC
			LIMIT {:limit} OFFSET {:offset}`).
		Bind(params).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, 0, fmt.Errorf("events page: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM events e WHERE " + where
	err = s.app.DB().
		NewQuery(countQuery).
		Bind(params).
		WithContext(ctx).
		Row(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("events page count: %w", err)
	}

	events := make([]models.EventSales, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEventSales())
	}
	totalPages := (total + perPage - 1) / perPage
	return events, totalPages, nil
}

// ExportEvents returns all active events with sales data for the CSV report.
func (s *PBStore) ExportEvents(ctx context.Context) ([]models.EventSales, error) {
	var rows []eventSalesRow
	err := s.app.DB().
		NewQuery(`SELECT e.id, e.name, e.date, e.location, e.price,
				e.total_tickets, e.is_active, COUNT(t.id) AS sold
			FROM events e
			LEFT JOIN tickets t ON t.event = e.id
			WHERE e.is_active = true
			GROUP BY e.id
			ORDER BY e.date DESC`).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}

	events := make([]models.EventSales, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEventSales())
	}
	return events, nil
}

// ExportGuests returns every ticket with event details for the guest list.
func (s *PBStore) ExportGuests(ctx context.Context) ([]models.GuestRow, error) {
	var rows []models.GuestRow
	err := s.app.DB().
		NewQuery(`SELECT t.id AS ticket_id, e.name AS event_name,
				t.user_name, t.phone_number, t.created AS purchase_time,
				t.user_id AS telegram_id
			FROM tickets t
			JOIN events e ON t.event = e.id
			ORDER BY t.id DESC`).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("export guests: %w", err)
	}
	return rows, nil
}
