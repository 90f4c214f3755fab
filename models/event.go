package models

// Event is a sellable party with a fixed ticket capacity.
type Event struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"` // YYYY-MM-DD
	Location     string  `json:"location"`
	Price        float64 `json:"price"` // NIS per ticket
	TotalTickets int     `json:"total_tickets"`
	IsActive     bool    `json:"is_active"`
}

// EventSales is an event joined with its sales figures, as shown on the
// admin dashboard and in CSV exports.
type EventSales struct {
	Event
	Sold      int     `json:"sold"`
	Remaining int     `json:"remaining"`
	Percent   int     `json:"percent"`
	Revenue   float64 `json:"revenue"`
}
