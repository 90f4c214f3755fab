package models

import (
	"fmt"
	"time"
)

// Purchaser identifies who a ticket is issued to.
type Purchaser struct {
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"` // E.164
}

// Ticket is one allocated unit of event capacity, bound to a purchaser.
type Ticket struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	PhoneNumber string    `json:"phone_number"`
	CheckoutRef string    `json:"checkout_ref"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// QRPayload is the string encoded into the entrance QR code. The same
// string appears in the guest list export for manual verification.
func (t Ticket) QRPayload(eventName string) string {
	return fmt.Sprintf("TICKET-ID:%s | EVENT:%s | OWNER:%d", t.ID, eventName, t.UserID)
}

// TicketView is a ticket joined with its event, as returned to the bot
// for /my_tickets.
type TicketView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// GuestRow is one line of the guest list export.
type GuestRow struct {
	TicketID     string `db:"ticket_id" json:"ticket_id"`
	EventName    string `db:"event_name" json:"event_name"`
	UserName     string `db:"user_name" json:"user_name"`
	PhoneNumber  string `db:"phone_number" json:"phone_number"`
	PurchaseTime string `db:"purchase_time" json:"purchase_time"`
	TelegramID   int64  `db:"telegram_id" json:"telegram_id"`
}
