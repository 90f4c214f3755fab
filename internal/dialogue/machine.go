package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partyflow/internal/phone"
	"partyflow/models"
)

// ErrBadQuantity rejects quantity picks outside the allowed range.
var ErrBadQuantity = errors.New("quantity out of range")

// CheckoutFunc hands a completed conversation to the checkout broker and
// returns the hosted payment URL.
type CheckoutFunc func(ctx context.Context, eventID string, buyer models.Purchaser, quantity int) (string, error)

// Outcome tells the caller what to say next after a dialogue step.
type Outcome struct {
	// State is the conversation state after the step.
	State State

	// CheckoutURL is set once the conversation completes and a payment
	// session was opened.
	CheckoutURL string

	// Retry is set when the input was rejected and the same step should be
	// prompted again.
	Retry bool

	// Abandoned is set when the conversation was cancelled after too many
	// failed attempts.
	Abandoned bool
}

// Machine drives purchase conversations. Each step loads the session,
// applies exactly one transition and persists or deletes it.
type Machine struct {
	store       Store
	begin       CheckoutFunc
	region      string
	maxQuantity int
	maxRetries  int
}

func NewMachine(store Store, begin CheckoutFunc, region string, maxQuantity, maxRetries int) *Machine {
	return &Machine{
		store:       store,
		begin:       begin,
		region:      region,
		maxQuantity: maxQuantity,
		maxRetries:  maxRetries,
	}
}

// StartPurchase opens a fresh conversation for the chat. Any previous
// conversation for the same chat is discarded.
func (m *Machine) StartPurchase(ctx context.Context, chatID int64, eventID string) (*Session, error) {
	session := &Session{
		ChatID:    chatID,
		EventID:   eventID,
		State:     StateAwaitingQuantity,
		StartedAt: time.Now(),
	}
	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("start purchase: %w", err)
	}
	return session, nil
}

// SetQuantity records the quantity pick and moves to the name step.
func (m *Machine) SetQuantity(ctx context.Context, chatID int64, quantity int) (*Outcome, error) {
	session, err := m.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if session.State != StateAwaitingQuantity {
		return &Outcome{State: session.State, Retry: true}, nil
	}
	if quantity < 1 || quantity > m.maxQuantity {
		return nil, fmt.Errorf("%w: %d", ErrBadQuantity, quantity)
	}

	session.Quantity = quantity
	session.State = StateAwaitingName
	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}
	return &Outcome{State: session.State}, nil
}

// HandleText feeds a free-text message into the conversation. On the name
// step it records the name; on the phone step it validates the number and,
// when valid, hands off to checkout. The session is deleted once checkout
// is attempted, whatever the result.
func (m *Machine) HandleText(ctx context.Context, chatID int64, text string) (*Outcome, error) {
	session, err := m.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	switch session.State {
	case StateAwaitingName:
		session.Name = text
		session.State = StateAwaitingPhone
		if err := m.store.Put(ctx, session); err != nil {
			return nil, fmt.Errorf("set name: %w", err)
		}
		return &Outcome{State: session.State}, nil

	case StateAwaitingPhone:
		return m.handlePhone(ctx, session, text)

	default:
		// Quantity is picked with buttons, free text just re-prompts.
		return &Outcome{State: session.State, Retry: true}, nil
	}
}

func (m *Machine) handlePhone(ctx context.Context, session *Session, text string) (*Outcome, error) {
	normalized, err := phone.Normalize(text, m.region)
	if err != nil {
		session.PhoneRetries++
		if session.PhoneRetries >= m.maxRetries {
			if delErr := m.store.Delete(ctx, session.ChatID); delErr != nil {
				return nil, fmt.Errorf("abandon session: %w", delErr)
			}
			return &Outcome{Abandoned: true}, nil
		}
		if err := m.store.Put(ctx, session); err != nil {
			return nil, fmt.Errorf("record phone retry: %w", err)
		}
		return &Outcome{State: StateAwaitingPhone, Retry: true}, nil
	}

	// One shot per conversation: drop the session before the result is
	// known so a retry starts a fresh dialogue instead of double-booking.
	if err := m.store.Delete(ctx, session.ChatID); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	buyer := models.Purchaser{
		ChatID: session.ChatID,
		Name:   session.Name,
		Phone:  normalized,
	}
	url, err := m.begin(ctx, session.EventID, buyer, session.Quantity)
	if err != nil {
		return nil, err
	}
	return &Outcome{CheckoutURL: url}, nil
}
