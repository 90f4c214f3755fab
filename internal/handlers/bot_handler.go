package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/skip2/go-qrcode"

	"partyflow/internal/dialogue"
	"partyflow/internal/ledger"
	"partyflow/internal/notify"
	"partyflow/internal/status"
	"partyflow/models"
)

// BotHandler receives Telegram webhook updates and routes them into the
// purchase dialogue.
type BotHandler struct {
	machine     *dialogue.Machine
	ledger      *ledger.Service
	notifier    notify.Notifier
	maxQuantity int
}

func NewBotHandler(machine *dialogue.Machine, ledgerService *ledger.Service, notifier notify.Notifier, maxQuantity int) *BotHandler {
	return &BotHandler{
		machine:     machine,
		ledger:      ledgerService,
		notifier:    notifier,
		maxQuantity: maxQuantity,
	}
}

type tgUpdate struct {
	UpdateID      int64       `json:"update_id"`
	Message       *tgMessage  `json:"message"`
	CallbackQuery *tgCallback `json:"callback_query"`
}

type tgMessage struct {
	Chat tgChat `json:"chat"`
	Text string `json:"text"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgCallback struct {
	ID      string     `json:"id"`
	Data    string     `json:"data"`
	Message *tgMessage `json:"message"`
}

// HandleWebhook processes one update. It always answers 200, otherwise
// Telegram keeps redelivering the same update.
func (h *BotHandler) HandleWebhook(e *core.RequestEvent) error {
	var update tgUpdate
	if err := e.BindBody(&update); err != nil {
		slog.Warn("webhook: unreadable update", "error", err)
		return e.JSON(http.StatusOK, map[string]any{"ok": true})
	}

	ctx := e.Request.Context()

	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}

	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (h *BotHandler) handleCallback(ctx context.Context, cb *tgCallback) {
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, "buy_"):
		h.startPurchase(ctx, chatID, strings.TrimPrefix(cb.Data, "buy_"))

	case strings.HasPrefix(cb.Data, "qty_"):
		quantity, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "qty_"))
		if err != nil {
			return
		}
		h.pickQuantity(ctx, chatID, quantity)
	}
}

func (h *BotHandler) startPurchase(ctx context.Context, chatID int64, eventID string) {
	remaining, err := h.ledger.Remaining(ctx, eventID)
	if err != nil {
		h.say(ctx, chatID, "That event is no longer on sale.")
		return
	}
	if remaining < 1 {
		h.say(ctx, chatID, "😔 Not enough tickets left!")
		return
	}

	if _, err := h.machine.StartPurchase(ctx, chatID, eventID); err != nil {
		slog.Error("start purchase failed", "chat", chatID, "event", eventID, "error", err)
		h.say(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	row := make([]notify.Button, 0, h.maxQuantity)
	for i := 1; i <= h.maxQuantity; i++ {
		row = append(row, notify.Button{
			Text: strconv.Itoa(i),
			Data: fmt.Sprintf("qty_%d", i),
		})
	}
	if err := h.notifier.SendKeyboard(ctx, chatID, "How many tickets would you like? 🎟", [][]notify.Button{row}); err != nil {
		slog.Warn("quantity prompt failed", "chat", chatID, "error", err)
	}
}

func (h *BotHandler) pickQuantity(ctx context.Context, chatID int64, quantity int) {
	_, err := h.machine.SetQuantity(ctx, chatID, quantity)
	switch {
	case errors.Is(err, status.ErrSessionExpired):
		h.say(ctx, chatID, "That purchase has expired. Use /events to start again.")
	case errors.Is(err, dialogue.ErrBadQuantity):
		h.say(ctx, chatID, fmt.Sprintf("Please pick between 1 and %d tickets.", h.maxQuantity))
	case err != nil:
		slog.Error("set quantity failed", "chat", chatID, "error", err)
		h.say(ctx, chatID, "Something went wrong, please try again.")
	default:
		h.say(ctx, chatID, "Great! What's your full name?")
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgMessage) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start":
		h.say(ctx, chatID, "🎉 Welcome to PartyFlow! Use /events to browse upcoming parties and /my_tickets to see your tickets.")

	case text == "/events":
		h.listEvents(ctx, chatID)

	case text == "/my_tickets":
		h.listTickets(ctx, chatID)

	default:
		outcome, err := h.machine.HandleText(ctx, chatID, text)
		h.renderOutcome(ctx, chatID, outcome, err)
	}
}

func (h *BotHandler) listEvents(ctx context.Context, chatID int64) {
	events, err := h.ledger.ActiveEvents(ctx)
	if err != nil {
		slog.Error("list events failed", "error", err)
		h.say(ctx, chatID, "Something went wrong, please try again.")
		return
	}
	if len(events) == 0 {
		h.say(ctx, chatID, "No upcoming parties right now. Check back soon!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎊 *Upcoming parties:*\n\n")
	rows := make([][]notify.Button, 0, len(events))
	for _, event := range events {
		remaining, err := h.ledger.Remaining(ctx, event.ID)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "*%s*\n📅 %s  📍 %s\n💸 %.2f  🎟 %d left\n\n",
			event.Name, event.Date, event.Location, event.Price, remaining)
		rows = append(rows, []notify.Button{{
			Text: "🎟 Buy " + event.Name,
			Data: "buy_" + event.ID,
		}})
	}

	if err := h.notifier.SendKeyboard(ctx, chatID, sb.String(), rows); err != nil {
		slog.Warn("event list delivery failed", "chat", chatID, "error", err)
	}
}

func (h *BotHandler) listTickets(ctx context.Context, chatID int64) {
	tickets, err := h.ledger.UserTickets(ctx, chatID)
	if err != nil {
		slog.Error("list tickets failed", "chat", chatID, "error", err)
		h.say(ctx, chatID, "Something went wrong, please try again.")
		return
	}
	if len(tickets) == 0 {
		h.say(ctx, chatID, "You have no tickets yet. Use /events to grab some!")
		return
	}

	h.say(ctx, chatID, fmt.Sprintf("🎫 You hold %d ticket(s):", len(tickets)))
	for _, t := range tickets {
		payload := models.Ticket{ID: t.ID, UserID: chatID}.QRPayload(t.Name)
		png, err := qrcode.Encode(payload, qrcode.Medium, 256)
		if err != nil {
			slog.Error("qr encode failed", "ticket", t.ID, "error", err)
			continue
		}
		caption := fmt.Sprintf("%s — %s at %s", t.Name, t.Date, t.Location)
		if err := h.notifier.SendPhoto(ctx, chatID, png, caption); err != nil {
			slog.Warn("ticket resend failed", "ticket", t.ID, "chat", chatID, "error", err)
		}
	}
}

func (h *BotHandler) renderOutcome(ctx context.Context, chatID int64, outcome *dialogue.Outcome, err error) {
	switch {
	case errors.Is(err, status.ErrSessionExpired):
		h.say(ctx, chatID, "I wasn't expecting that. Use /events to browse parties.")
		return
	case errors.Is(err, status.ErrOversold):
		h.say(ctx, chatID, "😔 Not enough tickets left!")
		return
	case errors.Is(err, status.ErrNotFound):
		h.say(ctx, chatID, "That event is no longer on sale.")
		return
	case err != nil:
		slog.Error("dialogue step failed", "chat", chatID, "error", err)
		h.say(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	switch {
	case outcome.Abandoned:
		h.say(ctx, chatID, "Too many invalid attempts, purchase cancelled. Start again from /events.")
	case outcome.CheckoutURL != "":
		h.say(ctx, chatID, "Almost there! Complete your payment here:\n"+outcome.CheckoutURL)
	case outcome.Retry && outcome.State == dialogue.StateAwaitingPhone:
		h.say(ctx, chatID, "Hmm, that doesn't look like a valid phone number. Please try again (e.g. 050-123-4567).")
	case outcome.Retry:
		h.say(ctx, chatID, "Please use the buttons to pick a quantity 🙂")
	case outcome.State == dialogue.StateAwaitingPhone:
		h.say(ctx, chatID, "Thanks! What's your phone number? 📱")
	}
}

func (h *BotHandler) say(ctx context.Context, chatID int64, text string) {
	if err := h.notifier.SendText(ctx, chatID, text); err != nil {
		slog.Warn("bot reply failed", "chat", chatID, "error", err)
	}
}
