package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"partyflow/internal/ledger"
	"partyflow/internal/notify"
	"partyflow/monitoring"
)

// BroadcastService fans announcements out to ticket holders and runs the
// day-of-event reminder job.
type BroadcastService struct {
	ledger   *ledger.Service
	notifier notify.Notifier
}

func NewBroadcastService(ledgerService *ledger.Service, notifier notify.Notifier) *BroadcastService {
	return &BroadcastService{
		ledger:   ledgerService,
		notifier: notifier,
	}
}

// Broadcast delivers text to every chat in parallel and returns how many
// sends succeeded. Individual failures are logged and skipped.
func (s *BroadcastService) Broadcast(ctx context.Context, chatIDs []int64, text string) int {
	var wg sync.WaitGroup
	var sent int64

	for _, chatID := range chatIDs {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()

			if err := s.notifier.SendText(ctx, chatID, text); err != nil {
				monitoring.IncBroadcast("failed")
				slog.Warn("broadcast delivery failed", "chat", chatID, "error", err)
				return
			}
			monitoring.IncBroadcast("sent")
			atomic.AddInt64(&sent, 1)
		}(chatID)
	}
	wg.Wait()

	return int(sent)
}

// BroadcastEvent sends text to every holder of a ticket for the event.
// Returns sent and total recipient counts.
func (s *BroadcastService) BroadcastEvent(ctx context.Context, eventID, text string) (int, int, error) {
	holders, err := s.ledger.TicketHolders(ctx, eventID)
	if err != nil {
		return 0, 0, fmt.Errorf("broadcast: %w", err)
	}
	sent := s.Broadcast(ctx, holders, text)
	return sent, len(holders), nil
}

// SendDailyReminders messages the holders of every event happening today.
func (s *BroadcastService) SendDailyReminders(ctx context.Context) error {
	today := time.Now().Format("2006-01-02")

	events, err := s.ledger.EventsOn(ctx, today)
	if err != nil {
		return fmt.Errorf("daily reminders: %w", err)
	}

	for _, event := range events {
		holders, err := s.ledger.TicketHolders(ctx, event.ID)
		if err != nil {
			slog.Error("reminder holder lookup failed", "event", event.ID, "error", err)
			continue
		}
		if len(holders) == 0 {
			continue
		}

		text := fmt.Sprintf("⏰ Reminder: *%s* is happening today at %s! See you there 🎉", event.Name, event.Location)
		sent := s.Broadcast(ctx, holders, text)
		slog.Info("reminders sent", "event", event.ID, "sent", sent, "holders", len(holders))
	}
	return nil
}
