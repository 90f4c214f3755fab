package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyflow/internal/status"
	"partyflow/models"
)

func newTestService(t *testing.T, capacity int) (*Service, string) {
	t.Helper()

	svc := NewService(NewMemoryStore())
	id, err := svc.AddEvent(context.Background(), models.Event{
		Name:         "Rooftop Rave",
		Date:         "2026-09-12",
		Location:     "Tel Aviv",
		Price:        120,
		TotalTickets: capacity,
	})
	require.NoError(t, err)
	return svc, id
}

func buyer(chatID int64) models.Purchaser {
	return models.Purchaser{
		ChatID: chatID,
		Name:   "Dana Levi",
		Phone:  "+972501234567",
	}
}

func TestRemainingStartsAtCapacity(t *testing.T) {
	svc, id := newTestService(t, 5)

	remaining, err := svc.Remaining(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
}

func TestRemainingUnknownEvent(t *testing.T) {
	svc, _ := newTestService(t, 5)

	_, err := svc.Remaining(context.Background(), "nope")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestTryReserveWithinCapacity(t *testing.T) {
	svc, id := newTestService(t, 5)

	require.NoError(t, svc.TryReserve(context.Background(), id, 5))
}

func TestTryReserveInsufficient(t *testing.T) {
	svc, id := newTestService(t, 5)

	err := svc.TryReserve(context.Background(), id, 6)
	assert.ErrorIs(t, err, status.ErrOversold)
}

func TestTryReserveArchivedEvent(t *testing.T) {
	svc, id := newTestService(t, 5)
	ctx := context.Background()

	require.NoError(t, svc.SetEventActive(ctx, id, false))

	err := svc.TryReserve(ctx, id, 1)
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestIssueMintsDistinctTickets(t *testing.T) {
	svc, id := newTestService(t, 5)
	ctx := context.Background()

	tickets, err := svc.Issue(ctx, id, 3, buyer(100), "cs_abc")
	require.NoError(t, err)
	require.Len(t, tickets, 3)

	seen := make(map[string]bool)
	for _, ticket := range tickets {
		assert.NotEmpty(t, ticket.ID)
		assert.False(t, seen[ticket.ID], "duplicate ticket id %s", ticket.ID)
		seen[ticket.ID] = true
		assert.Equal(t, id, ticket.EventID)
		assert.Equal(t, int64(100), ticket.UserID)
		assert.Equal(t, "cs_abc", ticket.CheckoutRef)
		assert.NotEmpty(t, ticket.Code)
	}

	remaining, err := svc.Remaining(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestIssueOverCapacity(t *testing.T) {
	svc, id := newTestService(t, 5)
	ctx := context.Background()

	_, err := svc.Issue(ctx, id, 4, buyer(100), "cs_first")
	require.NoError(t, err)

	_, err = svc.Issue(ctx, id, 2, buyer(200), "cs_second")
	assert.ErrorIs(t, err, status.ErrOversold)

	// The losing attempt must not consume anything.
	remaining, err := svc.Remaining(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestIssueOnArchivedEventStillWorks(t *testing.T) {
	svc, id := newTestService(t, 5)
	ctx := context.Background()

	require.NoError(t, svc.SetEventActive(ctx, id, false))

	tickets, err := svc.Issue(ctx, id, 1, buyer(100), "cs_paid_before_archive")
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestIssueReplayedCheckoutRef(t *testing.T) {
	svc, id := newTestService(t, 5)
	ctx := context.Background()

	first, err := svc.Issue(ctx, id, 2, buyer(100), "cs_replay")
	require.NoError(t, err)
	require.Len(t, first, 2)

	_, err = svc.Issue(ctx, id, 2, buyer(100), "cs_replay")
	assert.ErrorIs(t, err, status.ErrAlreadyFulfilled)

	remaining, err := svc.Remaining(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestIssueLastTicketRace(t *testing.T) {
	svc, id := newTestService(t, 1)
	ctx := context.Background()

	const racers = 10
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Issue(ctx, id, 1, buyer(int64(i)), fmt.Sprintf("cs_race_%d", i))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, status.ErrOversold)
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer may take the last ticket")

	remaining, err := svc.Remaining(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestConcurrentIssuesNeverOversell(t *testing.T) {
	const capacity = 7
	svc, id := newTestService(t, capacity)
	ctx := context.Background()

	const buyers = 5
	const perBuyer = 2 // 10 requested in total, only 7 exist

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Issue(ctx, id, perBuyer, buyer(int64(i)), fmt.Sprintf("cs_flood_%d", i))
		}(i)
	}
	wg.Wait()

	remaining, err := svc.Remaining(ctx, id)
	require.NoError(t, err)

	sold := capacity - remaining
	assert.LessOrEqual(t, sold, capacity)
	assert.Equal(t, 0, sold%perBuyer, "partial issues must not happen")
}

func TestReserveThenIssueAlwaysSucceedsAlone(t *testing.T) {
	svc, id := newTestService(t, 5)
	ctx := context.Background()

	// Without a competing purchase, a successful reservation is always
	// issuable.
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.TryReserve(ctx, id, 1))
		_, err := svc.Issue(ctx, id, 1, buyer(int64(i)), fmt.Sprintf("cs_seq_%d", i))
		require.NoError(t, err)
	}

	remaining, err := svc.Remaining(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestAddEventRejectsZeroCapacity(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.AddEvent(context.Background(), models.Event{
		Name:         "Empty",
		TotalTickets: 0,
	})
	assert.Error(t, err)
}

func TestTicketHoldersDeduplicated(t *testing.T) {
	svc, id := newTestService(t, 10)
	ctx := context.Background()

	_, err := svc.Issue(ctx, id, 3, buyer(100), "cs_h1")
	require.NoError(t, err)
	_, err = svc.Issue(ctx, id, 1, buyer(200), "cs_h2")
	require.NoError(t, err)

	holders, err := svc.TicketHolders(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 200}, holders)
}

func TestUserTicketsJoinEventDetails(t *testing.T) {
	svc, id := newTestService(t, 10)
	ctx := context.Background()

	_, err := svc.Issue(ctx, id, 2, buyer(100), "cs_view")
	require.NoError(t, err)

	views, err := svc.UserTickets(ctx, 100)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Rooftop Rave", views[0].Name)
	assert.Equal(t, "2026-09-12", views[0].Date)
}
