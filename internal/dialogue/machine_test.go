package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyflow/internal/status"
	"partyflow/models"
)

type checkoutRecorder struct {
	calls     int
	lastEvent string
	lastBuyer models.Purchaser
	lastQty   int
	url       string
	err       error
}

func (r *checkoutRecorder) begin(ctx context.Context, eventID string, buyer models.Purchaser, quantity int) (string, error) {
	r.calls++
	r.lastEvent = eventID
	r.lastBuyer = buyer
	r.lastQty = quantity
	if r.err != nil {
		return "", r.err
	}
	return r.url, nil
}

func newTestMachine(recorder *checkoutRecorder) (*Machine, Store) {
	store := NewMemoryStore(time.Minute)
	machine := NewMachine(store, recorder.begin, "IL", 5, 3)
	return machine, store
}

func TestDialogueHappyPath(t *testing.T) {
	recorder := &checkoutRecorder{url: "https://pay.example/cs_1"}
	machine, store := newTestMachine(recorder)
	ctx := context.Background()

	session, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingQuantity, session.State)

	outcome, err := machine.SetQuantity(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, outcome.State)

	outcome, err = machine.HandleText(ctx, 7, "Dana Levi")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingPhone, outcome.State)

	outcome, err = machine.HandleText(ctx, 7, "050-123-4567")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", outcome.CheckoutURL)

	require.Equal(t, 1, recorder.calls)
	assert.Equal(t, "evt1", recorder.lastEvent)
	assert.Equal(t, 2, recorder.lastQty)
	assert.Equal(t, "Dana Levi", recorder.lastBuyer.Name)
	assert.Equal(t, "+972501234567", recorder.lastBuyer.Phone)
	assert.Equal(t, int64(7), recorder.lastBuyer.ChatID)

	// Conversation is over.
	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, status.ErrSessionExpired)
}

func TestSetQuantityOutOfRange(t *testing.T) {
	recorder := &checkoutRecorder{}
	machine, _ := newTestMachine(recorder)
	ctx := context.Background()

	_, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)

	_, err = machine.SetQuantity(ctx, 7, 6)
	assert.ErrorIs(t, err, ErrBadQuantity)

	_, err = machine.SetQuantity(ctx, 7, 0)
	assert.ErrorIs(t, err, ErrBadQuantity)

	// A valid pick still works afterwards.
	outcome, err := machine.SetQuantity(ctx, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, outcome.State)
}

func TestTextWithoutSession(t *testing.T) {
	recorder := &checkoutRecorder{}
	machine, _ := newTestMachine(recorder)

	_, err := machine.HandleText(context.Background(), 7, "hello")
	assert.ErrorIs(t, err, status.ErrSessionExpired)
}

func TestFreeTextDuringQuantityStep(t *testing.T) {
	recorder := &checkoutRecorder{}
	machine, _ := newTestMachine(recorder)
	ctx := context.Background()

	_, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)

	outcome, err := machine.HandleText(ctx, 7, "three please")
	require.NoError(t, err)
	assert.True(t, outcome.Retry)
	assert.Equal(t, StateAwaitingQuantity, outcome.State)
}

func TestInvalidPhoneRetriesThenAbandons(t *testing.T) {
	recorder := &checkoutRecorder{url: "https://pay.example/cs_1"}
	machine, store := newTestMachine(recorder)
	ctx := context.Background()

	_, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)
	_, err = machine.SetQuantity(ctx, 7, 1)
	require.NoError(t, err)
	_, err = machine.HandleText(ctx, 7, "Dana Levi")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		outcome, err := machine.HandleText(ctx, 7, "not a phone")
		require.NoError(t, err)
		assert.True(t, outcome.Retry)
		assert.Equal(t, StateAwaitingPhone, outcome.State)
	}

	outcome, err := machine.HandleText(ctx, 7, "still not a phone")
	require.NoError(t, err)
	assert.True(t, outcome.Abandoned)

	assert.Equal(t, 0, recorder.calls, "abandoned dialogue must not reach checkout")
	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, status.ErrSessionExpired)
}

func TestInvalidPhoneThenValid(t *testing.T) {
	recorder := &checkoutRecorder{url: "https://pay.example/cs_1"}
	machine, _ := newTestMachine(recorder)
	ctx := context.Background()

	_, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)
	_, err = machine.SetQuantity(ctx, 7, 1)
	require.NoError(t, err)
	_, err = machine.HandleText(ctx, 7, "Dana Levi")
	require.NoError(t, err)

	outcome, err := machine.HandleText(ctx, 7, "nope")
	require.NoError(t, err)
	assert.True(t, outcome.Retry)

	outcome, err = machine.HandleText(ctx, 7, "0501234567")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", outcome.CheckoutURL)
}

func TestCheckoutErrorPropagatesAndClosesSession(t *testing.T) {
	recorder := &checkoutRecorder{err: status.ErrOversold}
	machine, store := newTestMachine(recorder)
	ctx := context.Background()

	_, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)
	_, err = machine.SetQuantity(ctx, 7, 3)
	require.NoError(t, err)
	_, err = machine.HandleText(ctx, 7, "Dana Levi")
	require.NoError(t, err)

	_, err = machine.HandleText(ctx, 7, "0501234567")
	assert.ErrorIs(t, err, status.ErrOversold)

	// The session is gone either way, a retry starts fresh.
	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, status.ErrSessionExpired)
}

func TestStartPurchaseReplacesPreviousSession(t *testing.T) {
	recorder := &checkoutRecorder{}
	machine, store := newTestMachine(recorder)
	ctx := context.Background()

	_, err := machine.StartPurchase(ctx, 7, "evt1")
	require.NoError(t, err)
	_, err = machine.SetQuantity(ctx, 7, 2)
	require.NoError(t, err)

	_, err = machine.StartPurchase(ctx, 7, "evt2")
	require.NoError(t, err)

	session, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "evt2", session.EventID)
	assert.Equal(t, StateAwaitingQuantity, session.State)
	assert.Equal(t, 0, session.Quantity)
}
