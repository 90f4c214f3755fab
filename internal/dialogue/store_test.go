package dialogue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyflow/internal/status"
)

func TestRedisStorePut(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Minute)

	session := &Session{
		ChatID:  7,
		EventID: "evt1",
		State:   StateAwaitingName,
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectSet("dialogue:7", raw, time.Minute).SetVal("OK")

	require.NoError(t, store.Put(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Minute)

	session := &Session{
		ChatID:   7,
		EventID:  "evt1",
		State:    StateAwaitingPhone,
		Quantity: 3,
		Name:     "Dana Levi",
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectGet("dialogue:7").SetVal(string(raw))

	got, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingPhone, got.State)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, "Dana Levi", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreGetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Minute)

	mock.ExpectGet("dialogue:7").RedisNil()

	_, err := store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, status.ErrSessionExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Minute)

	mock.ExpectDel("dialogue:7").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	session := &Session{ChatID: 7, EventID: "evt1", State: StateAwaitingQuantity}
	require.NoError(t, store.Put(ctx, session))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "evt1", got.EventID)

	require.NoError(t, store.Delete(ctx, 7))
	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, status.ErrSessionExpired)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Session{ChatID: 7, State: StateAwaitingQuantity}))

	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, 7)
	assert.ErrorIs(t, err, status.ErrSessionExpired)
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	session := &Session{ChatID: 7, State: StateAwaitingQuantity}
	require.NoError(t, store.Put(ctx, session))

	// Mutating the caller's copy must not change the stored one.
	session.State = StateAwaitingPhone

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingQuantity, got.State)
}
