package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

func newStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Minute), mr
}

func TestIdempotencyRejectsReplay(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "abc", "order-lines"))
	err := store.CheckAndInsert(ctx, "abc", "order-lines")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.True(t, errors.Is(err, httpx.ErrConflict))

	require.NoError(t, store.CheckAndInsert(ctx, "abc", "orders"), "keys are scoped per module")
}

func TestIdempotencyDeleteReleasesKey(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "k1", "orders"))
	require.NoError(t, store.Delete(ctx, "k1", "orders"))
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "orders"))
}

func TestIdempotencyKeyExpires(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "k2", "orders"))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, store.CheckAndInsert(ctx, "k2", "orders"))
}

func TestIdempotencyDisabledWithoutClient(t *testing.T) {
	store := NewIdempotencyStore(nil, 0)
	require.NoError(t, store.CheckAndInsert(context.Background(), "", ""))
	var nilStore *IdempotencyStore
	require.NoError(t, nilStore.Delete(context.Background(), "x", "y"))
}
