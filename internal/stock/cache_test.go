package stock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/grainledger/grainledger/internal/movement"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheVersionedKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key1, err := cache.BuildKey(ctx, "stock", "state", "1")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	key2, err := cache.BuildKey(ctx, "stock", "state", "1")
	require.NoError(t, err)
	require.NotEqual(t, key1, key2)
}

func TestCurrentStateServedFromCacheUntilInvalidated(t *testing.T) {
	repo := &fakeRepo{movements: []movement.Movement{
		{Serial: "MV-1", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 100, NetWeight: 5000, AcquisitionRate: 2000},
	}}
	svc := NewService(repo, newTestCache(t))
	ctx := context.Background()

	state, err := svc.CurrentState(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 100, state.Bags)

	// A new approval lands; without invalidation the cached value is served.
	repo.movements = append(repo.movements, movement.Movement{
		Serial: "MV-2", Date: day(2), Seq: 2, Status: movement.StatusApproved,
		ToSubLocationID: 1, Bags: 50, NetWeight: 2500, AcquisitionRate: 2000,
	})
	state, err = svc.CurrentState(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 100, state.Bags)

	require.NoError(t, svc.Invalidate(ctx))

	state, err = svc.CurrentState(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 150, state.Bags)
}
