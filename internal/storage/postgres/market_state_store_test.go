package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
	"glue-exchange/internal/storage/postgres"
)

func TestMarketStateStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMarketStateStore(pool)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarketStateStore_PutAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMarketStateStore(pool)
	ctx := context.Background()

	state := &domain.MarketState{
		SeasonID:   1,
		Supply:     1000,
		BasePrice:  50,
		Multiplier: 1.0003,
		IsOpen:     true,
	}
	require.NoError(t, store.Put(ctx, state))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestMarketStateStore_PutReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMarketStateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.MarketState{
		SeasonID: 1, Supply: 0, BasePrice: 50, Multiplier: 1.0003, IsOpen: true,
	}))
	require.NoError(t, store.Put(ctx, &domain.MarketState{
		SeasonID: 1, Supply: 250, BasePrice: 50, Multiplier: 1.0003, IsOpen: false, TotalBurned: 12.5,
	}))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Supply)
	assert.False(t, got.IsOpen)
	assert.Equal(t, 12.5, got.TotalBurned)
}
