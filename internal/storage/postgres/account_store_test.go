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

func TestAccountStore_CreditAndGetBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Credit(ctx, "acct-1", domain.CurrencyCoins, 100))
	require.NoError(t, store.Credit(ctx, "acct-1", domain.CurrencyCoins, 50))
	require.NoError(t, store.Credit(ctx, "acct-1", domain.CurrencyGlue, 7))

	coins, err := store.GetBalance(ctx, "acct-1", domain.CurrencyCoins)
	require.NoError(t, err)
	assert.Equal(t, 150.0, coins)

	glue, err := store.GetBalance(ctx, "acct-1", domain.CurrencyGlue)
	require.NoError(t, err)
	assert.Equal(t, 7.0, glue)
}

func TestAccountStore_UnknownAccountIsZero(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)

	balance, err := store.GetBalance(context.Background(), "ghost", domain.CurrencyCoins)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestAccountStore_DebitGuardsBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Credit(ctx, "acct-1", domain.CurrencyCoins, 100))

	require.NoError(t, store.Debit(ctx, "acct-1", domain.CurrencyCoins, 60))

	err := store.Debit(ctx, "acct-1", domain.CurrencyCoins, 60)
	assert.ErrorIs(t, err, storage.ErrInsufficientFunds)

	// A failed debit leaves the balance unchanged.
	balance, err := store.GetBalance(ctx, "acct-1", domain.CurrencyCoins)
	require.NoError(t, err)
	assert.Equal(t, 40.0, balance)
}

func TestAccountStore_DebitUnknownAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)

	err := store.Debit(context.Background(), "ghost", domain.CurrencyCoins, 1)
	assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
}

func TestAccountStore_RejectsBadInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Credit(ctx, "", domain.CurrencyCoins, 10), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Credit(ctx, "acct-1", domain.CurrencyCoins, 0), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Debit(ctx, "acct-1", domain.CurrencyCoins, -5), storage.ErrInvalidInput)
}
