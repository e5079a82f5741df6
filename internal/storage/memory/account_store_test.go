package memory

import (
	"context"
	"errors"
	"testing"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

func TestAccountStore_CreditDebitBalance(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Credit(ctx, "acct-1", domain.CurrencyCoins, 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if err := store.Debit(ctx, "acct-1", domain.CurrencyCoins, 40); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	bal, err := store.GetBalance(ctx, "acct-1", domain.CurrencyCoins)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if bal != 60 {
		t.Errorf("balance: got %v, want 60", bal)
	}
}

func TestAccountStore_DebitBelowZero(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Credit(ctx, "acct-1", domain.CurrencyGlue, 5); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	err := store.Debit(ctx, "acct-1", domain.CurrencyGlue, 6)
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// Balance unchanged after the failed debit.
	bal, _ := store.GetBalance(ctx, "acct-1", domain.CurrencyGlue)
	if bal != 5 {
		t.Errorf("balance mutated by failed debit: got %v, want 5", bal)
	}
}

func TestAccountStore_DebitUnknownAccount(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Debit(ctx, "ghost", domain.CurrencyCoins, 1); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestAccountStore_UnknownAccountBalanceIsZero(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	bal, err := store.GetBalance(ctx, "ghost", domain.CurrencyCoins)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if bal != 0 {
		t.Errorf("expected 0 balance for unknown account, got %v", bal)
	}
}

func TestAccountStore_CurrenciesAreIndependent(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Credit(ctx, "acct-1", domain.CurrencyCoins, 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	glue, _ := store.GetBalance(ctx, "acct-1", domain.CurrencyGlue)
	if glue != 0 {
		t.Errorf("GLUE balance should be 0, got %v", glue)
	}
}

func TestAccountStore_RejectsNonPositiveAmounts(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Credit(ctx, "acct-1", domain.CurrencyCoins, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Credit 0: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Debit(ctx, "acct-1", domain.CurrencyCoins, -5); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Debit -5: expected ErrInvalidInput, got %v", err)
	}
}
