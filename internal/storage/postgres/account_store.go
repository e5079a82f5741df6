package postgres

import (
	"context"
	"fmt"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
//
// Balance rows are keyed (account_id, currency). Debit uses a guarded
// UPDATE so the non-negative balance invariant holds even under
// concurrent access from outside the engine's lock.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Credit adds amount to the account's balance, creating the row on
// first use.
func (s *AccountStore) Credit(ctx context.Context, accountID string, currency domain.Currency, amount float64) error {
	if accountID == "" || amount <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO accounts (account_id, currency, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, currency) DO UPDATE SET
			balance = accounts.balance + EXCLUDED.balance
	`

	if _, err := s.pool.Exec(ctx, query, accountID, string(currency), amount); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// Debit subtracts amount from the account's balance. Returns
// ErrInsufficientFunds if the balance would go negative.
func (s *AccountStore) Debit(ctx context.Context, accountID string, currency domain.Currency, amount float64) error {
	if accountID == "" || amount <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE accounts
		SET balance = balance - $3
		WHERE account_id = $1 AND currency = $2 AND balance >= $3
	`

	tag, err := s.pool.Exec(ctx, query, accountID, string(currency), amount)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrInsufficientFunds
	}
	return nil
}

// GetBalance returns the current balance, 0 for unknown accounts.
func (s *AccountStore) GetBalance(ctx context.Context, accountID string, currency domain.Currency) (float64, error) {
	query := `
		SELECT balance FROM accounts
		WHERE account_id = $1 AND currency = $2
	`

	var balance float64
	err := s.pool.QueryRow(ctx, query, accountID, string(currency)).Scan(&balance)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}
