package memory

import (
	"context"
	"sync"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]map[domain.Currency]float64 // account_id -> currency -> balance
}

// NewAccountStore creates a new in-memory account ledger.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]map[domain.Currency]float64),
	}
}

// Credit adds amount to the account's balance, creating the account on
// first use.
func (s *AccountStore) Credit(_ context.Context, accountID string, currency domain.Currency, amount float64) error {
	if accountID == "" || amount <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balances, exists := s.data[accountID]
	if !exists {
		balances = make(map[domain.Currency]float64)
		s.data[accountID] = balances
	}
	balances[currency] += amount
	return nil
}

// Debit subtracts amount from the account's balance. Returns
// ErrInsufficientFunds if the balance would go negative.
func (s *AccountStore) Debit(_ context.Context, accountID string, currency domain.Currency, amount float64) error {
	if accountID == "" || amount <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balances, exists := s.data[accountID]
	if !exists || balances[currency] < amount {
		return storage.ErrInsufficientFunds
	}
	balances[currency] -= amount
	return nil
}

// GetBalance returns the current balance, 0 for unknown accounts.
func (s *AccountStore) GetBalance(_ context.Context, accountID string, currency domain.Currency) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances, exists := s.data[accountID]
	if !exists {
		return 0, nil
	}
	return balances[currency], nil
}

var _ storage.AccountStore = (*AccountStore)(nil)
