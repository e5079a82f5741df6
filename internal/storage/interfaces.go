package storage

import (
	"context"

	"glue-exchange/internal/domain"
)

// MarketStateStore provides access to the market_state singleton.
type MarketStateStore interface {
	// Get retrieves the state for a season. Returns ErrNotFound if not exists.
	Get(ctx context.Context, seasonID int) (*domain.MarketState, error)

	// Put inserts or replaces the state row for state.SeasonID.
	Put(ctx context.Context, state *domain.MarketState) error
}

// TradeStore provides access to the append-only trade ledger.
type TradeStore interface {
	// Append adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Append(ctx context.Context, t *domain.TradeRecord) error

	// GetAll retrieves every trade, ordered by timestamp_ms ASC, trade_id ASC.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)

	// GetByTimeRange retrieves trades within [start, end] (inclusive, ms),
	// ordered by timestamp_ms ASC, trade_id ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeRecord, error)

	// Count returns the ledger length.
	Count(ctx context.Context) (int, error)

	// Reset wipes the ledger. Only legal at season rollover.
	Reset(ctx context.Context) error
}

// AccountStore is the external account ledger: per-account balances in
// coins and GLUE. Balances never go negative.
type AccountStore interface {
	// Credit adds amount to the account's balance, creating the account
	// on first use. amount must be positive.
	Credit(ctx context.Context, accountID string, currency domain.Currency, amount float64) error

	// Debit subtracts amount from the account's balance. Returns
	// ErrInsufficientFunds if the balance would go negative.
	Debit(ctx context.Context, accountID string, currency domain.Currency, amount float64) error

	// GetBalance returns the current balance, 0 for unknown accounts.
	GetBalance(ctx context.Context, accountID string, currency domain.Currency) (float64, error)
}

// SimulationAggregateStore provides access to simulation_aggregates,
// the calibration history of statistics-mode batches.
type SimulationAggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, a *domain.SimulationAggregate) error

	// GetAll retrieves all aggregates, ordered by created_at_ms ASC.
	GetAll(ctx context.Context) ([]*domain.SimulationAggregate, error)
}
