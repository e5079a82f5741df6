package postgres

import (
	"context"
	"fmt"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// MarketStateStore implements storage.MarketStateStore using PostgreSQL.
type MarketStateStore struct {
	pool *Pool
}

// NewMarketStateStore creates a new MarketStateStore.
func NewMarketStateStore(pool *Pool) *MarketStateStore {
	return &MarketStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStateStore = (*MarketStateStore)(nil)

// Get retrieves the state for a season. Returns ErrNotFound if not exists.
func (s *MarketStateStore) Get(ctx context.Context, seasonID int) (*domain.MarketState, error) {
	query := `
		SELECT season_id, supply, base_price, multiplier, is_open, total_burned
		FROM market_state
		WHERE season_id = $1
	`

	var state domain.MarketState
	err := s.pool.QueryRow(ctx, query, seasonID).Scan(
		&state.SeasonID, &state.Supply, &state.BasePrice,
		&state.Multiplier, &state.IsOpen, &state.TotalBurned,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market state: %w", err)
	}
	return &state, nil
}

// Put inserts or replaces the state row for state.SeasonID.
func (s *MarketStateStore) Put(ctx context.Context, state *domain.MarketState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO market_state (season_id, supply, base_price, multiplier, is_open, total_burned)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (season_id) DO UPDATE SET
			supply = EXCLUDED.supply,
			base_price = EXCLUDED.base_price,
			multiplier = EXCLUDED.multiplier,
			is_open = EXCLUDED.is_open,
			total_burned = EXCLUDED.total_burned
	`

	_, err := s.pool.Exec(ctx, query,
		state.SeasonID, state.Supply, state.BasePrice,
		state.Multiplier, state.IsOpen, state.TotalBurned,
	)
	if err != nil {
		return fmt.Errorf("put market state: %w", err)
	}
	return nil
}
