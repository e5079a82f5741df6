package memory

import (
	"context"
	"sync"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// MarketStateStore is an in-memory implementation of storage.MarketStateStore.
type MarketStateStore struct {
	mu   sync.RWMutex
	data map[int]*domain.MarketState // keyed by season_id
}

// NewMarketStateStore creates a new in-memory market state store.
func NewMarketStateStore() *MarketStateStore {
	return &MarketStateStore{
		data: make(map[int]*domain.MarketState),
	}
}

// Get retrieves the state for a season. Returns ErrNotFound if not exists.
func (s *MarketStateStore) Get(_ context.Context, seasonID int) (*domain.MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.data[seasonID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *state
	return &copy, nil
}

// Put inserts or replaces the state row for state.SeasonID.
func (s *MarketStateStore) Put(_ context.Context, state *domain.MarketState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *state
	s.data[state.SeasonID] = &copy
	return nil
}

var _ storage.MarketStateStore = (*MarketStateStore)(nil)
