package memory

import (
	"context"
	"sort"
	"sync"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// SimulationAggregateStore is an in-memory implementation of
// storage.SimulationAggregateStore.
type SimulationAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationAggregate // keyed by run_id
}

// NewSimulationAggregateStore creates a new in-memory aggregate store.
func NewSimulationAggregateStore() *SimulationAggregateStore {
	return &SimulationAggregateStore{
		data: make(map[string]*domain.SimulationAggregate),
	}
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if run_id exists.
func (s *SimulationAggregateStore) Insert(_ context.Context, a *domain.SimulationAggregate) error {
	if a == nil || a.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[a.RunID] = &copy
	return nil
}

// GetAll retrieves all aggregates, ordered by created_at_ms ASC.
func (s *SimulationAggregateStore) GetAll(_ context.Context) ([]*domain.SimulationAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationAggregate
	for _, a := range s.data {
		copy := *a
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.SimulationAggregateStore = (*SimulationAggregateStore)(nil)
