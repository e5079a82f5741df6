package memory

import (
	"context"
	"sort"
	"sync"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu     sync.RWMutex
	trades []*domain.TradeRecord
	byID   map[string]struct{}
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		byID: make(map[string]struct{}),
	}
}

// Append adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Append(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.trades = append(s.trades, &copy)
	s.byID[t.TradeID] = struct{}{}
	return nil
}

// GetAll retrieves every trade, ordered by timestamp_ms ASC, trade_id ASC.
func (s *TradeStore) GetAll(_ context.Context) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedCopy(func(*domain.TradeRecord) bool { return true }), nil
}

// GetByTimeRange retrieves trades within [start, end] (inclusive, ms).
func (s *TradeStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedCopy(func(t *domain.TradeRecord) bool {
		return t.TimestampMs >= start && t.TimestampMs <= end
	}), nil
}

// Count returns the ledger length.
func (s *TradeStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades), nil
}

// Reset wipes the ledger. Only legal at season rollover.
func (s *TradeStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = nil
	s.byID = make(map[string]struct{})
	return nil
}

// sortedCopy returns matching trades as copies in ledger order.
// Caller must hold at least the read lock.
func (s *TradeStore) sortedCopy(match func(*domain.TradeRecord) bool) []*domain.TradeRecord {
	var result []*domain.TradeRecord
	for _, t := range s.trades {
		if match(t) {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].TradeID < result[j].TradeID
	})

	return result
}

var _ storage.TradeStore = (*TradeStore)(nil)
