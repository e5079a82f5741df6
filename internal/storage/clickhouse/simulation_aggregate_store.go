package clickhouse

import (
	"context"
	"fmt"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// SimulationAggregateStore implements storage.SimulationAggregateStore
// using ClickHouse.
type SimulationAggregateStore struct {
	conn *Conn
}

// NewSimulationAggregateStore creates a new SimulationAggregateStore.
func NewSimulationAggregateStore(conn *Conn) *SimulationAggregateStore {
	return &SimulationAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationAggregateStore = (*SimulationAggregateStore)(nil)

// Insert adds a new aggregate. Returns ErrDuplicateKey if run_id exists.
// MergeTree does not enforce uniqueness, so the check is explicit.
func (s *SimulationAggregateStore) Insert(ctx context.Context, a *domain.SimulationAggregate) error {
	exists, err := s.exists(ctx, a.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO simulation_aggregates (
			run_id, created_at_ms, iterations, days, initial_price,
			avg_price, median_price, min_price, max_price,
			p05_price, p95_price, win_rate, avg_volume_per_sim
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		a.RunID, uint64(a.CreatedAtMs), uint32(a.Iterations), uint32(a.Days), a.InitialPrice,
		a.AvgPrice, a.MedianPrice, a.MinPrice, a.MaxPrice,
		a.P05Price, a.P95Price, a.WinRate, a.AvgVolumePerSim,
	)
	if err != nil {
		return fmt.Errorf("insert simulation aggregate: %w", err)
	}
	return nil
}

// GetAll retrieves all aggregates, ordered by created_at_ms ASC.
func (s *SimulationAggregateStore) GetAll(ctx context.Context) ([]*domain.SimulationAggregate, error) {
	query := `
		SELECT
			run_id, created_at_ms, iterations, days, initial_price,
			avg_price, median_price, min_price, max_price,
			p05_price, p95_price, win_rate, avg_volume_per_sim
		FROM simulation_aggregates
		ORDER BY created_at_ms ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query simulation aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []*domain.SimulationAggregate
	for rows.Next() {
		var (
			a          domain.SimulationAggregate
			createdAt  uint64
			iterations uint32
			days       uint32
		)
		err := rows.Scan(
			&a.RunID, &createdAt, &iterations, &days, &a.InitialPrice,
			&a.AvgPrice, &a.MedianPrice, &a.MinPrice, &a.MaxPrice,
			&a.P05Price, &a.P95Price, &a.WinRate, &a.AvgVolumePerSim,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		a.CreatedAtMs = int64(createdAt)
		a.Iterations = int(iterations)
		a.Days = int(days)
		aggregates = append(aggregates, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return aggregates, nil
}

// exists checks if an aggregate with the given run_id exists.
func (s *SimulationAggregateStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM simulation_aggregates WHERE run_id = ?`, runID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
