package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, account_id, side, asset_amount, coin_amount,
	price_start, price_end, price_high, price_low, timestamp_ms
`

// Append adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Append(ctx context.Context, t *domain.TradeRecord) error {
	query := `
		INSERT INTO trade_records (` + tradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.AccountID, string(t.Side), t.AssetAmount, t.CoinAmount,
		t.PriceStart, t.PriceEnd, t.PriceHigh, t.PriceLow, t.TimestampMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("append trade: %w", err)
	}
	return nil
}

// GetAll retrieves every trade in ledger order.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trade_records
		ORDER BY timestamp_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades within [start, end] inclusive, in
// ledger order.
func (s *TradeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trade_records
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// Count returns the ledger length.
func (s *TradeStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trade_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return count, nil
}

// Reset wipes the ledger. Only legal at season rollover.
func (s *TradeStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM trade_records`); err != nil {
		return fmt.Errorf("reset trades: %w", err)
	}
	return nil
}

// scanTrades scans multiple rows into a slice of TradeRecord.
func scanTrades(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		var t domain.TradeRecord
		var side string

		err := rows.Scan(
			&t.TradeID, &t.AccountID, &side, &t.AssetAmount, &t.CoinAmount,
			&t.PriceStart, &t.PriceEnd, &t.PriceHigh, &t.PriceLow, &t.TimestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.Side = domain.Side(side)

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
