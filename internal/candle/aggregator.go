// Package candle rebuilds OHLC series from the ordered trade ledger.
//
// Candles are never cached or persisted: any resolution is a fresh linear
// pass over the same ledger, so changing resolution needs no migration and
// two rebuilds from the same ledger are byte-for-byte identical.
package candle

import (
	"errors"

	"glue-exchange/internal/domain"
)

// ErrInvalidResolution is returned for a non-positive bucket width.
var ErrInvalidResolution = errors.New("resolution must be positive")

// Build aggregates trades into candles of the given bucket width.
// Trades must be in ascending timestamp order (ledger order).
// A trade belongs to bucket floor(timestamp/resolutionMs)*resolutionMs.
func Build(trades []*domain.TradeRecord, resolutionMs int64) ([]domain.Candle, error) {
	if resolutionMs <= 0 {
		return nil, ErrInvalidResolution
	}
	if len(trades) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(trades))
	var open *domain.Candle

	for _, t := range trades {
		bucket := (t.TimestampMs / resolutionMs) * resolutionMs

		if open == nil || open.BucketStart != bucket {
			if open != nil {
				candles = append(candles, *open)
			}
			open = &domain.Candle{
				BucketStart: bucket,
				Open:        t.PriceStart,
				High:        t.PriceHigh,
				Low:         t.PriceLow,
				Close:       t.PriceEnd,
			}
			continue
		}

		if t.PriceHigh > open.High {
			open.High = t.PriceHigh
		}
		if t.PriceLow < open.Low {
			open.Low = t.PriceLow
		}
		open.Close = t.PriceEnd // last trade wins
	}

	candles = append(candles, *open)
	return candles, nil
}
