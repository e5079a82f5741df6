package candle

import (
	"errors"
	"reflect"
	"testing"

	"glue-exchange/internal/domain"
)

func tr(id string, ts int64, start, end float64) *domain.TradeRecord {
	high, low := start, end
	if end > high {
		high, low = end, start
	}
	return &domain.TradeRecord{
		TradeID:     id,
		TimestampMs: ts,
		PriceStart:  start,
		PriceEnd:    end,
		PriceHigh:   high,
		PriceLow:    low,
	}
}

func TestBuild_Bucketing(t *testing.T) {
	trades := []*domain.TradeRecord{
		tr("t1", 1000, 50, 51),  // bucket 0
		tr("t2", 59999, 51, 53), // bucket 0
		tr("t3", 60000, 53, 52), // bucket 60000
	}

	candles, err := Build(trades, 60000)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}

	first := candles[0]
	if first.BucketStart != 0 {
		t.Errorf("first bucket: got %d, want 0", first.BucketStart)
	}
	if first.Open != 50 || first.High != 53 || first.Low != 50 || first.Close != 53 {
		t.Errorf("first candle OHLC mismatch: %+v", first)
	}

	second := candles[1]
	if second.BucketStart != 60000 {
		t.Errorf("second bucket: got %d, want 60000", second.BucketStart)
	}
	if second.Open != 53 || second.Close != 52 {
		t.Errorf("second candle mismatch: %+v", second)
	}
}

func TestBuild_LastCloseWins(t *testing.T) {
	trades := []*domain.TradeRecord{
		tr("t1", 100, 50, 55),
		tr("t2", 200, 55, 48), // sell pushes close down
		tr("t3", 300, 48, 52),
	}

	candles, err := Build(trades, 60000)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if candles[0].Close != 52 {
		t.Errorf("close: got %v, want 52 (last trade's PriceEnd)", candles[0].Close)
	}
	if candles[0].High != 55 || candles[0].Low != 48 {
		t.Errorf("high/low: got %v/%v, want 55/48", candles[0].High, candles[0].Low)
	}
}

func TestBuild_DeterministicAndIdempotent(t *testing.T) {
	trades := []*domain.TradeRecord{
		tr("t1", 1000, 50, 51),
		tr("t2", 61000, 51, 49),
		tr("t3", 62000, 49, 52),
		tr("t4", 121000, 52, 53),
	}

	a, err := Build(trades, 60000)
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	b, err := Build(trades, 60000)
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("two builds from the same ledger differ")
	}
}

func TestBuild_LowOpenCloseHighOrdering(t *testing.T) {
	trades := []*domain.TradeRecord{
		tr("t1", 1000, 50, 51),
		tr("t2", 2000, 51, 47),
		tr("t3", 62000, 47, 55),
		tr("t4", 63000, 55, 54),
	}

	candles, err := Build(trades, 60000)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i, c := range candles {
		if c.Low > c.Open || c.Low > c.Close || c.High < c.Open || c.High < c.Close {
			t.Errorf("candle %d violates low <= open,close <= high: %+v", i, c)
		}
	}
}

func TestBuild_ResolutionIndependence(t *testing.T) {
	trades := []*domain.TradeRecord{
		tr("t1", 1000, 50, 51),
		tr("t2", 61000, 51, 49),
		tr("t3", 150000, 49, 52),
	}

	// Coarser resolution collapses buckets but preserves totals.
	coarse, err := Build(trades, 300000)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(coarse) != 1 {
		t.Fatalf("expected 1 coarse candle, got %d", len(coarse))
	}
	if coarse[0].Open != 50 || coarse[0].Close != 52 {
		t.Errorf("coarse candle mismatch: %+v", coarse[0])
	}
}

func TestBuild_EmptyAndInvalid(t *testing.T) {
	candles, err := Build(nil, 60000)
	if err != nil {
		t.Fatalf("Build of empty ledger failed: %v", err)
	}
	if candles != nil {
		t.Errorf("expected nil candles for empty ledger, got %v", candles)
	}

	if _, err := Build(nil, 0); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("expected ErrInvalidResolution, got %v", err)
	}
}
