package domain

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRecord is one executed trade in the append-only ledger.
// Corresponds to the trade_records table. Immutable once written; the
// sole source of truth for historical price reconstruction.
type TradeRecord struct {
	TradeID     string  // deterministic hash
	AccountID   string  // trading account
	Side        Side    // BUY or SELL
	AssetAmount int64   // GLUE units moved
	CoinAmount  float64 // coins moved (cost on buy, proceeds on sell)
	PriceStart  float64 // unit price where the trade began on the curve
	PriceEnd    float64 // unit price where the trade left the curve
	PriceHigh   float64 // max(PriceStart, PriceEnd)
	PriceLow    float64 // min(PriceStart, PriceEnd)
	TimestampMs int64   // execution time, Unix ms
}

// Candle is an OHLC summary of trades inside one time bucket.
// Derived on demand from TradeRecords, never persisted.
type Candle struct {
	BucketStart int64   // bucket start, Unix ms, truncated to resolution
	Open        float64 // PriceStart of the first trade in the bucket
	High        float64 // max PriceHigh in the bucket
	Low         float64 // min PriceLow in the bucket
	Close       float64 // PriceEnd of the last trade in the bucket
}
