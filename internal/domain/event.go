package domain

// MarketEvent is the real-time notification broadcast after a trade
// commits. Published best-effort; never part of the trade transaction.
type MarketEvent struct {
	Time   int64   `json:"time"` // Unix seconds
	Price  float64 `json:"price"`
	Amount int64   `json:"amount"`
	Side   Side    `json:"side"`
	Supply int64   `json:"supply"`
}
