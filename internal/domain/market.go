package domain

// MarketState is the singleton market record for a trading season.
// Corresponds to the market_state table. Mutated only by the execution
// engine and admin control, reset wholesale at season rollover.
type MarketState struct {
	SeasonID    int     // season identifier, primary key
	Supply      int64   // GLUE units in circulation
	BasePrice   float64 // unit price at supply 0
	Multiplier  float64 // per-unit growth factor, > 1
	IsOpen      bool    // circuit breaker flag
	TotalBurned float64 // coins destroyed by sell fees, cumulative
}

// Currency identifies one side of an account balance in the ledger.
type Currency string

const (
	CurrencyCoins Currency = "COINS"
	CurrencyGlue  Currency = "GLUE"
)
