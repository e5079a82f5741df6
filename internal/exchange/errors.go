package exchange

import "errors"

// Trade rejection errors. All of them are raised before any mutation is
// committed; a caller observing one of these can assume nothing changed.
var (
	ErrMarketClosed             = errors.New("market is closed")
	ErrInvalidAmount            = errors.New("trade amount must be a positive integer")
	ErrInvalidSide              = errors.New("side must be BUY or SELL")
	ErrInsufficientBalance      = errors.New("insufficient coin balance")
	ErrInsufficientAssetBalance = errors.New("insufficient GLUE balance")
	ErrInsufficientLiquidity    = errors.New("sell exceeds circulating supply")
)
