package exchange

import (
	"context"
	"fmt"

	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
)

// Stats is the operator's view of the market.
type Stats struct {
	SeasonID    int     `json:"seasonId"`
	Supply      int64   `json:"circulatingSupply"`
	SpotPrice   float64 `json:"spotPrice"`
	BasePrice   float64 `json:"basePrice"`
	Multiplier  float64 `json:"multiplier"`
	IsOpen      bool    `json:"marketOpen"`
	TotalBurned float64 `json:"totalBurned"`
	TradeCount  int     `json:"tradeCount"`
}

// Stats reports current market state plus the ledger size.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	state, err := e.states.Get(ctx, e.SeasonID())
	if err != nil {
		return nil, fmt.Errorf("load market state: %w", err)
	}
	count, err := e.trades.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count trades: %w", err)
	}

	params := curve.Params{BasePrice: state.BasePrice, Multiplier: state.Multiplier}
	return &Stats{
		SeasonID:    state.SeasonID,
		Supply:      state.Supply,
		SpotPrice:   curve.UnitPrice(params, state.Supply),
		BasePrice:   state.BasePrice,
		Multiplier:  state.Multiplier,
		IsOpen:      state.IsOpen,
		TotalBurned: state.TotalBurned,
		TradeCount:  count,
	}, nil
}

// SetParameters recalibrates the curve. Validation happens before any
// write; an invalid pair leaves the market untouched. The new parameters
// apply to the next trade, historical records keep their original prices.
func (e *Engine) SetParameters(ctx context.Context, params curve.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.states.Get(ctx, e.SeasonID())
	if err != nil {
		return fmt.Errorf("load market state: %w", err)
	}
	state.BasePrice = params.BasePrice
	state.Multiplier = params.Multiplier
	if err := e.states.Put(ctx, state); err != nil {
		return fmt.Errorf("update market state: %w", err)
	}

	e.logger.Printf("curve recalibrated: base=%v multiplier=%v", params.BasePrice, params.Multiplier)
	return nil
}

// ToggleOpen flips the trading flag and returns the new value. While
// closed, trades are rejected but quotes, charts and stats keep working.
func (e *Engine) ToggleOpen(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.states.Get(ctx, e.SeasonID())
	if err != nil {
		return false, fmt.Errorf("load market state: %w", err)
	}
	state.IsOpen = !state.IsOpen
	if err := e.states.Put(ctx, state); err != nil {
		return false, fmt.Errorf("update market state: %w", err)
	}

	e.logger.Printf("market open = %v", state.IsOpen)
	return state.IsOpen, nil
}

// ResetSeason wipes the trade ledger and starts a fresh season at zero
// supply with the given curve. Account balances survive the reset; the
// GLUE positions of the old season simply have no market to sell into
// until holders trade in the new one.
func (e *Engine) ResetSeason(ctx context.Context, params curve.Params) (int, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.trades.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset trade ledger: %w", err)
	}

	next := e.SeasonID() + 1
	if err := e.states.Put(ctx, &domain.MarketState{
		SeasonID:   next,
		Supply:     0,
		BasePrice:  params.BasePrice,
		Multiplier: params.Multiplier,
		IsOpen:     true,
	}); err != nil {
		return 0, fmt.Errorf("create season state: %w", err)
	}
	e.season.Store(int64(next))

	e.logger.Printf("season reset: now season %d", next)
	return next, nil
}
