// Package exchange implements the GLUE market core: read-only quotes and
// the atomic trade execution path against the shared market state and the
// external account ledger.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"glue-exchange/internal/bus"
	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
	"glue-exchange/internal/idhash"
	"glue-exchange/internal/storage"
)

// Config holds the fee policy and season identity of the engine.
// The fee constants are a starting calibration, not derived invariants;
// they are supplied by the operator, never hard-coded in trade logic.
type Config struct {
	SeasonID     int
	SellFeePct   float64 // fraction of sell gross taken as fee
	BurnSplit    float64 // fraction of the fee permanently destroyed
	FeeAccountID string  // operational sink for the non-burned fee half
}

// DefaultConfig returns the launch calibration: 5% sell fee, split 50/50
// between burn and the treasury account.
func DefaultConfig() Config {
	return Config{
		SeasonID:     1,
		SellFeePct:   0.05,
		BurnSplit:    0.5,
		FeeAccountID: "treasury",
	}
}

// Engine executes trades against the market state singleton.
//
// All writes (trades, admin recalibration, season reset) serialize on one
// mutex; reads take store snapshots and may run concurrently with writes.
// Event publication happens strictly after commit, outside the lock.
type Engine struct {
	mu  sync.Mutex // guards every market-state mutation
	cfg Config

	season atomic.Int64  // current season id, readable without the lock
	seq    atomic.Uint64 // per-trade sequence, part of the trade id hash

	states   storage.MarketStateStore
	trades   storage.TradeStore
	accounts storage.AccountStore
	events   *bus.Bus

	logger *log.Logger
	now    func() time.Time
}

// Options contains dependencies for creating an Engine.
type Options struct {
	Config   Config
	States   storage.MarketStateStore
	Trades   storage.TradeStore
	Accounts storage.AccountStore
	Events   *bus.Bus
	Logger   *log.Logger
	Now      func() time.Time // defaults to time.Now
}

// New creates an execution engine.
func New(opts Options) *Engine {
	e := &Engine{
		cfg:      opts.Config,
		states:   opts.States,
		trades:   opts.Trades,
		accounts: opts.Accounts,
		events:   opts.Events,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.season.Store(int64(opts.Config.SeasonID))
	return e
}

// SeasonID returns the active season.
func (e *Engine) SeasonID() int {
	return int(e.season.Load())
}

// EnsureState creates the season's MarketState row if it does not exist.
func (e *Engine) EnsureState(ctx context.Context, params curve.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.states.Get(ctx, e.SeasonID())
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load market state: %w", err)
	}

	return e.states.Put(ctx, &domain.MarketState{
		SeasonID:   e.SeasonID(),
		Supply:     0,
		BasePrice:  params.BasePrice,
		Multiplier: params.Multiplier,
		IsOpen:     true,
	})
}

// Quote previews the cost or proceeds of a hypothetical trade. Purely a
// read over a state snapshot; safe under arbitrary concurrent access.
type Quote struct {
	TotalCoins float64
	PriceStart float64
	PriceEnd   float64
}

// Quote computes a side-effect-free price preview.
// BUY cost rounds up; SELL proceeds subtract the fee fraction and round
// down. Quotes keep answering while the market is closed.
func (e *Engine) Quote(ctx context.Context, side domain.Side, amount int64) (*Quote, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	state, err := e.states.Get(ctx, e.SeasonID())
	if err != nil {
		return nil, fmt.Errorf("load market state: %w", err)
	}
	params := curve.Params{BasePrice: state.BasePrice, Multiplier: state.Multiplier}

	switch side {
	case domain.SideBuy:
		integ, err := curve.IntegralCost(params, state.Supply, amount)
		if err != nil {
			return nil, err
		}
		return &Quote{
			TotalCoins: math.Ceil(integ.Total),
			PriceStart: integ.PriceStart,
			PriceEnd:   integ.PriceEnd,
		}, nil

	case domain.SideSell:
		if state.Supply < amount {
			return nil, ErrInsufficientLiquidity
		}
		integ, err := curve.IntegralCost(params, state.Supply-amount, amount)
		if err != nil {
			return nil, err
		}
		fee := integ.Total * e.cfg.SellFeePct
		// A sell walks the curve downward: start high, end low.
		return &Quote{
			TotalCoins: math.Floor(integ.Total - fee),
			PriceStart: integ.PriceEnd,
			PriceEnd:   integ.PriceStart,
		}, nil

	default:
		return nil, ErrInvalidSide
	}
}

// Ticker returns the current spot price and supply.
func (e *Engine) Ticker(ctx context.Context) (price float64, supply int64, err error) {
	state, err := e.states.Get(ctx, e.SeasonID())
	if err != nil {
		return 0, 0, fmt.Errorf("load market state: %w", err)
	}
	params := curve.Params{BasePrice: state.BasePrice, Multiplier: state.Multiplier}
	return curve.UnitPrice(params, state.Supply), state.Supply, nil
}

// ExecuteTrade validates and atomically applies a real trade:
//
//	VALIDATED -> BALANCE_CHECKED -> APPLIED -> PUBLISHED -> COMMITTED
//
// Any failure before commit unwinds every mutation performed so far and
// returns a typed error; nothing partial is ever observable. The market
// event is published after the critical section and is best-effort only.
func (e *Engine) ExecuteTrade(ctx context.Context, accountID string, side domain.Side, amount int64) (*domain.TradeRecord, error) {
	rec, ev, err := e.execute(ctx, accountID, side, amount)
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: a publish failure or slow subscriber never rolls
	// back or stalls a committed trade.
	if e.events != nil {
		e.events.Publish(ev)
	}
	return rec, nil
}

// execute runs steps 1-4 of the trade state machine inside the global
// critical section.
func (e *Engine) execute(ctx context.Context, accountID string, side domain.Side, amount int64) (*domain.TradeRecord, domain.MarketEvent, error) {
	var noEvent domain.MarketEvent

	if amount <= 0 {
		return nil, noEvent, ErrInvalidAmount
	}
	if side != domain.SideBuy && side != domain.SideSell {
		return nil, noEvent, ErrInvalidSide
	}
	if accountID == "" {
		return nil, noEvent, storage.ErrInvalidInput
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.states.Get(ctx, e.SeasonID())
	if err != nil {
		return nil, noEvent, fmt.Errorf("load market state: %w", err)
	}
	if !state.IsOpen {
		return nil, noEvent, ErrMarketClosed
	}

	params := curve.Params{BasePrice: state.BasePrice, Multiplier: state.Multiplier}
	ts := e.now().UnixMilli()
	seq := e.seq.Add(1)

	// Compensation stack: every applied mutation pushes its inverse,
	// abort unwinds in LIFO order.
	var undo []func()
	abort := func(cause error) (*domain.TradeRecord, domain.MarketEvent, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, noEvent, cause
	}

	var rec *domain.TradeRecord

	switch side {
	case domain.SideBuy:
		integ, err := curve.IntegralCost(params, state.Supply, amount)
		if err != nil {
			return nil, noEvent, err
		}
		cost := math.Ceil(integ.Total)

		coins, err := e.accounts.GetBalance(ctx, accountID, domain.CurrencyCoins)
		if err != nil {
			return nil, noEvent, fmt.Errorf("read coin balance: %w", err)
		}
		if coins < cost {
			return nil, noEvent, ErrInsufficientBalance
		}

		if err := e.accounts.Debit(ctx, accountID, domain.CurrencyCoins, cost); err != nil {
			if errors.Is(err, storage.ErrInsufficientFunds) {
				return nil, noEvent, ErrInsufficientBalance
			}
			return nil, noEvent, fmt.Errorf("debit coins: %w", err)
		}
		undo = append(undo, func() { e.compensateCredit(ctx, accountID, domain.CurrencyCoins, cost) })

		if err := e.accounts.Credit(ctx, accountID, domain.CurrencyGlue, float64(amount)); err != nil {
			return abort(fmt.Errorf("credit GLUE: %w", err))
		}
		undo = append(undo, func() { e.compensateDebit(ctx, accountID, domain.CurrencyGlue, float64(amount)) })

		prev := *state
		state.Supply += amount
		if err := e.states.Put(ctx, state); err != nil {
			return abort(fmt.Errorf("update market state: %w", err))
		}
		undo = append(undo, func() { e.compensateState(ctx, &prev) })

		rec = &domain.TradeRecord{
			TradeID:     idhash.ComputeTradeID(accountID, side, amount, ts, seq),
			AccountID:   accountID,
			Side:        side,
			AssetAmount: amount,
			CoinAmount:  cost,
			PriceStart:  integ.PriceStart,
			PriceEnd:    integ.PriceEnd,
			PriceHigh:   math.Max(integ.PriceStart, integ.PriceEnd),
			PriceLow:    math.Min(integ.PriceStart, integ.PriceEnd),
			TimestampMs: ts,
		}

	case domain.SideSell:
		glue, err := e.accounts.GetBalance(ctx, accountID, domain.CurrencyGlue)
		if err != nil {
			return nil, noEvent, fmt.Errorf("read GLUE balance: %w", err)
		}
		if glue < float64(amount) {
			return nil, noEvent, ErrInsufficientAssetBalance
		}
		if state.Supply < amount {
			return nil, noEvent, ErrInsufficientLiquidity
		}

		integ, err := curve.IntegralCost(params, state.Supply-amount, amount)
		if err != nil {
			return nil, noEvent, err
		}
		fee := integ.Total * e.cfg.SellFeePct
		burn := fee * e.cfg.BurnSplit
		opsFee := fee - burn
		proceeds := math.Floor(integ.Total - fee)

		if err := e.accounts.Debit(ctx, accountID, domain.CurrencyGlue, float64(amount)); err != nil {
			if errors.Is(err, storage.ErrInsufficientFunds) {
				return nil, noEvent, ErrInsufficientAssetBalance
			}
			return nil, noEvent, fmt.Errorf("debit GLUE: %w", err)
		}
		undo = append(undo, func() { e.compensateCredit(ctx, accountID, domain.CurrencyGlue, float64(amount)) })

		// A sub-unit-price curve can floor a tiny sell to zero coins; the
		// sell still commits, the seller just receives nothing.
		if proceeds > 0 {
			if err := e.accounts.Credit(ctx, accountID, domain.CurrencyCoins, proceeds); err != nil {
				return abort(fmt.Errorf("credit proceeds: %w", err))
			}
			undo = append(undo, func() { e.compensateDebit(ctx, accountID, domain.CurrencyCoins, proceeds) })
		}

		if opsFee > 0 {
			if err := e.accounts.Credit(ctx, e.cfg.FeeAccountID, domain.CurrencyCoins, opsFee); err != nil {
				return abort(fmt.Errorf("credit fee account: %w", err))
			}
			undo = append(undo, func() { e.compensateDebit(ctx, e.cfg.FeeAccountID, domain.CurrencyCoins, opsFee) })
		}

		prev := *state
		state.Supply -= amount
		state.TotalBurned += burn
		if err := e.states.Put(ctx, state); err != nil {
			return abort(fmt.Errorf("update market state: %w", err))
		}
		undo = append(undo, func() { e.compensateState(ctx, &prev) })

		// The sell record reports high -> low, mirroring the price walk.
		rec = &domain.TradeRecord{
			TradeID:     idhash.ComputeTradeID(accountID, side, amount, ts, seq),
			AccountID:   accountID,
			Side:        side,
			AssetAmount: amount,
			CoinAmount:  proceeds,
			PriceStart:  integ.PriceEnd,
			PriceEnd:    integ.PriceStart,
			PriceHigh:   math.Max(integ.PriceStart, integ.PriceEnd),
			PriceLow:    math.Min(integ.PriceStart, integ.PriceEnd),
			TimestampMs: ts,
		}
	}

	if err := e.trades.Append(ctx, rec); err != nil {
		return abort(fmt.Errorf("append trade record: %w", err))
	}

	ev := domain.MarketEvent{
		Time:   ts / 1000,
		Price:  rec.PriceEnd,
		Amount: amount,
		Side:   side,
		Supply: state.Supply,
	}
	return rec, ev, nil
}

// Compensation helpers. A failing compensation is logged and swallowed:
// there is nothing further to unwind into.

func (e *Engine) compensateCredit(ctx context.Context, accountID string, c domain.Currency, amount float64) {
	if err := e.accounts.Credit(ctx, accountID, c, amount); err != nil {
		e.logger.Printf("rollback credit %s %v to %s failed: %v", c, amount, accountID, err)
	}
}

func (e *Engine) compensateDebit(ctx context.Context, accountID string, c domain.Currency, amount float64) {
	if err := e.accounts.Debit(ctx, accountID, c, amount); err != nil {
		e.logger.Printf("rollback debit %s %v from %s failed: %v", c, amount, accountID, err)
	}
}

func (e *Engine) compensateState(ctx context.Context, prev *domain.MarketState) {
	if err := e.states.Put(ctx, prev); err != nil {
		e.logger.Printf("rollback market state failed: %v", err)
	}
}
