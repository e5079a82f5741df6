// Package agent runs the market-making loop: the simulator's decision
// rule pointed at the live exchange API instead of an in-memory supply.
package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"glue-exchange/internal/apiclient"
	"glue-exchange/internal/domain"
	"glue-exchange/internal/simulation"
)

// MarketMaker is a single sequential trading loop. One instance issues
// at most one trade per tick; ticks never overlap because the loop
// blocks on each API call before selecting the next tick.
type MarketMaker struct {
	client  *apiclient.Client
	cfg     simulation.Config
	sampler *simulation.Sampler
	logger  *log.Logger

	attrs  simulation.Attributes
	target float64
}

// New creates a market maker. The seed makes the decision stream
// reproducible, which matters in tests; production passes the clock.
func New(client *apiclient.Client, cfg simulation.Config, seed int64, logger *log.Logger) (*MarketMaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MarketMaker{
		client:  client,
		cfg:     cfg,
		sampler: simulation.NewSampler(seed),
		logger:  logger,
		attrs:   cfg.AttributesAtMeans(),
	}, nil
}

// Run drives the loop until ctx is cancelled. Every failure inside a
// tick is logged and skipped; the loop itself never dies on an API
// error.
func (m *MarketMaker) Run(ctx context.Context) error {
	ticker, err := m.client.Ticker(ctx)
	if err != nil {
		return err
	}
	m.target = float64(ticker.Supply)

	trade := time.NewTicker(time.Duration(m.cfg.TradeIntervalMs) * time.Millisecond)
	defer trade.Stop()
	recalibrate := time.NewTicker(time.Duration(m.cfg.RecalibrationMinutes) * time.Minute)
	defer recalibrate.Stop()

	m.logger.Printf("market maker started: interval=%dms recalibration=%dmin target=%.0f",
		m.cfg.TradeIntervalMs, m.cfg.RecalibrationMinutes, m.target)

	for {
		select {
		case <-ctx.Done():
			m.logger.Printf("market maker stopped: %v", ctx.Err())
			return ctx.Err()

		case <-recalibrate.C:
			m.attrs = m.cfg.Resample(m.sampler)
			m.logger.Printf("recalibrated: bias=%.4f dampener=%.4f drift=%.4f",
				m.attrs.BullishBias, m.attrs.VolatilityDampener, m.attrs.DriftRate)

		case <-trade.C:
			m.tick(ctx)
		}
	}
}

// tick performs one decide-and-trade cycle. All errors are transient
// from the loop's point of view.
func (m *MarketMaker) tick(ctx context.Context) {
	ticker, err := m.client.Ticker(ctx)
	if err != nil {
		m.logger.Printf("skip tick, ticker read failed: %v", err)
		return
	}

	m.target += m.attrs.DriftRate

	d := simulation.Decide(m.sampler, ticker.Supply, m.target, m.attrs, m.cfg.HandSize)

	action := "buy"
	if d.Side == domain.SideSell {
		action = "sell"
	}

	resp, err := m.client.Trade(ctx, action, d.Amount)
	if err != nil {
		// Closed market, thin balance and similar rejections are
		// expected; wait for the next tick.
		m.logger.Printf("skip tick, %s %d rejected: %v", action, d.Amount, err)
		return
	}

	m.logger.Printf("%s %d committed (trade %s, supply %d, price %.4f)",
		strings.ToUpper(action), d.Amount, resp.TradeID, ticker.Supply, ticker.Price)
}
