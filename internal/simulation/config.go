// Package simulation runs stochastic trader models against the bonding
// curve, entirely in memory. Path mode produces full candle series for
// visual calibration; statistics mode produces terminal-state
// distributions over many runs.
package simulation

import (
	"errors"
	"fmt"
)

// AttributeSpec describes the Gaussian distribution of one behavioral
// attribute, clamped to [Min, Max] inclusive.
type AttributeSpec struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// HandSize bounds the per-trade size drawn uniformly each tick.
type HandSize struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Config is the immutable per-run trader model.
type Config struct {
	TradeIntervalMs      int64    `json:"tradeIntervalMs"`
	RecalibrationMinutes int      `json:"recalibrationMinutes"`
	HandSize             HandSize `json:"handSize"`
	TicksPerCandle       int      `json:"ticksPerCandle"`
	InitialSupply        int64    `json:"initialSupply"`

	BullishBias        AttributeSpec `json:"bullishBias"`
	VolatilityDampener AttributeSpec `json:"volatilityDampener"`
	DriftRate          AttributeSpec `json:"driftRate"`
}

// DefaultConfig returns the production trader calibration: a 5-second
// trade cadence with 15-minute recalibration and a mildly bullish bias.
func DefaultConfig() Config {
	return Config{
		TradeIntervalMs:      5000,
		RecalibrationMinutes: 15,
		HandSize:             HandSize{Min: 1, Max: 3},
		TicksPerCandle:       20,
		InitialSupply:        0,
		BullishBias:          AttributeSpec{Mean: 0.01, StdDev: 0.005, Min: -0.01, Max: 0.04},
		VolatilityDampener:   AttributeSpec{Mean: 0.03, StdDev: 0.01, Min: 0.005, Max: 0.08},
		DriftRate:            AttributeSpec{Mean: 0.001, StdDev: 0.0005, Min: -0.0005, Max: 0.003},
	}
}

// ErrInvalidConfig is returned when a run is started with a degenerate
// trader model. Runs fail fast instead of producing garbage output.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Validate checks the config before any run starts.
func (c Config) Validate() error {
	if c.TradeIntervalMs <= 0 {
		return fmt.Errorf("%w: tradeIntervalMs must be positive, got %d", ErrInvalidConfig, c.TradeIntervalMs)
	}
	if c.RecalibrationMinutes <= 0 {
		return fmt.Errorf("%w: recalibrationMinutes must be positive, got %d", ErrInvalidConfig, c.RecalibrationMinutes)
	}
	if c.HandSize.Min < 1 || c.HandSize.Max < c.HandSize.Min {
		return fmt.Errorf("%w: handSize must satisfy 1 <= min <= max, got [%d, %d]", ErrInvalidConfig, c.HandSize.Min, c.HandSize.Max)
	}
	if c.TicksPerCandle <= 0 {
		return fmt.Errorf("%w: ticksPerCandle must be positive, got %d", ErrInvalidConfig, c.TicksPerCandle)
	}
	if c.InitialSupply < 0 {
		return fmt.Errorf("%w: initialSupply must be non-negative, got %d", ErrInvalidConfig, c.InitialSupply)
	}

	for _, a := range []struct {
		name string
		spec AttributeSpec
	}{
		{"bullishBias", c.BullishBias},
		{"volatilityDampener", c.VolatilityDampener},
		{"driftRate", c.DriftRate},
	} {
		if a.spec.StdDev < 0 {
			return fmt.Errorf("%w: %s stdDev must be non-negative, got %v", ErrInvalidConfig, a.name, a.spec.StdDev)
		}
		if a.spec.Min > a.spec.Max {
			return fmt.Errorf("%w: %s range inverted: [%v, %v]", ErrInvalidConfig, a.name, a.spec.Min, a.spec.Max)
		}
		if a.spec.Mean < a.spec.Min || a.spec.Mean > a.spec.Max {
			return fmt.Errorf("%w: %s mean %v outside [%v, %v]", ErrInvalidConfig, a.name, a.spec.Mean, a.spec.Min, a.spec.Max)
		}
	}

	return nil
}

// ticksPerDay derives the tick count for one simulated day.
func (c Config) ticksPerDay() int {
	return int(86_400_000 / c.TradeIntervalMs)
}

// recalibrationTicks derives the resampling period in ticks.
func (c Config) recalibrationTicks() int {
	ticks := int(int64(c.RecalibrationMinutes) * 60_000 / c.TradeIntervalMs)
	if ticks < 1 {
		return 1
	}
	return ticks
}
