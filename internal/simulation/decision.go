package simulation

import (
	"math"

	"glue-exchange/internal/domain"
)

// Mean-reversion tuning: beyond this distance from target the trader
// scales its hand up.
const (
	aggressiveGapThreshold = 15.0
	aggressiveSizeFactor   = 1.5

	buyProbFloor   = 0.05
	buyProbCeiling = 0.95
)

// Attributes is the trader's current behavioral state, resampled at
// every recalibration.
type Attributes struct {
	BullishBias        float64
	VolatilityDampener float64
	DriftRate          float64
}

// AttributesAtMeans returns the initial attribute state, pinned to the
// configured means.
func (c Config) AttributesAtMeans() Attributes {
	return Attributes{
		BullishBias:        c.BullishBias.Mean,
		VolatilityDampener: c.VolatilityDampener.Mean,
		DriftRate:          c.DriftRate.Mean,
	}
}

// Resample draws fresh attributes from their configured distributions.
func (c Config) Resample(s *Sampler) Attributes {
	return Attributes{
		BullishBias:        s.Sample(c.BullishBias),
		VolatilityDampener: s.Sample(c.VolatilityDampener),
		DriftRate:          s.Sample(c.DriftRate),
	}
}

// Decision is one intended trade.
type Decision struct {
	Side   domain.Side
	Amount int64
}

// Decide is the trader's single decision rule, shared by the in-memory
// simulator and the live market-making agent. Being below the drifting
// target raises buy probability; being above lowers it.
func Decide(s *Sampler, supply int64, targetSupply float64, attrs Attributes, hand HandSize) Decision {
	gap := targetSupply - float64(supply)

	buyProb := Clamp(0.5+attrs.BullishBias+gap*attrs.VolatilityDampener, buyProbFloor, buyProbCeiling)

	side := domain.SideSell
	if s.Float64() < buyProb {
		side = domain.SideBuy
	}

	amount := s.IntBetween(hand.Min, hand.Max)
	if math.Abs(gap) > aggressiveGapThreshold {
		amount = int64(math.Round(float64(amount) * aggressiveSizeFactor))
	}
	if amount < 1 {
		amount = 1
	}

	return Decision{Side: side, Amount: amount}
}
