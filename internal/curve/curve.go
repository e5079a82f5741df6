// Package curve implements the bonding-curve price math: a deterministic
// exponential mapping from circulating supply to unit price, and the
// incremental integral cost over a supply range. Pure functions, no state.
package curve

import (
	"errors"
	"math"
)

// Errors returned by curve functions.
var (
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNumericIntegrity signals a NaN, infinite or negative computed
	// price. This cannot happen with valid parameters; its appearance
	// means the curve is misconfigured and the operation must abort.
	ErrNumericIntegrity = errors.New("numeric integrity: price is NaN, infinite or negative")

	ErrInvalidParams = errors.New("base price must be > 0 and multiplier > 1")
)

// Params are the two calibration knobs of the curve.
type Params struct {
	BasePrice  float64 // unit price at supply 0
	Multiplier float64 // per-unit growth factor
}

// Validate rejects parameter combinations that cannot produce a strictly
// increasing positive price curve.
func (p Params) Validate() error {
	if math.IsNaN(p.BasePrice) || math.IsInf(p.BasePrice, 0) || p.BasePrice <= 0 {
		return ErrInvalidParams
	}
	if math.IsNaN(p.Multiplier) || math.IsInf(p.Multiplier, 0) || p.Multiplier <= 1 {
		return ErrInvalidParams
	}
	return nil
}

// UnitPrice returns the spot price of one unit at the given supply:
// basePrice * multiplier^supply. Strictly increasing in supply.
func UnitPrice(p Params, supply int64) float64 {
	return p.BasePrice * math.Pow(p.Multiplier, float64(supply))
}

// Integral is the result of summing unit prices over a supply range.
type Integral struct {
	Total      float64 // sum of unit prices for each traded unit
	PriceStart float64 // unitPrice(startSupply)
	PriceEnd   float64 // unitPrice(startSupply + amount), the next spot price
}

// IntegralCost sums unitPrice(startSupply+k) for k in [0, amount).
//
// The accumulation is an iterative multiply-and-sum rather than the
// closed-form geometric series: historical candles are rebuilt by
// replaying the ledger, so every caller must reproduce the exact same
// float64 sequence the engine produced at trade time.
func IntegralCost(p Params, startSupply, amount int64) (Integral, error) {
	if amount <= 0 {
		return Integral{}, ErrInvalidAmount
	}

	price := UnitPrice(p, startSupply)
	res := Integral{PriceStart: price}

	total := 0.0
	for k := int64(0); k < amount; k++ {
		total += price
		price *= p.Multiplier // next step up the curve
	}
	res.Total = total
	res.PriceEnd = price

	if err := checkFinite(res.Total, res.PriceStart, res.PriceEnd); err != nil {
		return Integral{}, err
	}
	return res, nil
}

// checkFinite enforces the numeric integrity invariant on computed values.
func checkFinite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrNumericIntegrity
		}
	}
	return nil
}
