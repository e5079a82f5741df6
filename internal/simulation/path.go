package simulation

import (
	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
)

// PathResult is one full-path simulation: the candle series plus the
// terminal state.
type PathResult struct {
	ID          int             `json:"id"`
	Candles     []domain.Candle `json:"candles"`
	FinalSupply int64           `json:"finalSupply"`
	FinalPrice  float64         `json:"finalPrice"`
}

// RunPaths executes a small number of full-path simulations, each with
// its own derived seed. Typical usage is a handful of runs rendered
// side by side for visual calibration of curve parameters.
func RunPaths(cfg Config, params curve.Params, days, simulations int, seed int64) ([]PathResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if days <= 0 || simulations <= 0 {
		return nil, ErrInvalidConfig
	}

	results := make([]PathResult, 0, simulations)
	for i := 0; i < simulations; i++ {
		sampler := NewSampler(seed + int64(i))
		out := runOnce(cfg, params, days, sampler, true)
		results = append(results, PathResult{
			ID:          i + 1,
			Candles:     out.candles,
			FinalSupply: out.finalSupply,
			FinalPrice:  out.finalPrice,
		})
	}
	return results, nil
}

// runOutcome is the terminal state of a single run.
type runOutcome struct {
	candles     []domain.Candle
	finalSupply int64
	finalPrice  float64
	volume      float64 // total asset units traded
}

// runOnce executes one simulation run. With withCandles the per-tick
// price is tracked into OHLC buckets; without it only the supply walk
// happens and the price is computed once at the end, which keeps
// statistics-mode batches cheap.
func runOnce(cfg Config, params curve.Params, days int, sampler *Sampler, withCandles bool) runOutcome {
	supply := cfg.InitialSupply
	attrs := cfg.AttributesAtMeans()
	target := float64(supply)

	totalTicks := cfg.ticksPerDay() * days
	recalEvery := cfg.recalibrationTicks()

	var (
		volume float64
		series []domain.Candle
		open   *domain.Candle
	)

	price := curve.UnitPrice(params, supply)

	for tick := 0; tick < totalTicks; tick++ {
		if tick > 0 && tick%recalEvery == 0 {
			attrs = cfg.Resample(sampler)
		}
		target += attrs.DriftRate

		d := Decide(sampler, supply, target, attrs, cfg.HandSize)

		amount := d.Amount
		if d.Side == domain.SideSell {
			if amount > supply {
				amount = supply
			}
			supply -= amount
		} else {
			supply += amount
		}
		volume += float64(amount)

		if !withCandles {
			continue
		}

		price = curve.UnitPrice(params, supply)

		bucket := int64(tick/cfg.TicksPerCandle) * int64(cfg.TicksPerCandle) * cfg.TradeIntervalMs
		if open == nil || open.BucketStart != bucket {
			if open != nil {
				series = append(series, *open)
			}
			open = &domain.Candle{BucketStart: bucket, Open: price, High: price, Low: price, Close: price}
			continue
		}
		if price > open.High {
			open.High = price
		}
		if price < open.Low {
			open.Low = price
		}
		open.Close = price
	}

	if withCandles && open != nil {
		series = append(series, *open)
	}

	return runOutcome{
		candles:     series,
		finalSupply: supply,
		finalPrice:  curve.UnitPrice(params, supply),
		volume:      volume,
	}
}
