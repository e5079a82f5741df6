package simulation

import (
	"runtime"
	"sort"
	"sync"

	"glue-exchange/internal/curve"
)

// StatsResult is the terminal-price distribution of a statistics-mode
// batch.
type StatsResult struct {
	Iterations      int     `json:"iterations"`
	InitialPrice    float64 `json:"initialPrice"`
	AvgPrice        float64 `json:"avgPrice"`
	MedianPrice     float64 `json:"medianPrice"`
	MinPrice        float64 `json:"minPrice"`
	MaxPrice        float64 `json:"maxPrice"`
	P05Price        float64 `json:"p05Price"`
	P95Price        float64 `json:"p95Price"`
	WinRate         float64 `json:"winRate"`
	AvgVolumePerSim float64 `json:"avgVolumePerSim"`
}

// RunStats executes iterations independent runs, keeping only each
// run's terminal state, and derives the price distribution. Runs share
// no state and are spread across a worker pool; each run draws from its
// own derived seed, so a fixed seed reproduces the whole batch
// regardless of scheduling.
func RunStats(cfg Config, params curve.Params, days, iterations int, seed int64) (*StatsResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if days <= 0 || iterations <= 0 {
		return nil, ErrInvalidConfig
	}

	finalPrices := make([]float64, iterations)
	volumes := make([]float64, iterations)

	workers := runtime.NumCPU()
	if workers > iterations {
		workers = iterations
	}

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				sampler := NewSampler(seed + int64(i))
				out := runOnce(cfg, params, days, sampler, false)
				finalPrices[i] = out.finalPrice
				volumes[i] = out.volume
			}
		}()
	}

	for i := 0; i < iterations; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	initialPrice := curve.UnitPrice(params, cfg.InitialSupply)

	sorted := make([]float64, len(finalPrices))
	copy(sorted, finalPrices)
	sort.Float64s(sorted)

	var sum, volSum float64
	wins := 0
	for i, p := range finalPrices {
		sum += p
		volSum += volumes[i]
		if p > initialPrice {
			wins++
		}
	}

	return &StatsResult{
		Iterations:      iterations,
		InitialPrice:    initialPrice,
		AvgPrice:        sum / float64(iterations),
		MedianPrice:     percentile(sorted, 0.5),
		MinPrice:        sorted[0],
		MaxPrice:        sorted[len(sorted)-1],
		P05Price:        percentile(sorted, 0.05),
		P95Price:        percentile(sorted, 0.95),
		WinRate:         float64(wins) / float64(iterations),
		AvgVolumePerSim: volSum / float64(iterations),
	}, nil
}

// percentile returns the p-quantile of a sorted slice using linear
// interpolation between adjacent ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
