package simulation

import (
	"math"
	"reflect"
	"testing"

	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
)

var testParams = curve.Params{BasePrice: 50, Multiplier: 1.0003}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default is valid", func(c *Config) {}, true},
		{"zero interval", func(c *Config) { c.TradeIntervalMs = 0 }, false},
		{"zero recalibration", func(c *Config) { c.RecalibrationMinutes = 0 }, false},
		{"hand min zero", func(c *Config) { c.HandSize.Min = 0 }, false},
		{"hand inverted", func(c *Config) { c.HandSize = HandSize{Min: 5, Max: 2} }, false},
		{"zero ticks per candle", func(c *Config) { c.TicksPerCandle = 0 }, false},
		{"negative initial supply", func(c *Config) { c.InitialSupply = -1 }, false},
		{"negative stddev", func(c *Config) { c.BullishBias.StdDev = -0.1 }, false},
		{"inverted attribute range", func(c *Config) { c.DriftRate.Min = 1; c.DriftRate.Max = 0 }, false},
		{"mean outside range", func(c *Config) { c.VolatilityDampener.Mean = 99 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSampler_GaussianShape(t *testing.T) {
	s := NewSampler(1)

	const n = 100000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		z := s.Gaussian()
		if math.IsNaN(z) || math.IsInf(z, 0) {
			t.Fatalf("degenerate gaussian draw: %v", z)
		}
		sum += z
		sumSq += z * z
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean) > 0.02 {
		t.Errorf("gaussian mean too far from 0: %v", mean)
	}
	if math.Abs(variance-1) > 0.05 {
		t.Errorf("gaussian variance too far from 1: %v", variance)
	}
}

func TestSampler_SampleClampsToRange(t *testing.T) {
	s := NewSampler(2)
	spec := AttributeSpec{Mean: 0.01, StdDev: 10, Min: -0.01, Max: 0.04} // huge stddev forces clamping

	for i := 0; i < 1000; i++ {
		v := s.Sample(spec)
		if v < spec.Min || v > spec.Max {
			t.Fatalf("sample %v outside [%v, %v]", v, spec.Min, spec.Max)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(2, 0, 1); got != 1 {
		t.Errorf("Clamp above: got %v", got)
	}
	if got := Clamp(-2, 0, 1); got != 0 {
		t.Errorf("Clamp below: got %v", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp inside: got %v", got)
	}
}

func TestDecide_GapPullsTowardTarget(t *testing.T) {
	cfg := DefaultConfig()
	attrs := cfg.AttributesAtMeans()
	attrs.BullishBias = 0

	// Far below target: buys should dominate.
	s := NewSampler(3)
	buys := 0
	for i := 0; i < 1000; i++ {
		if Decide(s, 100, 200, attrs, cfg.HandSize).Side == domain.SideBuy {
			buys++
		}
	}
	if buys < 900 {
		t.Errorf("below target: expected buy probability near ceiling, got %d/1000 buys", buys)
	}

	// Far above target: sells should dominate.
	s = NewSampler(4)
	buys = 0
	for i := 0; i < 1000; i++ {
		if Decide(s, 200, 100, attrs, cfg.HandSize).Side == domain.SideBuy {
			buys++
		}
	}
	if buys > 100 {
		t.Errorf("above target: expected buy probability near floor, got %d/1000 buys", buys)
	}
}

func TestDecide_AggressiveSizingBeyondGapThreshold(t *testing.T) {
	cfg := DefaultConfig()
	attrs := cfg.AttributesAtMeans()

	// With |gap| > threshold every draw is scaled up, so the observed
	// max must exceed the configured hand ceiling.
	s := NewSampler(5)
	var maxAmount int64
	for i := 0; i < 1000; i++ {
		d := Decide(s, 0, 100, attrs, cfg.HandSize)
		if d.Amount > maxAmount {
			maxAmount = d.Amount
		}
		if d.Amount < 1 {
			t.Fatalf("amount must stay positive, got %d", d.Amount)
		}
	}
	if maxAmount <= cfg.HandSize.Max {
		t.Errorf("expected scaled-up hand beyond %d, observed max %d", cfg.HandSize.Max, maxAmount)
	}

	// Inside the threshold the hand stays within configured bounds.
	s = NewSampler(6)
	for i := 0; i < 1000; i++ {
		d := Decide(s, 100, 100, attrs, cfg.HandSize)
		if d.Amount < cfg.HandSize.Min || d.Amount > cfg.HandSize.Max {
			t.Fatalf("unscaled amount %d outside [%d, %d]", d.Amount, cfg.HandSize.Min, cfg.HandSize.Max)
		}
	}
}

func TestRunPaths_DeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()

	a, err := RunPaths(cfg, testParams, 1, 2, 42)
	if err != nil {
		t.Fatalf("RunPaths failed: %v", err)
	}
	b, err := RunPaths(cfg, testParams, 1, 2, 42)
	if err != nil {
		t.Fatalf("RunPaths failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed must reproduce identical paths")
	}

	c, err := RunPaths(cfg, testParams, 1, 2, 43)
	if err != nil {
		t.Fatalf("RunPaths failed: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical paths")
	}
}

func TestRunPaths_CandleInvariants(t *testing.T) {
	cfg := DefaultConfig()

	results, err := RunPaths(cfg, testParams, 1, 4, 7)
	if err != nil {
		t.Fatalf("RunPaths failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(results))
	}

	for _, r := range results {
		if len(r.Candles) == 0 {
			t.Fatalf("run %d produced no candles", r.ID)
		}
		if r.FinalSupply < 0 {
			t.Errorf("run %d: negative final supply %d", r.ID, r.FinalSupply)
		}
		if got := curve.UnitPrice(testParams, r.FinalSupply); got != r.FinalPrice {
			t.Errorf("run %d: final price %v does not match supply %d (want %v)", r.ID, r.FinalPrice, r.FinalSupply, got)
		}
		var prevBucket int64 = -1
		for _, c := range r.Candles {
			if c.Low > c.Open || c.Low > c.Close || c.High < c.Open || c.High < c.Close {
				t.Errorf("run %d: candle violates low <= open,close <= high: %+v", r.ID, c)
			}
			if c.BucketStart <= prevBucket {
				t.Errorf("run %d: candle buckets not strictly increasing", r.ID)
			}
			prevBucket = c.BucketStart
		}
	}
}

func TestRunPaths_RejectsInvalidInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HandSize.Min = 0

	if _, err := RunPaths(cfg, testParams, 1, 4, 1); err == nil {
		t.Error("expected config validation error")
	}
	if _, err := RunPaths(DefaultConfig(), testParams, 0, 4, 1); err == nil {
		t.Error("expected error for zero days")
	}
	if _, err := RunPaths(DefaultConfig(), curve.Params{BasePrice: -1, Multiplier: 2}, 1, 4, 1); err == nil {
		t.Error("expected error for invalid curve params")
	}
}

func TestRunStats_SymmetricModelIsNearCoinFlip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BullishBias = AttributeSpec{Mean: 0, StdDev: 0, Min: 0, Max: 0}
	cfg.DriftRate = AttributeSpec{Mean: 0, StdDev: 0, Min: 0, Max: 0}
	cfg.InitialSupply = 1000 // keep the supply floor from truncating sells

	res, err := RunStats(cfg, testParams, 1, 2000, 11)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if res.WinRate < 0.40 || res.WinRate > 0.60 {
		t.Errorf("symmetric model win rate should be near 0.5, got %v", res.WinRate)
	}
}

func TestRunStats_DistributionOrdering(t *testing.T) {
	res, err := RunStats(DefaultConfig(), testParams, 1, 500, 12)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if res.Iterations != 500 {
		t.Errorf("iterations: got %d, want 500", res.Iterations)
	}
	if !(res.MinPrice <= res.P05Price && res.P05Price <= res.MedianPrice &&
		res.MedianPrice <= res.P95Price && res.P95Price <= res.MaxPrice) {
		t.Errorf("percentiles out of order: %+v", res)
	}
	if res.AvgPrice < res.MinPrice || res.AvgPrice > res.MaxPrice {
		t.Errorf("mean outside [min, max]: %+v", res)
	}
	if res.AvgVolumePerSim <= 0 {
		t.Errorf("expected positive traded volume, got %v", res.AvgVolumePerSim)
	}
	if res.InitialPrice != curve.UnitPrice(testParams, 0) {
		t.Errorf("initial price mismatch: %v", res.InitialPrice)
	}
}

func TestRunStats_DeterministicForSeed(t *testing.T) {
	a, err := RunStats(DefaultConfig(), testParams, 1, 300, 99)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	b, err := RunStats(DefaultConfig(), testParams, 1, 300, 99)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed must reproduce identical statistics")
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	if got := percentile(sorted, 0.5); got != 30 {
		t.Errorf("median: got %v, want 30", got)
	}
	if got := percentile(sorted, 0); got != 10 {
		t.Errorf("p0: got %v, want 10", got)
	}
	if got := percentile(sorted, 1); got != 50 {
		t.Errorf("p100: got %v, want 50", got)
	}
	if got := percentile(sorted, 0.25); got != 20 {
		t.Errorf("p25: got %v, want 20", got)
	}
	if got := percentile([]float64{7}, 0.95); got != 7 {
		t.Errorf("single element: got %v, want 7", got)
	}
}
