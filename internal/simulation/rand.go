package simulation

import (
	"math"
	"math/rand"
)

// Sampler wraps a seeded uniform source with the Gaussian transform the
// trader model uses. Each run owns its own Sampler, so runs never share
// random state and a fixed seed reproduces a run exactly.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a deterministic sampler from the given seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// IntBetween returns a uniform draw in [min, max] inclusive.
func (s *Sampler) IntBetween(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + s.rng.Int63n(max-min+1)
}

// Gaussian returns a standard normal draw via the Box-Muller transform.
// The first uniform is flipped to (0, 1] so log never sees zero.
func (s *Sampler) Gaussian() float64 {
	u := 1 - s.rng.Float64()
	v := s.rng.Float64()
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// Sample draws from the attribute's Gaussian, clamped to its range.
func (s *Sampler) Sample(spec AttributeSpec) float64 {
	return Clamp(spec.Mean+s.Gaussian()*spec.StdDev, spec.Min, spec.Max)
}

// Clamp bounds v to [min, max] inclusive.
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
