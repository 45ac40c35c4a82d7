package utils

import (
	"math"
	"math/rand"
	"time"
)

// RandSource is a seeded random number generator used for reproducible
// parameter proposals. It is not safe for concurrent use; the scheduler
// drives all sampling from a single control loop.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// A zero seed falls back to the current time.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntBetween returns a random integer in [min, max]
func (r *RandSource) IntBetween(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + r.rng.Int63n(max-min+1)
}

// UniformFloat64 returns a uniformly distributed random number in [min, max)
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// LogUniformFloat64 returns a log-uniformly distributed random number in
// [min, max). Both bounds must be positive.
func (r *RandSource) LogUniformFloat64(min, max float64) float64 {
	if min <= 0 || max <= min {
		return min
	}
	lo := math.Log(min)
	hi := math.Log(max)
	return math.Exp(lo + r.rng.Float64()*(hi-lo))
}

// LogUniformInt returns a log-uniformly distributed integer in [min, max].
// Used for parameter domains like clock periods where the interesting
// resolution is relative, not absolute.
func (r *RandSource) LogUniformInt(min, max int64) int64 {
	if min <= 0 || max <= min {
		return min
	}
	v := int64(math.Round(r.LogUniformFloat64(float64(min), float64(max))))
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}
