// Package timeline produces short-horizon synthetic forecast sequences.
package timeline

import (
	"math"
	"math/rand"
)

// Walk bounds. Each step moves by at most stepSpan in either direction and
// the sequence never leaves [floor, ceiling].
const (
	floor    = 10.0
	ceiling  = 150.0
	stepSpan = 5.0
)

// Synthesize generates hours values via a bounded random walk anchored at
// base. The walk accumulates unrounded; only the emitted values are rounded
// to two decimals. The caller owns the random source, so tests can pass a
// seeded one for exact sequences.
func Synthesize(rng *rand.Rand, base float64, hours int) []float64 {
	values := make([]float64, 0, hours)
	current := base
	for i := 0; i < hours; i++ {
		step := rng.Float64()*2*stepSpan - stepSpan
		current = clamp(current + step)
		values = append(values, round2(current))
	}
	return values
}

func clamp(v float64) float64 {
	if v < floor {
		return floor
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
