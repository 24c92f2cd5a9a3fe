// Package random provides deterministic, replayable pseudo-random streams.
// None of the generators are safe for concurrent use.
package random

import (
	"math"

	"github.com/drakos74/go-ex-machina/xmath"
)

// DefaultSeed is used whenever a zero seed is given.
const DefaultSeed int64 = 1

// Random is a simple seeded random number generator.
type Random struct {
	seed     int64
	initSeed int64
}

// New creates a new generator for the given seed.
func New(seed int64) *Random {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Random{
		seed:     seed,
		initSeed: seed,
	}
}

// Next generates a number x, so that -1 < x < 1 and advances the seed.
func (r *Random) Next() float64 {
	x := Draw(r.seed)
	r.seed++
	return x
}

// Reset resets the seed to the initial seed value.
func (r *Random) Reset() {
	r.seed = r.initSeed
}

// Seed returns the current seed.
func (r *Random) Seed() int64 {
	return r.seed
}

// Randn fills a vector of the given size with consecutive draws.
// NOTE : despite the name the values are not normally distributed.
func (r *Random) Randn(n int) xmath.Vector {
	w := xmath.Vec(n)
	for i := 0; i < n; i++ {
		w[i] = r.Next()
	}
	return w
}

// NextDouble rescales a draw into the (0,1) range.
// NOTE : must be uniform, not gaussian.
func (r *Random) NextDouble() float64 {
	return 0.5*r.Next() + 0.5
}

// Draw is the stateless form of the generator for the given seed.
func Draw(seed int64) float64 {
	x := math.Sin(float64(seed)) * 10000
	return (x-math.Floor(x))*2 - 1
}
