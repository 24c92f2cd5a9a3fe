package random

import "math"

// Poisson samples poisson distributed integers with Knuth's multiplicative algorithm.
type Poisson struct {
	lambda float64
	rng    *Random
}

// NewPoisson creates a new sampler for the given rate, backed by its own generator.
func NewPoisson(lambda float64, seed int64) *Poisson {
	return &Poisson{
		lambda: lambda,
		rng:    New(seed),
	}
}

// Lambda returns the rate of the sampler.
func (p *Poisson) Lambda() float64 {
	return p.lambda
}

// Sample draws the next value, consuming the underlying stream.
func (p *Poisson) Sample() int {
	l := math.Exp(-p.lambda)
	k := 0
	q := 1.0
	for {
		k++
		q *= p.rng.NextDouble()
		if q <= l {
			break
		}
	}
	return k - 1
}
