// Package metropolis implements one Metropolis sweep of 2-opt proposals over
// a tour at fixed inverse temperature.
package metropolis

import (
	"math"

	"github.com/copyleftdev/tspmeta/internal/annealing"
	"github.com/copyleftdev/tspmeta/internal/annealing/tour"
)

// Sampler proposes and accepts or rejects 2-opt moves.
type Sampler struct{}

// NewSampler creates a new Sampler
func NewSampler() *Sampler {
	return &Sampler{}
}

// Sweep performs exactly n proposal steps on t at inverse temperature beta
// and returns how many were accepted.
//
// Each step draws a position a in [0,n) and an offset in [1,n-1], proposes
// the move (a, a+offset mod n), and accepts it if it shortens the tour or,
// with one more draw r, if r < exp(-delta*beta). Rejected proposals do not
// touch the tour. n must be at least 2.
func (s *Sampler) Sweep(t *tour.Tour, beta float64, n int, src annealing.Source) int {
	accepted := 0
	for i := 0; i < n; i++ {
		a := src.IntN(n)
		b := (a + 1 + src.IntN(n-1)) % n
		delta := t.EvaluateMove(a, b)
		if delta < 0 || src.Float64() < math.Exp(-delta*beta) {
			t.ApplyMove(a, b)
			accepted++
		}
	}
	return accepted
}
