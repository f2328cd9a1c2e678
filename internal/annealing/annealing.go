// Package annealing holds the types shared by the simulated annealing
// packages: the randomness source, the per-temperature statistics record
// and the domain errors.
package annealing

// Source is a sequential stream of uniform random draws.
//
// *rand.Rand from math/rand/v2 satisfies it. Every operation that consumes
// randomness takes a Source explicitly; the order of calls is part of the
// reproducibility contract of a run.
type Source interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a uniform real in [0, 1).
	Float64() float64
}

// Record holds the energy statistics measured at one temperature level.
type Record struct {
	// Temperature of the level
	Temperature float64 `json:"temperature"`
	// Mean is the normalized mean energy S1 / (samples * norm).
	Mean float64 `json:"mean"`
	// MeanSquare is the normalized mean-square energy S2 / (samples * norm^2).
	MeanSquare float64 `json:"mean_square"`
	// AcceptanceRate is accepted moves over proposals during the level.
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// OrderPair returns a and b ordered as (min, max).
func OrderPair(a, b int) (int, int) {
	if a <= b {
		return a, b
	}
	return b, a
}
