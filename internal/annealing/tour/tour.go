// Package tour implements a closed tour over the towns of a distance matrix
// and the 2-opt move used by the Metropolis sampler.
package tour

import (
	"github.com/copyleftdev/tspmeta/internal/annealing"
	"github.com/copyleftdev/tspmeta/internal/annealing/distance"
)

// Tour is a cyclic permutation of town indices. path[i] is the i-th town
// visited and the last town connects back to the first.
type Tour struct {
	dist *distance.Matrix
	path []int
}

// New creates a tour visiting towns in the order given by path. path must be
// a permutation of [0, dist.Len()); it is copied.
func New(dist *distance.Matrix, path []int) (*Tour, error) {
	const op = "tour.New"

	if len(path) != dist.Len() {
		return nil, annealing.NewErrorf(annealing.KindInvalidPermutation,
			"path has %d towns, matrix has %d", len(path), dist.Len()).WithOperation(op)
	}
	visited := make([]bool, len(path))
	for i, p := range path {
		if p < 0 || p >= len(path) {
			return nil, annealing.NewErrorf(annealing.KindInvalidPermutation,
				"town %d at position %d is out of range", p, i).WithOperation(op)
		}
		if visited[p] {
			return nil, annealing.NewErrorf(annealing.KindInvalidPermutation,
				"town %d visited twice", p).WithOperation(op)
		}
		visited[p] = true
	}

	return &Tour{
		dist: dist,
		path: append([]int(nil), path...),
	}, nil
}

// Random creates a tour over all towns of dist in uniformly random order.
// The shuffle is Fisher-Yates driven by src.
func Random(dist *distance.Matrix, src annealing.Source) (*Tour, error) {
	n := dist.Len()
	if n == 0 {
		return nil, annealing.NewError(annealing.KindEmptyTour, "no towns to visit").
			WithOperation("tour.Random")
	}
	path := make([]int, n)
	for i := range path {
		path[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		path[i], path[j] = path[j], path[i]
	}
	return New(dist, path)
}

// Len returns the number of towns in the tour.
func (t *Tour) Len() int {
	return len(t.path)
}

// Path returns a copy of the visiting order.
func (t *Tour) Path() []int {
	return append([]int(nil), t.path...)
}

// TotalDistance returns the length of the closed tour, wraparound edge included.
func (t *Tour) TotalDistance() float64 {
	n := len(t.path)
	total := 0.0
	for i := 1; i < n; i++ {
		total += t.dist.Dist(t.path[i-1], t.path[i])
	}
	total += t.dist.Dist(t.path[n-1], t.path[0])
	return total
}
