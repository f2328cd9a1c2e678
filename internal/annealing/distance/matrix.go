// Package distance builds the packed symmetric table of pairwise town
// distances that the tour reads on every move evaluation.
package distance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/tspmeta/internal/annealing"
)

// Matrix stores the distances between N towns in a flat lower triangle of
// length N(N+1)/2, diagonal included. It is immutable once built.
type Matrix struct {
	n      int
	metric Metric
	packed []float64
}

// New computes every unordered pairwise distance of points under metric.
// All points must share one dimension.
func New(points [][]float64, metric Metric) (*Matrix, error) {
	const op = "distance.New"

	n := len(points)
	if n > 0 {
		dim := len(points[0])
		for i, p := range points {
			if len(p) != dim {
				return nil, annealing.NewErrorf(annealing.KindDimensionMismatch,
					"point %d has dimension %d, want %d", i, len(p), dim).WithOperation(op)
			}
		}
	}

	packed := make([]float64, 0, n*(n+1)/2)
	for i, a := range points {
		for _, b := range points[:i+1] {
			packed = append(packed, metric.Eval(a, b))
		}
	}

	return &Matrix{
		n:      n,
		metric: metric,
		packed: packed,
	}, nil
}

// Dist returns the distance between towns a and b.
func (m *Matrix) Dist(a, b int) float64 {
	lo, hi := annealing.OrderPair(a, b)
	return m.packed[hi*(hi+1)/2+lo]
}

// Len returns the number of towns.
func (m *Matrix) Len() int {
	return m.n
}

// Metric returns the metric the matrix was built with.
func (m *Matrix) Metric() Metric {
	return m.metric
}

// SymDense expands the table into a full symmetric gonum matrix.
// It allocates N*N values and is meant for export, not for the sampling loop.
func (m *Matrix) SymDense() *mat.SymDense {
	if m.n == 0 {
		return &mat.SymDense{}
	}
	sym := mat.NewSymDense(m.n, nil)
	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			sym.SetSym(i, j, m.Dist(i, j))
		}
	}
	return sym
}
