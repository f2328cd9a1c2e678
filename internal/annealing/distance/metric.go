package distance

import (
	"math"
	"strings"

	"github.com/copyleftdev/tspmeta/internal/annealing"
)

// Metric selects the distance function between two towns.
type Metric int

const (
	// L2 is the Euclidean distance.
	L2 Metric = iota
	// L1 is the Manhattan distance.
	L1
	// L2Squared is the squared Euclidean distance. It is used as energy
	// as-is, so statistics computed under it are in squared length units.
	L2Squared
	// LInf is the Chebyshev distance.
	LInf
)

// ParseMetric maps a case-insensitive metric name to a Metric.
// Accepted spellings are l1, l2, l2sq, l2_sq, linf and l_inf.
func ParseMetric(name string) (Metric, error) {
	s := strings.ToLower(name)
	switch s {
	case "l1":
		return L1, nil
	case "l2":
		return L2, nil
	case "l2sq", "l2_sq":
		return L2Squared, nil
	case "linf", "l_inf":
		return LInf, nil
	default:
		return 0, annealing.NewErrorf(annealing.KindInvalidMetric, "unsupported type: %s", s).
			WithOperation("distance.ParseMetric")
	}
}

// String returns the canonical metric name.
func (m Metric) String() string {
	switch m {
	case L1:
		return "l1"
	case L2:
		return "l2"
	case L2Squared:
		return "l2sq"
	case LInf:
		return "linf"
	default:
		return "unknown"
	}
}

// Eval computes the distance between x1 and x2 under m.
func (m Metric) Eval(x1, x2 []float64) float64 {
	switch m {
	case L1:
		return l1(x1, x2)
	case L2Squared:
		return l2Squared(x1, x2)
	case LInf:
		return lInf(x1, x2)
	default:
		return math.Sqrt(l2Squared(x1, x2))
	}
}

func l1(x1, x2 []float64) float64 {
	sum := 0.0
	for i := range x1 {
		sum += math.Abs(x1[i] - x2[i])
	}
	return sum
}

func l2Squared(x1, x2 []float64) float64 {
	sumSq := 0.0
	for i := range x1 {
		diff := x1[i] - x2[i]
		sumSq += diff * diff
	}
	return sumSq
}

func lInf(x1, x2 []float64) float64 {
	max := 0.0
	for i := range x1 {
		if d := math.Abs(x1[i] - x2[i]); max < d {
			max = d
		}
	}
	return max
}
