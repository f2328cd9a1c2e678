// Package points generates random town positions.
package points

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Uniform returns count points of dimension dim with every coordinate drawn
// uniformly from [0, boxSize), in point-major order from src.
func Uniform(count, dim int, boxSize float64, src rand.Source) ([][]float64, error) {
	if count < 0 || dim < 1 {
		return nil, fmt.Errorf("invalid point set shape: %d points of dimension %d", count, dim)
	}
	if boxSize <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %v", boxSize)
	}

	coord := distuv.Uniform{Min: 0, Max: boxSize, Src: src}
	points := make([][]float64, count)
	for i := range points {
		p := make([]float64, dim)
		for j := range p {
			p[j] = coord.Rand()
		}
		points[i] = p
	}
	return points, nil
}
