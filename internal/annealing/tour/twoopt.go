package tour

import "github.com/copyleftdev/tspmeta/internal/annealing"

// EvaluateMove returns the change in total distance if the edges leaving
// positions a and b were replaced by (path[a],path[b]) and
// (path[a+1],path[b+1]). The tour is not modified.
func (t *Tour) EvaluateMove(a, b int) float64 {
	if a == b {
		return 0.0
	}
	n := len(t.path)
	p := t.path
	before := t.dist.Dist(p[a], p[(a+1)%n]) + t.dist.Dist(p[b], p[(b+1)%n])
	after := t.dist.Dist(p[a], p[b]) + t.dist.Dist(p[(a+1)%n], p[(b+1)%n])
	return after - before
}

// ApplyMove performs the 2-opt move evaluated by EvaluateMove(a, b).
//
// Either the inner segment path[lo+1..hi] or its cyclic complement
// path[hi+1..lo+n] is reversed, whichever is shorter, so at most n/2 swaps
// are made. Both give the same cycle.
func (t *Tour) ApplyMove(a, b int) {
	if a == b {
		return
	}
	n := len(t.path)
	lo, hi := annealing.OrderPair(a, b)
	if (hi-lo)*2 <= n {
		for i, j := lo+1, hi; i < j; i, j = i+1, j-1 {
			t.path[i], t.path[j] = t.path[j], t.path[i]
		}
		return
	}
	for i, j := hi+1, lo+n; i < j; i, j = i+1, j-1 {
		t.path[i%n], t.path[j%n] = t.path[j%n], t.path[i%n]
	}
}

// CheckMove reports whether a and b are valid tour positions.
// EvaluateMove and ApplyMove assume their arguments already passed it.
func (t *Tour) CheckMove(a, b int) error {
	n := len(t.path)
	for _, i := range []int{a, b} {
		if i < 0 || i >= n {
			return annealing.NewErrorf(annealing.KindIndexOutOfRange,
				"position %d not in [0,%d)", i, n).WithOperation("tour.CheckMove")
		}
	}
	return nil
}
