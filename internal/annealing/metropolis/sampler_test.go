package metropolis

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tspmeta/internal/annealing/distance"
	"github.com/copyleftdev/tspmeta/internal/annealing/tour"
)

type scriptedSource struct {
	ints   []int
	floats []float64
	calls  []string
	bounds []int
}

func (s *scriptedSource) IntN(n int) int {
	s.calls = append(s.calls, "int")
	s.bounds = append(s.bounds, n)
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedSource) Float64() float64 {
	s.calls = append(s.calls, "float")
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func collinearTour(t *testing.T, path []int) *tour.Tour {
	t.Helper()
	m, err := distance.New([][]float64{{0}, {1}, {2}, {3}, {4}}, distance.L2)
	require.NoError(t, err)
	tr, err := tour.New(m, path)
	require.NoError(t, err)
	return tr
}

func TestSweepDrawOrder(t *testing.T) {
	tr := collinearTour(t, []int{0, 2, 1, 3, 4})
	src := &scriptedSource{
		// (a, offset) per step
		ints:   []int{0, 1, 0, 1, 3, 0},
		floats: []float64{0.99, 0.1},
	}

	accepted := NewSampler().Sweep(tr, 1.0, 3, src)

	// step 1 shortens the tour and is accepted without an acceptance draw,
	// step 2 lengthens it and is rejected, step 3 is neutral and accepted.
	assert.Equal(t, 2, accepted)
	assert.Equal(t, []string{"int", "int", "int", "int", "float", "int", "int", "float"}, src.calls)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, tr.Path())
	assert.Equal(t, 8.0, tr.TotalDistance())
}

func lineTour(t *testing.T, n int) *tour.Tour {
	t.Helper()
	points := make([][]float64, n)
	for i := range points {
		points[i] = []float64{float64(i * i)}
	}
	m, err := distance.New(points, distance.L1)
	require.NoError(t, err)
	tr, err := tour.New(m, []int{0, 1, 2, 3, 4, 5}[:n])
	require.NoError(t, err)
	return tr
}

func TestSweepProposesEveryPairOnce(t *testing.T) {
	for n := 2; n <= 6; n++ {
		for a := 0; a < n; a++ {
			for offset := 0; offset < n-1; offset++ {
				// the first step proposes (a, offset), the rest propose (0, 1),
				// which reverses a single town and leaves the path as it is.
				// beta 0 accepts everything.
				ints := []int{a, offset}
				floats := make([]float64, n)
				for i := 1; i < n; i++ {
					ints = append(ints, 0, 0)
				}
				src := &scriptedSource{ints: ints, floats: floats}
				got := lineTour(t, n)

				accepted := NewSampler().Sweep(got, 0, n, src)
				require.Equal(t, n, accepted)

				b := (a + 1 + offset) % n
				require.NotEqual(t, a, b)
				want := lineTour(t, n)
				want.ApplyMove(a, b)
				assert.Equal(t, want.Path(), got.Path(), "n=%d a=%d offset=%d", n, a, offset)

				for i := 0; i < len(src.bounds); i += 2 {
					assert.Equal(t, n, src.bounds[i])
					assert.Equal(t, n-1, src.bounds[i+1])
				}
			}
		}
	}
}

func TestSweepInfiniteTemperatureAcceptsAll(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	tr := collinearTour(t, []int{0, 1, 2, 3, 4})

	accepted := NewSampler().Sweep(tr, 0, 5, rng)
	assert.Equal(t, 5, accepted)
}

func TestSweepPreservesPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	points := make([][]float64, 40)
	for i := range points {
		points[i] = []float64{rng.Float64(), rng.Float64()}
	}
	m, err := distance.New(points, distance.L2)
	require.NoError(t, err)
	tr, err := tour.Random(m, rng)
	require.NoError(t, err)

	s := NewSampler()
	for i := 0; i < 100; i++ {
		s.Sweep(tr, 10, tr.Len(), rng)
	}
	path := tr.Path()
	sort.Ints(path)
	for i, v := range path {
		require.Equal(t, i, v)
	}
}

func TestSweepDeterministic(t *testing.T) {
	run := func() []int {
		rng := rand.New(rand.NewPCG(2024, 1))
		points := make([][]float64, 25)
		for i := range points {
			points[i] = []float64{rng.Float64() * 5, rng.Float64() * 5}
		}
		m, err := distance.New(points, distance.L1)
		require.NoError(t, err)
		tr, err := tour.Random(m, rng)
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			NewSampler().Sweep(tr, 2, tr.Len(), rng)
		}
		return tr.Path()
	}
	assert.Equal(t, run(), run())
}

func BenchmarkSweep(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	points := make([][]float64, 500)
	for i := range points {
		points[i] = []float64{rng.Float64(), rng.Float64()}
	}
	m, err := distance.New(points, distance.L2)
	if err != nil {
		b.Fatal(err)
	}
	tr, err := tour.Random(m, rng)
	if err != nil {
		b.Fatal(err)
	}
	s := NewSampler()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Sweep(tr, 50, tr.Len(), rng)
	}
}
