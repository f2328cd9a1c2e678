package schedule

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tspmeta/internal/annealing"
	"github.com/copyleftdev/tspmeta/internal/annealing/distance"
	"github.com/copyleftdev/tspmeta/internal/annealing/tour"
)

type recordingSink struct {
	records []annealing.Record
}

func (s *recordingSink) Emit(r annealing.Record) error {
	s.records = append(s.records, r)
	return nil
}

type countingObserver struct {
	sweeps    int
	proposals int
	levels    int
}

func (o *countingObserver) SweepCompleted(accepted, proposals int) {
	o.sweeps++
	o.proposals += proposals
}

func (o *countingObserver) LevelCompleted(annealing.Record) {
	o.levels++
}

// twoTownTour has constant energy 10: two towns five apart, there and back.
func twoTownTour(t *testing.T) *tour.Tour {
	t.Helper()
	m, err := distance.New([][]float64{{0, 0}, {3, 4}}, distance.L2)
	require.NoError(t, err)
	tr, err := tour.New(m, []int{0, 1})
	require.NoError(t, err)
	return tr
}

func validConfig() Config {
	return Config{
		TempMax:     2,
		TempMin:     1,
		TempStep:    0.5,
		SampleCount: 4,
		NormFactor:  5,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "zero step", modify: func(c *Config) { c.TempStep = 0 }},
		{name: "negative step", modify: func(c *Config) { c.TempStep = -0.5 }},
		{name: "zero min", modify: func(c *Config) { c.TempMin = 0 }},
		{name: "max below min", modify: func(c *Config) { c.TempMax = 0.5 }},
		{name: "no samples", modify: func(c *Config) { c.SampleCount = 0 }},
		{name: "zero norm", modify: func(c *Config) { c.NormFactor = 0 }},
		{name: "step below float spacing", modify: func(c *Config) { c.TempMax, c.TempStep = 100, 1e-20 }},
		{name: "infinite max", modify: func(c *Config) { c.TempMax = math.Inf(1) }},
		{name: "too many levels", modify: func(c *Config) { c.TempMax, c.TempMin, c.TempStep = 1e6, 1, 1e-3 }},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, annealing.ErrInvalidSchedule))

			_, err = NewScheduler(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfigLevels(t *testing.T) {
	assert.Equal(t, 3, validConfig().Levels())
	assert.Equal(t, 200, Config{TempMax: 100, TempMin: 0.5, TempStep: 0.5}.Levels())
	assert.Equal(t, 1, Config{TempMax: 1, TempMin: 1, TempStep: 3}.Levels())
	assert.Equal(t, 0, Config{TempMax: 1, TempMin: 1}.Levels())
	assert.Equal(t, 0, Config{TempMax: 100, TempMin: 0.5, TempStep: 1e-20}.Levels())
	assert.Equal(t, 0, Config{TempMax: 1e6, TempMin: 1, TempStep: 1e-3}.Levels())
}

func TestRunConstantEnergy(t *testing.T) {
	obs := &countingObserver{}
	s, err := NewScheduler(validConfig(), WithObserver(obs))
	require.NoError(t, err)

	sink := &recordingSink{}
	err = s.Run(context.Background(), twoTownTour(t), rand.New(rand.NewPCG(1, 2)), sink)
	require.NoError(t, err)

	require.Len(t, sink.records, 3)
	for i, want := range []float64{2, 1.5, 1} {
		r := sink.records[i]
		assert.Equal(t, want, r.Temperature)
		assert.Equal(t, 2.0, r.Mean)
		assert.Equal(t, 4.0, r.MeanSquare)
		// every proposal on two towns is neutral and accepted
		assert.Equal(t, 1.0, r.AcceptanceRate)
	}

	// burn-in plus three levels of four sweeps of two proposals each
	assert.Equal(t, 16, obs.sweeps)
	assert.Equal(t, 32, obs.proposals)
	assert.Equal(t, 3, obs.levels)
}

func TestRunDescendingOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	points := make([][]float64, 12)
	for i := range points {
		points[i] = []float64{rng.Float64() * 3, rng.Float64() * 3}
	}
	m, err := distance.New(points, distance.LInf)
	require.NoError(t, err)
	tr, err := tour.Random(m, rng)
	require.NoError(t, err)

	cfg := Config{TempMax: 3, TempMin: 0.25, TempStep: 0.25, SampleCount: 20, NormFactor: 36}
	s, err := NewScheduler(cfg)
	require.NoError(t, err)

	sink := &recordingSink{}
	require.NoError(t, s.Run(context.Background(), tr, rng, sink))

	require.Len(t, sink.records, cfg.Levels())
	for i := 1; i < len(sink.records); i++ {
		assert.Less(t, sink.records[i].Temperature, sink.records[i-1].Temperature)
	}
	for _, r := range sink.records {
		assert.Greater(t, r.Mean, 0.0)
		// Jensen: <E^2> >= <E>^2
		assert.GreaterOrEqual(t, r.MeanSquare, r.Mean*r.Mean*(1-1e-12))
	}
}

func TestRunSinkError(t *testing.T) {
	s, err := NewScheduler(validConfig())
	require.NoError(t, err)

	boom := errors.New("disk full")
	err = s.Run(context.Background(), twoTownTour(t), rand.New(rand.NewPCG(1, 2)),
		SinkFunc(func(annealing.Record) error { return boom }))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunCancelled(t *testing.T) {
	s, err := NewScheduler(validConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	err = s.Run(ctx, twoTownTour(t), rand.New(rand.NewPCG(1, 2)), sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.records)
}
