// Package schedule drives the Metropolis sampler down a linear temperature
// schedule and accumulates the energy statistics of every level.
package schedule

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/tspmeta/internal/annealing"
	"github.com/copyleftdev/tspmeta/internal/annealing/metropolis"
	"github.com/copyleftdev/tspmeta/internal/annealing/tour"
)

// Config describes the temperature schedule and sampling effort.
type Config struct {
	// TempMax is the first (highest) temperature, also used for burn-in.
	TempMax float64
	// TempMin is the lowest temperature measured, inclusive.
	TempMin float64
	// TempStep is subtracted from the temperature after every level.
	TempStep float64
	// SampleCount is the number of sweeps per level and of burn-in sweeps.
	SampleCount int
	// NormFactor scales the reported energies, typically towns * box size.
	NormFactor float64
}

// MaxLevels bounds the number of temperature levels a schedule may have.
const MaxLevels = 1 << 20

// Validate checks that the schedule terminates and the statistics are defined.
func (c Config) Validate() error {
	const op = "schedule.Validate"
	switch {
	case c.TempStep <= 0:
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "temperature step must be positive, got %v", c.TempStep).WithOperation(op)
	case c.TempMin <= 0:
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "minimum temperature must be positive, got %v", c.TempMin).WithOperation(op)
	case c.TempMax < c.TempMin:
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "maximum temperature %v below minimum %v", c.TempMax, c.TempMin).WithOperation(op)
	case c.stalls():
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "temperature step %v does not change temperature %v", c.TempStep, c.TempMax).WithOperation(op)
	case c.estimatedLevels() > MaxLevels:
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "schedule has more than %d levels", MaxLevels).WithOperation(op)
	case c.SampleCount < 1:
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "sample count must be at least 1, got %d", c.SampleCount).WithOperation(op)
	case c.NormFactor <= 0:
		return annealing.NewErrorf(annealing.KindInvalidSchedule, "norm factor must be positive, got %v", c.NormFactor).WithOperation(op)
	}
	return nil
}

// stalls reports whether subtracting TempStep leaves TempMax unchanged. The
// float spacing only shrinks below TempMax, so a step that moves TempMax
// moves every lower temperature too.
func (c Config) stalls() bool {
	return c.TempMax-c.TempStep == c.TempMax
}

func (c Config) estimatedLevels() float64 {
	return math.Floor((c.TempMax-c.TempMin)/c.TempStep) + 1
}

// Levels returns the number of temperature levels Run will emit, or 0 for a
// schedule that never terminates or exceeds MaxLevels.
func (c Config) Levels() int {
	if c.TempStep <= 0 || c.stalls() || c.estimatedLevels() > MaxLevels {
		return 0
	}
	levels := 0
	for temp := c.TempMax; temp >= c.TempMin; temp -= c.TempStep {
		levels++
	}
	return levels
}

// Sink receives one record per temperature level, in descending temperature order.
type Sink interface {
	Emit(annealing.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(annealing.Record) error

// Emit calls f(r).
func (f SinkFunc) Emit(r annealing.Record) error {
	return f(r)
}

// Observer is notified of progress. Calls happen on the goroutine running
// the schedule.
type Observer interface {
	// SweepCompleted is called after every sweep, burn-in included.
	SweepCompleted(accepted, proposals int)
	// LevelCompleted is called after a level's record was emitted.
	LevelCompleted(annealing.Record)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// Scheduler runs the annealing schedule
type Scheduler struct {
	config   Config
	sampler  *metropolis.Sampler
	observer Observer
	logger   *zap.Logger
}

// NewScheduler validates cfg and creates a Scheduler.
func NewScheduler(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		config:  cfg,
		sampler: metropolis.NewSampler(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s, nil
}

// Config returns the schedule configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

// Run equilibrates t at TempMax for SampleCount unmeasured sweeps, then walks
// the temperature from TempMax down to TempMin inclusive. At each level it
// performs SampleCount sweeps, reads the tour length after every sweep and
// emits the normalized mean and mean-square energy to sink.
//
// The tour is not re-equilibrated between levels. Run stops with ctx.Err()
// between sweeps once ctx is done, and with the sink's error if Emit fails.
func (s *Scheduler) Run(ctx context.Context, t *tour.Tour, src annealing.Source, sink Sink) error {
	cfg := s.config
	n := t.Len()

	s.logger.Debug("Starting burn-in",
		zap.Float64("temperature", cfg.TempMax),
		zap.Int("sweeps", cfg.SampleCount),
		zap.Int("towns", n),
	)

	beta := 1.0 / cfg.TempMax
	for i := 0; i < cfg.SampleCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.sweep(t, beta, n, src)
	}

	s.logger.Debug("Burn-in complete", zap.Float64("energy", t.TotalDistance()))

	for temp := cfg.TempMax; temp >= cfg.TempMin; temp -= cfg.TempStep {
		beta := 1.0 / temp
		s1, s2 := 0.0, 0.0
		accepted := 0
		for i := 0; i < cfg.SampleCount; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			accepted += s.sweep(t, beta, n, src)
			energy := t.TotalDistance()
			s1 += energy
			s2 += energy * energy
		}

		samples := float64(cfg.SampleCount)
		record := annealing.Record{
			Temperature:    temp,
			Mean:           s1 / (samples * cfg.NormFactor),
			MeanSquare:     s2 / (samples * cfg.NormFactor * cfg.NormFactor),
			AcceptanceRate: float64(accepted) / (samples * float64(n)),
		}

		if err := sink.Emit(record); err != nil {
			return fmt.Errorf("emitting record at temperature %v: %w", temp, err)
		}

		s.logger.Debug("Level complete",
			zap.Float64("temperature", record.Temperature),
			zap.Float64("mean", record.Mean),
			zap.Float64("mean_square", record.MeanSquare),
			zap.Float64("acceptance_rate", record.AcceptanceRate),
		)
		if s.observer != nil {
			s.observer.LevelCompleted(record)
		}
	}

	return nil
}

func (s *Scheduler) sweep(t *tour.Tour, beta float64, n int, src annealing.Source) int {
	accepted := s.sampler.Sweep(t, beta, n, src)
	if s.observer != nil {
		s.observer.SweepCompleted(accepted, n)
	}
	return accepted
}
