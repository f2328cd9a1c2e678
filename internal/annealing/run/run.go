package run

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/copyleftdev/tspmeta/internal/annealing/distance"
	"github.com/copyleftdev/tspmeta/internal/annealing/points"
	"github.com/copyleftdev/tspmeta/internal/annealing/schedule"
	"github.com/copyleftdev/tspmeta/internal/annealing/tour"
)

// Run is an assembled annealing run, ready to execute.
type Run struct {
	params    Params
	rng       *rand.Rand
	matrix    *distance.Matrix
	tour      *tour.Tour
	scheduler *schedule.Scheduler
	logger    *zap.Logger
}

// New validates p and builds the towns, distance matrix and initial tour.
// Random draws happen in a fixed order: every town coordinate, then the
// tour shuffle, then (in Execute) the sampling.
func New(p Params, logger *zap.Logger, opts ...schedule.Option) (*Run, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metric, err := p.Metric()
	if err != nil {
		return nil, err
	}

	pcg := rand.NewPCG(p.Seed, 0)
	rng := rand.New(pcg)

	pts, err := points.Uniform(p.Towns, p.Dim, p.BoxSize, pcg)
	if err != nil {
		return nil, fmt.Errorf("generating towns: %w", err)
	}
	matrix, err := distance.New(pts, metric)
	if err != nil {
		return nil, fmt.Errorf("building distance matrix: %w", err)
	}
	t, err := tour.Random(matrix, rng)
	if err != nil {
		return nil, fmt.Errorf("building initial tour: %w", err)
	}

	opts = append([]schedule.Option{schedule.WithLogger(logger)}, opts...)
	scheduler, err := schedule.NewScheduler(p.Schedule(), opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("Run assembled",
		zap.Uint64("seed", p.Seed),
		zap.Int("towns", p.Towns),
		zap.Float64("box_size", p.BoxSize),
		zap.Stringer("metric", metric),
		zap.Int("dim", p.Dim),
		zap.Int("levels", p.Schedule().Levels()),
		zap.Float64("initial_energy", t.TotalDistance()),
	)

	return &Run{
		params:    p,
		rng:       rng,
		matrix:    matrix,
		tour:      t,
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// Params returns the parameters the run was built from.
func (r *Run) Params() Params {
	return r.params
}

// Matrix returns the distance matrix of the run's towns.
func (r *Run) Matrix() *distance.Matrix {
	return r.matrix
}

// Tour returns the tour being annealed. It is mutated by Execute.
func (r *Run) Tour() *tour.Tour {
	return r.tour
}

// Execute runs the schedule, emitting one record per level to sink.
// A Run can be executed once.
func (r *Run) Execute(ctx context.Context, sink schedule.Sink) error {
	if err := r.scheduler.Run(ctx, r.tour, r.rng, sink); err != nil {
		return err
	}
	r.logger.Info("Run complete", zap.Float64("final_energy", r.tour.TotalDistance()))
	return nil
}
