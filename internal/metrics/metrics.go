// Package metrics exposes annealing progress as prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/copyleftdev/tspmeta/internal/annealing"
)

// Metrics records annealing progress and run lifecycle events. All collectors
// are safe for concurrent use by several runs; ForRun scopes the per-run ones.
type Metrics struct {
	sweeps       prometheus.Counter
	proposals    prometheus.Counter
	accepted     prometheus.Counter
	levels       prometheus.Counter
	temperature  *prometheus.GaugeVec
	acceptance   prometheus.Histogram
	activeRuns   prometheus.Gauge
	runsTotal    *prometheus.CounterVec
	runDurations prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sweeps: f.NewCounter(prometheus.CounterOpts{
			Name: "anneal_sweeps_total",
			Help: "Total Metropolis sweeps performed, burn-in included",
		}),
		proposals: f.NewCounter(prometheus.CounterOpts{
			Name: "anneal_move_proposals_total",
			Help: "Total 2-opt moves proposed",
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Name: "anneal_moves_accepted_total",
			Help: "Total 2-opt moves accepted",
		}),
		levels: f.NewCounter(prometheus.CounterOpts{
			Name: "anneal_levels_total",
			Help: "Total temperature levels measured",
		}),
		temperature: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "anneal_last_level_temperature",
			Help: "Temperature of the most recently measured level of each executing run",
		}, []string{"run_id"}),
		acceptance: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "anneal_level_acceptance_rate",
			Help:    "Acceptance rate of measured levels",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		activeRuns: f.NewGauge(prometheus.GaugeOpts{
			Name: "anneal_active_runs",
			Help: "Runs currently executing",
		}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anneal_runs_total",
			Help: "Finished runs by final status",
		}, []string{"status"}),
		runDurations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "anneal_run_duration_seconds",
			Help:    "Wall time of finished runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~45min
		}),
	}
}

// RunObserver implements schedule.Observer for one run.
type RunObserver struct {
	m  *Metrics
	id string
}

// ForRun returns the observer for the run with the given id. Its series are
// removed by RunFinished.
func (m *Metrics) ForRun(id string) *RunObserver {
	return &RunObserver{m: m, id: id}
}

// SweepCompleted counts a sweep and its moves.
func (o *RunObserver) SweepCompleted(accepted, proposals int) {
	o.m.sweeps.Inc()
	o.m.proposals.Add(float64(proposals))
	o.m.accepted.Add(float64(accepted))
}

// LevelCompleted counts a measured level.
func (o *RunObserver) LevelCompleted(r annealing.Record) {
	o.m.levels.Inc()
	o.m.temperature.WithLabelValues(o.id).Set(r.Temperature)
	o.m.acceptance.Observe(r.AcceptanceRate)
}

// RunStarted marks a run as executing.
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunFinished records the outcome of the run id started at start.
func (m *Metrics) RunFinished(id, status string, start time.Time) {
	m.activeRuns.Dec()
	m.temperature.DeleteLabelValues(id)
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDurations.Observe(time.Since(start).Seconds())
}
