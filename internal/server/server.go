package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/tspmeta/internal/annealing"
	"github.com/copyleftdev/tspmeta/internal/annealing/run"
	"github.com/copyleftdev/tspmeta/internal/annealing/schedule"
	"github.com/copyleftdev/tspmeta/internal/config"
	"github.com/copyleftdev/tspmeta/internal/metrics"
)

// Run statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// RunState tracks one annealing run submitted to the server.
// Fields are guarded by Server.runsMu.
type RunState struct {
	ID          string
	Status      string
	Params      run.Params
	Levels      int
	Records     []annealing.Record
	Error       string
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time

	run    *run.Run
	cancel context.CancelFunc
}

// Server runs annealing jobs in the background and reports on them over HTTP.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	runs   map[string]*RunState
	runsMu sync.RWMutex // Protects the runs map, closed and every RunState
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a new server instance with the given config, logger and metrics
func NewServer(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		metrics: m,
		runs:    make(map[string]*RunState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/runs", func(r chi.Router) {
		r.Post("/", s.handleStart)
		r.Get("/{id}", s.handleStatus)
		r.Get("/{id}/distances", s.handleDistances)
		r.Delete("/{id}", s.handleCancel)
	})
}

// startRun validates p, assembles the run and starts it in the background.
// Assembly happens outside runsMu so a large run never blocks other requests.
func (s *Server) startRun(p run.Params) (*RunState, error) {
	if limit := s.cfg.Server.MaxTowns; limit > 0 && p.Towns > limit {
		return nil, fmt.Errorf("%d towns exceeds the limit of %d", p.Towns, limit)
	}

	s.runsMu.RLock()
	err := s.checkActiveLocked()
	s.runsMu.RUnlock()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	m := s.metrics.ForRun(id)
	r, err := run.New(p, s.logger.With(zap.String("run_id", id)), schedule.WithObserver(m))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	state := &RunState{
		ID:          id,
		Status:      StatusPending,
		Params:      p,
		Levels:      p.Schedule().Levels(),
		StartTime:   now,
		LastUpdated: now,
		run:         r,
		cancel:      cancel,
	}

	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if s.closed {
		cancel()
		return nil, errServerClosed
	}
	if err := s.checkActiveLocked(); err != nil {
		cancel()
		return nil, err
	}
	s.runs[id] = state

	s.wg.Add(1)
	go s.execute(ctx, state)

	return state, nil
}

var (
	errTooManyRuns  = errors.New("too many active runs")
	errServerClosed = errors.New("server is shutting down")
)

func (s *Server) checkActiveLocked() error {
	limit := s.cfg.Server.MaxActiveRuns
	if limit <= 0 {
		return nil
	}
	active := 0
	for _, st := range s.runs {
		if st.Status == StatusPending || st.Status == StatusRunning {
			active++
		}
	}
	if active >= limit {
		return errTooManyRuns
	}
	return nil
}

// execute runs state's job to completion, failure or cancellation.
func (s *Server) execute(ctx context.Context, state *RunState) {
	defer s.wg.Done()
	defer state.cancel()

	s.runsMu.Lock()
	if state.Status != StatusPending {
		s.runsMu.Unlock()
		return
	}
	state.Status = StatusRunning
	state.LastUpdated = time.Now()
	s.runsMu.Unlock()

	s.metrics.RunStarted()
	start := time.Now()

	err := state.run.Execute(ctx, schedule.SinkFunc(func(rec annealing.Record) error {
		s.runsMu.Lock()
		state.Records = append(state.Records, rec)
		state.LastUpdated = time.Now()
		s.runsMu.Unlock()
		return nil
	}))

	s.runsMu.Lock()
	now := time.Now()
	switch {
	case state.Status == StatusCancelled:
	case err == nil:
		state.Status = StatusCompleted
	case errors.Is(err, context.Canceled):
		state.Status = StatusCancelled
	default:
		state.Status = StatusFailed
		state.Error = err.Error()
		s.logger.Error("Run failed", zap.String("run_id", state.ID), zap.Error(err))
	}
	if state.EndTime == nil {
		state.EndTime = &now
	}
	state.LastUpdated = now
	status := state.Status
	s.runsMu.Unlock()

	s.metrics.RunFinished(state.ID, status, start)
	s.logger.Info("Run finished", zap.String("run_id", state.ID), zap.String("status", status))
}

// cancelRun requests cancellation of a pending or running job.
func (s *Server) cancelRun(id string) error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state, exists := s.runs[id]
	if !exists {
		return errRunNotFound
	}

	switch state.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return fmt.Errorf("cannot cancel run with status: %s", state.Status)
	}

	state.cancel()
	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Run cancelled", zap.String("run_id", id))
	return nil
}

var errRunNotFound = errors.New("run not found")

// Close cancels every unfinished run and waits for them to stop.
func (s *Server) Close() error {
	s.runsMu.Lock()
	s.closed = true
	for _, state := range s.runs {
		if state.cancel != nil {
			state.cancel()
		}
	}
	s.runsMu.Unlock()

	s.wg.Wait()
	return nil
}

// statusResponse is a snapshot of a RunState.
type statusResponse struct {
	ID          string             `json:"run_id"`
	Status      string             `json:"status"`
	Progress    float64            `json:"progress"`
	Params      run.Params         `json:"params"`
	Records     []annealing.Record `json:"records"`
	Error       string             `json:"error,omitempty"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time,omitempty"`
	LastUpdated string             `json:"last_update"`
}

func (s *Server) snapshot(id string) (*statusResponse, error) {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	state, exists := s.runs[id]
	if !exists {
		return nil, errRunNotFound
	}

	resp := &statusResponse{
		ID:          state.ID,
		Status:      state.Status,
		Params:      state.Params,
		Records:     append([]annealing.Record{}, state.Records...),
		Error:       state.Error,
		StartTime:   state.StartTime.Format(time.RFC3339),
		LastUpdated: state.LastUpdated.Format(time.RFC3339),
	}
	if state.Levels > 0 {
		resp.Progress = float64(len(state.Records)) / float64(state.Levels)
	}
	if state.EndTime != nil {
		resp.EndTime = state.EndTime.Format(time.RFC3339)
	}
	return resp, nil
}

// handleStart handles POST /api/v1/runs. The body holds run parameters;
// omitted optional fields take the server's configured defaults.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	p, err := s.cfg.RunParams()
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	state, err := s.startRun(p)
	if errors.Is(err, errTooManyRuns) {
		s.respondWithError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if errors.Is(err, errServerClosed) {
		s.respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"run_id": state.ID,
		"status": StatusPending,
		"levels": state.Levels,
	})
}

// handleStatus handles GET /api/v1/runs/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.snapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleDistances handles GET /api/v1/runs/{id}/distances, returning the
// full pairwise distance matrix of the run's towns.
func (s *Server) handleDistances(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.runsMu.RLock()
	state, exists := s.runs[id]
	s.runsMu.RUnlock()
	if !exists {
		s.respondWithError(w, http.StatusNotFound, errRunNotFound.Error())
		return
	}

	m := state.run.Matrix()
	sym := m.SymDense()
	n, _ := sym.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = sym.At(i, j)
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    id,
		"metric":    m.Metric().String(),
		"towns":     n,
		"distances": rows,
	})
}

// handleCancel handles DELETE /api/v1/runs/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	err := s.cancelRun(chi.URLParam(r, "id"))
	if errors.Is(err, errRunNotFound) {
		s.respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "cancellation requested",
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

// respondWithError sends a JSON error body with the given status code
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.logger.Debug("Request error", zap.Int("status", code), zap.String("message", message))
	s.respondJSON(w, code, map[string]interface{}{
		"error": message,
	})
}
