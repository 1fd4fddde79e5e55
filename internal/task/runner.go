// Package task runs distillation pipelines as background tasks and keeps a
// registry of their status, progress, and logs for later inspection.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/distillkit/distillkit/internal/distill"
	"github.com/distillkit/distillkit/internal/observability"
)

// Status is the lifecycle state of a background run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// maxLogLines caps the per-run log buffer; older lines are dropped.
const maxLogLines = 500

// Run is the public view of one background run.
type Run struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"projectId"`
	Status     Status           `json:"status"`
	Progress   distill.Snapshot `json:"progress"`
	Logs       []string         `json:"logs"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt,omitempty"`
}

type runState struct {
	run    Run
	cancel context.CancelFunc
}

// Runner starts pipeline runs in goroutines and tracks them by id.
type Runner struct {
	mu      sync.RWMutex
	runs    map[string]*runState
	catalog distill.Catalog
	gen     distill.Generator
	logger  *observability.Logger
	metrics *observability.MetricsCollector
}

// NewRunner creates a runner. logger and metrics may be nil.
func NewRunner(catalog distill.Catalog, gen distill.Generator, logger *observability.Logger, metrics *observability.MetricsCollector) *Runner {
	return &Runner{
		runs:    make(map[string]*runState),
		catalog: catalog,
		gen:     gen,
		logger:  logger,
		metrics: metrics,
	}
}

// Start launches a pipeline run in the background and returns its run id.
// The config's OnProgress/OnLog callbacks are chained after the registry's
// own bookkeeping if set.
func (r *Runner) Start(cfg distill.Config) (string, error) {
	id := uuid.NewString()

	userProgress := cfg.OnProgress
	userLog := cfg.OnLog
	cfg.OnProgress = func(s distill.Snapshot) {
		r.updateProgress(id, s)
		if userProgress != nil {
			userProgress(s)
		}
	}
	cfg.OnLog = func(msg string) {
		r.appendLog(id, msg)
		if userLog != nil {
			userLog(msg)
		}
	}

	p, err := distill.New(cfg, r.catalog, r.gen, r.logger)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.runs[id] = &runState{
		run: Run{
			ID:        id,
			ProjectID: cfg.ProjectID,
			Status:    StatusPending,
			StartedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.Increment("runs_started")
	}
	if r.logger != nil {
		r.logger.RunEvent("started", id, "project_id", cfg.ProjectID)
	}

	go r.execute(ctx, id, p)
	return id, nil
}

func (r *Runner) execute(ctx context.Context, id string, p *distill.Pipeline) {
	r.setStatus(id, StatusRunning, "")

	_, err := p.Run(ctx)

	switch {
	case err == nil:
		r.setStatus(id, StatusCompleted, "")
		if r.metrics != nil {
			r.metrics.Increment("runs_completed")
		}
		if r.logger != nil {
			r.logger.RunEvent("completed", id)
		}
	case errors.Is(err, context.Canceled):
		r.setStatus(id, StatusCanceled, err.Error())
		if r.metrics != nil {
			r.metrics.Increment("runs_canceled")
		}
		if r.logger != nil {
			r.logger.RunEvent("canceled", id)
		}
	default:
		r.setStatus(id, StatusFailed, err.Error())
		if r.metrics != nil {
			r.metrics.Increment("runs_failed")
			r.metrics.Record(observability.MetricErrors, 1, nil)
		}
		if r.logger != nil {
			r.logger.RunEvent("failed", id, "error", err)
		}
	}
}

// Get returns a copy of a run's state.
func (r *Runner) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return cloneRun(state.run), true
}

// List returns copies of all runs, newest first.
func (r *Runner) List() []Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Run, 0, len(r.runs))
	for _, state := range r.runs {
		out = append(out, cloneRun(state.run))
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StartedAt.After(out[i].StartedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Cancel requests cancellation of a run. It reports whether the run exists
// and was still cancelable.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.runs[id]
	if !ok {
		return false
	}
	if state.run.Status != StatusPending && state.run.Status != StatusRunning {
		return false
	}
	state.cancel()
	return true
}

// Wait blocks until the run reaches a terminal state or the context ends.
// Intended for tests and synchronous callers.
func (r *Runner) Wait(ctx context.Context, id string) (Run, error) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		run, ok := r.Get(id)
		if !ok {
			return Run{}, fmt.Errorf("wait: run %q not found", id)
		}
		switch run.Status {
		case StatusCompleted, StatusFailed, StatusCanceled:
			return run, nil
		}
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) setStatus(id string, status Status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.runs[id]
	if !ok {
		return
	}
	// A cancel racing with completion keeps the terminal state set first.
	switch state.run.Status {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return
	}
	state.run.Status = status
	state.run.Error = errMsg
	if status != StatusRunning && status != StatusPending {
		state.run.FinishedAt = time.Now().UTC()
	}
}

func (r *Runner) updateProgress(id string, s distill.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.runs[id]; ok {
		state.run.Progress = s
	}
}

func (r *Runner) appendLog(id string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.runs[id]
	if !ok {
		return
	}
	state.run.Logs = append(state.run.Logs, msg)
	if len(state.run.Logs) > maxLogLines {
		state.run.Logs = state.run.Logs[len(state.run.Logs)-maxLogLines:]
	}
}

func cloneRun(run Run) Run {
	out := run
	out.Logs = append([]string(nil), run.Logs...)
	return out
}
