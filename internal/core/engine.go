// Package core provides the core monitoring engine for the Vigil system.
//
// The core engine is responsible for:
//   - Selecting due monitors on a fixed tick
//   - Executing checks within a concurrency cap
//   - Applying results to monitor state
//   - Handing status changes to the alert dispatcher
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vigil/internal/alert"
	"vigil/internal/checks"
	"vigil/internal/config"
	"vigil/internal/storage"

	"github.com/rs/zerolog/log"
)

// ErrCheckInProgress is returned by TriggerCheck when the monitor already has
// a check executing.
var ErrCheckInProgress = errors.New("check already in progress")

// Store is the monitor persistence the engine needs.
type Store interface {
	DueSource
	StatusStore
	GetMonitor(ctx context.Context, id int64) (*storage.Monitor, error)
}

// Notifier receives check outcomes that may warrant alerts.
type Notifier interface {
	Notify(ctx context.Context, ev alert.Event) ([]*storage.Alert, error)
}

// Engine represents the core monitoring engine.
// It orchestrates scheduling, execution, status tracking and alert hand-off.
type Engine struct {
	config    config.EngineConfig
	store     Store
	checker   checks.Checker
	tracker   *Tracker
	notifier  Notifier
	scheduler *Scheduler

	mu      sync.RWMutex
	running bool
}

// Status is a point-in-time view of the engine.
type Status struct {
	ActiveChecks        int64 `json:"active_checks"`
	MaxConcurrentChecks int   `json:"max_concurrent_checks"`
	IsRunning           bool  `json:"is_running"`
}

// NewEngine creates a new monitoring engine.
//
// Parameters:
//   - cfg: Engine configuration
//   - store: Monitor persistence
//   - checker: Probe implementation
//   - notifier: Alert dispatcher, may be nil to disable alerting
//
// Returns:
//   - *Engine: Initialized engine instance
func NewEngine(cfg config.EngineConfig, store Store, checker checks.Checker, notifier Notifier) *Engine {
	e := &Engine{
		config:   cfg,
		store:    store,
		checker:  checker,
		tracker:  NewTracker(store, cfg.DegradedThreshold),
		notifier: notifier,
	}
	e.scheduler = NewScheduler(cfg, store, e.runScheduled)
	return e
}

// Start starts the scheduler.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Any error that occurred during startup
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine is already running")
	}

	log.Info().Msg("Starting monitoring engine")
	if err := e.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	e.running = true
	log.Info().Msg("Monitoring engine started successfully")
	return nil
}

// IsRunning returns whether the engine is currently running.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Stop stops the engine, waiting for in-flight checks to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	log.Info().Msg("Stopping monitoring engine")
	e.scheduler.Stop()
	e.running = false
	log.Info().Msg("Monitoring engine stopped")
}

// Status reports the engine's active check count and capacity.
func (e *Engine) Status() Status {
	return Status{
		ActiveChecks:        e.scheduler.ActiveChecks(),
		MaxConcurrentChecks: e.config.MaxConcurrentChecks,
		IsRunning:           e.IsRunning(),
	}
}

// Tick runs one scheduling pass immediately and returns the number of checks
// dispatched. Dispatched checks keep running after Tick returns.
func (e *Engine) Tick(ctx context.Context) int {
	return e.scheduler.tick(ctx)
}

// Wait blocks until all checks dispatched by Tick have finished.
func (e *Engine) Wait() {
	e.scheduler.wg.Wait()
}
