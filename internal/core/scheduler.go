package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vigil/internal/config"
	"vigil/internal/storage"

	"github.com/rs/zerolog/log"
)

// DueSource lists monitors that are due for a check.
type DueSource interface {
	FindDueActiveMonitors(ctx context.Context, now time.Time) ([]storage.Monitor, error)
}

// Scheduler ticks on a fixed cadence and dispatches due monitors to a
// bounded worker pool. Due monitors beyond the remaining capacity are left
// for the next tick.
type Scheduler struct {
	config config.EngineConfig
	source DueSource
	task   func(ctx context.Context, monitorID int64)

	// Worker pool
	workers chan struct{}
	active  atomic.Int64
	flight  *inFlight

	// Lifecycle management
	running bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewScheduler creates a new scheduler with the given configuration.
//
// Parameters:
//   - cfg: Engine configuration (tick interval and concurrency cap)
//   - source: Provider of due monitors
//   - task: Check to run for a dispatched monitor
//
// Returns:
//   - *Scheduler: Initialized scheduler instance
func NewScheduler(cfg config.EngineConfig, source DueSource, task func(ctx context.Context, monitorID int64)) *Scheduler {
	s := &Scheduler{
		config:  cfg,
		source:  source,
		task:    task,
		workers: make(chan struct{}, cfg.MaxConcurrentChecks),
		flight:  newInFlight(),
	}
	for i := 0; i < cfg.MaxConcurrentChecks; i++ {
		s.workers <- struct{}{}
	}
	return s
}

// Start starts the tick loop. The first tick runs immediately.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Any error that occurred during startup
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(loopCtx)

	s.running = true
	log.Info().
		Int("max_concurrent_checks", s.config.MaxConcurrentChecks).
		Dur("tick_interval", s.config.TickInterval).
		Msg("Scheduler started")

	return nil
}

// Stop stops ticking and waits for in-flight checks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	log.Info().Int64("active_checks", s.active.Load()).Msg("Stopping scheduler")

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.running = false
	log.Info().Msg("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ActiveChecks returns the number of checks currently executing.
func (s *Scheduler) ActiveChecks() int64 {
	return s.active.Load()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick dispatches due monitors up to the remaining capacity and returns how
// many were dispatched.
func (s *Scheduler) tick(ctx context.Context) int {
	capacity := int64(s.config.MaxConcurrentChecks) - s.active.Load()
	if capacity <= 0 {
		log.Warn().
			Int64("active_checks", s.active.Load()).
			Msg("No capacity left, skipping tick")
		return 0
	}

	due, err := s.source.FindDueActiveMonitors(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load due monitors")
		return 0
	}

	dispatched, busy := 0, 0
	for i := range due {
		if int64(dispatched) >= capacity {
			break
		}
		id := due[i].ID
		if !s.flight.acquire(id) {
			busy++
			continue
		}

		select {
		case <-s.workers:
		default:
			s.flight.release(id)
			log.Warn().Int64("monitor_id", id).Msg("No workers available, deferring remaining checks")
			return dispatched
		}

		s.active.Add(1)
		dispatched++

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { s.workers <- struct{}{} }()
			defer s.active.Add(-1)
			defer s.flight.release(id)

			// In-flight checks outlive Stop; their own timeouts bound them.
			s.task(context.WithoutCancel(ctx), id)
		}()
	}

	if deferred := len(due) - dispatched - busy; deferred > 0 || dispatched > 0 {
		log.Debug().
			Int("due", len(due)).
			Int("dispatched", dispatched).
			Int("deferred", deferred).
			Int("in_progress", busy).
			Int64("capacity", capacity).
			Msg("Scheduler tick")
	}
	return dispatched
}

// runExclusive runs fn for a monitor outside the worker pool while still
// counting it as active. It returns false when a check for the monitor is
// already in progress.
func (s *Scheduler) runExclusive(monitorID int64, fn func()) bool {
	if !s.flight.acquire(monitorID) {
		return false
	}
	s.active.Add(1)
	defer func() {
		s.active.Add(-1)
		s.flight.release(monitorID)
	}()
	fn()
	return true
}
