package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vigil/internal/alert"
	"vigil/internal/checks"
	"vigil/internal/storage"

	"github.com/rs/zerolog/log"
)

// CheckReport describes one executed check.
type CheckReport struct {
	Monitor      *storage.Monitor `json:"monitor"`
	Result       *checks.Result   `json:"result"`
	Previous     storage.Status   `json:"previous_status"`
	Current      storage.Status   `json:"current_status"`
	Transitioned bool             `json:"transitioned"`
	Alerts       []*storage.Alert `json:"alerts"`
}

// TriggerCheck runs a check for the monitor right away and waits for it,
// including the first delivery attempt of any alerts it raises. It works
// whether or not the scheduler is running.
//
// Returns:
//   - storage.ErrNotFound: the monitor does not exist
//   - ErrCheckInProgress: the monitor already has a check executing
func (e *Engine) TriggerCheck(ctx context.Context, monitorID int64) (*CheckReport, error) {
	var (
		report *CheckReport
		err    error
	)
	ran := e.scheduler.runExclusive(monitorID, func() {
		report, err = e.runCheck(ctx, monitorID, false)
	})
	if !ran {
		return nil, ErrCheckInProgress
	}
	return report, err
}

// runScheduled is the scheduler's task. Errors end here.
func (e *Engine) runScheduled(ctx context.Context, monitorID int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int64("monitor_id", monitorID).Interface("panic", r).Msg("Check task panicked")
		}
	}()

	if _, err := e.runCheck(ctx, monitorID, true); err != nil {
		log.Error().Int64("monitor_id", monitorID).Err(err).Msg("Check task failed")
	}
}

// runCheck executes, records and notifies for one monitor. The caller holds
// the monitor's in-flight slot. Scheduled runs skip monitors that were
// deactivated or checked since they were selected.
func (e *Engine) runCheck(ctx context.Context, monitorID int64, scheduled bool) (*CheckReport, error) {
	m, err := e.store.GetMonitor(ctx, monitorID)
	if err != nil {
		return nil, fmt.Errorf("load monitor %d: %w", monitorID, err)
	}
	if scheduled && !m.IsDue(time.Now().UTC()) {
		log.Debug().Int64("monitor_id", m.ID).Msg("Monitor no longer due, skipping")
		return nil, nil
	}

	log.Debug().Int64("monitor_id", m.ID).Str("monitor_name", m.Name).Msg("Executing check")
	result := e.probe(ctx, m)

	outcome, err := e.tracker.Apply(ctx, m, result)
	if err != nil {
		return nil, err
	}

	ev := log.Debug()
	if !result.Success {
		ev = log.Warn()
	}
	ev.Int64("monitor_id", m.ID).
		Str("monitor_name", m.Name).
		Str("status", string(outcome.Current)).
		Bool("transitioned", outcome.Transitioned).
		Int64("response_time_ms", result.ResponseTimeMs).
		Str("error", result.Error).
		Msg("Check completed")

	report := &CheckReport{
		Monitor:      outcome.Monitor,
		Result:       result,
		Previous:     outcome.Previous,
		Current:      outcome.Current,
		Transitioned: outcome.Transitioned,
	}

	if e.notifier != nil {
		alerts, err := e.notify(ctx, outcome, result)
		if err != nil {
			// The check itself is recorded; alerting problems stay out of the result.
			log.Error().Int64("monitor_id", m.ID).Err(err).Msg("Failed to dispatch alerts")
		}
		report.Alerts = alerts
	}
	return report, nil
}

// probe runs the checker, turning a panic into a failed result.
func (e *Engine) probe(ctx context.Context, m *storage.Monitor) (result *checks.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int64("monitor_id", m.ID).Interface("panic", r).Msg("Checker panicked")
			result = checks.Failed(checks.ErrorInternal, fmt.Sprintf("internal error: %v", r), time.Since(start), nil)
		}
	}()

	result = e.checker.Check(ctx, m)
	if result == nil {
		result = checks.Failed(checks.ErrorInternal, "checker returned no result", time.Since(start), nil)
	}
	return result
}

func (e *Engine) notify(ctx context.Context, o *Outcome, r *checks.Result) (alerts []*storage.Alert, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Join(err, fmt.Errorf("alert dispatch panicked: %v", p))
		}
	}()
	return e.notifier.Notify(ctx, alert.Event{
		Monitor:      o.Monitor,
		Previous:     o.Previous,
		Current:      o.Current,
		Transitioned: o.Transitioned,
		Result:       r,
	})
}
