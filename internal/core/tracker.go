package core

import (
	"context"
	"fmt"
	"time"

	"vigil/internal/checks"
	"vigil/internal/storage"
)

// StatusStore persists the outcome of a check.
type StatusStore interface {
	RecordCheck(ctx context.Context, id int64, p storage.StatusPatch, entry *storage.CheckLog) error
}

// Outcome is the result of applying a check to a monitor.
type Outcome struct {
	Monitor      *storage.Monitor // state after the check
	Previous     storage.Status
	Current      storage.Status
	Transitioned bool
}

// Tracker applies check results to monitor state.
type Tracker struct {
	store     StatusStore
	threshold time.Duration
}

// NewTracker creates a tracker. threshold is the response time above which a
// successful check counts as degraded, unless the monitor overrides it.
func NewTracker(store StatusStore, threshold time.Duration) *Tracker {
	return &Tracker{store: store, threshold: threshold}
}

// Classify maps a check result onto a status.
func (t *Tracker) Classify(m *storage.Monitor, r *checks.Result) storage.Status {
	threshold := t.threshold
	if m.DegradedThresholdMs > 0 {
		threshold = time.Duration(m.DegradedThresholdMs) * time.Millisecond
	}
	switch {
	case !r.Success:
		return storage.StatusDown
	case r.ResponseTimeMs > threshold.Milliseconds():
		return storage.StatusDegraded
	default:
		return storage.StatusUp
	}
}

// Apply updates counters, uptime and status of m from r, persists the new
// state together with a check log entry, and reports whether the status
// changed. m itself is not modified.
func (t *Tracker) Apply(ctx context.Context, m *storage.Monitor, r *checks.Result) (*Outcome, error) {
	previous := m.CurrentStatus
	if previous == "" {
		previous = storage.StatusUp
	}
	current := t.Classify(m, r)

	checkedAt := r.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	next := *m
	next.TotalChecks++
	if current != storage.StatusUp {
		next.FailedChecks++
	}
	next.UptimePercentage = storage.Uptime(next.TotalChecks, next.FailedChecks)
	next.PreviousStatus = previous
	next.CurrentStatus = current
	next.ResponseTimeMs = r.ResponseTimeMs
	next.LastStatusCode = r.StatusCode
	next.LastCheckedAt = &checkedAt
	if current == storage.StatusDown {
		next.LastDowntimeAt = &checkedAt
	}

	patch := storage.StatusPatch{
		CurrentStatus:    next.CurrentStatus,
		PreviousStatus:   next.PreviousStatus,
		ResponseTimeMs:   next.ResponseTimeMs,
		LastStatusCode:   next.LastStatusCode,
		LastCheckedAt:    checkedAt,
		TotalChecks:      next.TotalChecks,
		FailedChecks:     next.FailedChecks,
		UptimePercentage: next.UptimePercentage,
	}
	if current == storage.StatusDown {
		patch.LastDowntimeAt = &checkedAt
	}

	entry := &storage.CheckLog{
		MonitorID:      m.ID,
		Status:         current,
		ResponseTimeMs: r.ResponseTimeMs,
		StatusCode:     r.StatusCode,
		ErrorMessage:   r.Error,
		CheckedAt:      checkedAt,
	}
	if r.ErrorKind != checks.ErrorNone {
		entry.ErrorKind = string(r.ErrorKind)
	}

	if err := t.store.RecordCheck(ctx, m.ID, patch, entry); err != nil {
		return nil, fmt.Errorf("record check for monitor %d: %w", m.ID, err)
	}

	return &Outcome{
		Monitor:      &next,
		Previous:     previous,
		Current:      current,
		Transitioned: previous != current,
	}, nil
}
