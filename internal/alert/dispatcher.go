// Package alert turns monitor state changes into notifications and delivers
// them to email, Slack, Microsoft Teams and WhatsApp.
//
// Every alert is persisted before its first delivery attempt. Failed
// deliveries are retried with exponential backoff by a single retry worker
// until they succeed or exhaust alert.max_retries.
package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"vigil/internal/checks"
	"vigil/internal/config"
	"vigil/internal/storage"
)

// Store is the persistence the dispatcher needs.
type Store interface {
	FindMonitorOwner(ctx context.Context, monitorID int64) (*storage.User, error)
	CreateAlert(ctx context.Context, a *storage.Alert) error
	GetAlert(ctx context.Context, id int64) (*storage.Alert, error)
	SaveAlertDelivery(ctx context.Context, a *storage.Alert) error
	MarkAlertSent(ctx context.Context, monitorID int64, at time.Time) error
}

// Event is the outcome of one check as seen by the dispatcher.
type Event struct {
	Monitor      *storage.Monitor
	Previous     storage.Status
	Current      storage.Status
	Transitioned bool
	Result       *checks.Result
}

// Dispatcher fans alerts out to channels and drives their retry state machine.
type Dispatcher struct {
	cfg      config.AlertConfig
	store    Store
	clock    Clock
	channels map[storage.Channel]Channel
	retries  *retryQueue

	mu       sync.Mutex
	lastSent map[int64]time.Time

	// ctx scopes detached retries; cancelled by Stop.
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewDispatcher creates a dispatcher delivering through channels.
// A destination whose channel is not registered fails as unconfigured.
func NewDispatcher(cfg config.AlertConfig, store Store, clock Clock, channels ...Channel) *Dispatcher {
	if clock == nil {
		clock = SystemClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:      cfg,
		store:    store,
		clock:    clock,
		channels: make(map[storage.Channel]Channel, len(channels)),
		lastSent: make(map[int64]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, ch := range channels {
		d.channels[ch.Name()] = ch
	}
	d.retries = newRetryQueue(clock, d.spawnRetry)
	return d
}

// Start launches the retry worker.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.retries.loop()
}

// Stop stops the retry worker, cancels in-flight retries and waits for them.
// Retries still queued are abandoned.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	started := d.started
	d.started = false
	d.mu.Unlock()

	if started {
		d.retries.close()
	}
	d.cancel()
	d.wg.Wait()

	if n := d.retries.len(); n > 0 {
		log.Warn().Int("pending_retries", n).Msg("Alert dispatcher stopped with queued retries")
	}
}

// Notify evaluates a check outcome and, when it warrants an alert and the
// monitor is outside its rate-limit window, creates one alert per enabled
// destination and makes the first delivery attempt for each concurrently.
//
// It returns the alerts created, in their state after the first attempt.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) ([]*storage.Alert, error) {
	kind, ok := KindFor(ev.Previous, ev.Current, ev.Transitioned)
	if !ok {
		return nil, nil
	}

	m := ev.Monitor
	now := d.clock.Now()
	if !d.reserve(m, now) {
		log.Debug().
			Int64("monitor_id", m.ID).
			Str("kind", string(kind)).
			Msg("Alert suppressed by rate limit")
		return nil, nil
	}

	owner, err := d.store.FindMonitorOwner(ctx, m.ID)
	if err != nil {
		d.release(m.ID)
		return nil, fmt.Errorf("find owner of monitor %d: %w", m.ID, err)
	}

	destinations := owner.Destinations()
	if len(destinations) == 0 {
		d.release(m.ID)
		log.Debug().Int64("monitor_id", m.ID).Msg("No alert destinations enabled")
		return nil, nil
	}

	message := RenderMessage(kind, m, ev.Result, now)
	dispatchID := uuid.NewString()

	alerts := make([]*storage.Alert, 0, len(destinations))
	for _, dest := range destinations {
		a := &storage.Alert{
			DispatchID:     dispatchID,
			MonitorID:      m.ID,
			UserID:         owner.ID,
			MonitorName:    m.Name,
			MonitorURL:     m.URL,
			Kind:           kind,
			Channel:        dest.Channel,
			Recipient:      dest.Address,
			Message:        message,
			Status:         storage.AlertStatusPending,
			ResponseTimeMs: ev.Result.ResponseTimeMs,
			StatusCode:     ev.Result.StatusCode,
			ErrorMessage:   ev.Result.Error,
			PreviousStatus: ev.Previous,
			CurrentStatus:  ev.Current,
			TriggeredAt:    now,
		}
		if err := d.store.CreateAlert(ctx, a); err != nil {
			log.Error().Err(err).
				Int64("monitor_id", m.ID).
				Str("channel", string(dest.Channel)).
				Msg("Failed to record alert")
			continue
		}
		alerts = append(alerts, a)
	}
	if len(alerts) == 0 {
		d.release(m.ID)
		return nil, fmt.Errorf("no alerts recorded for monitor %d", m.ID)
	}

	var g errgroup.Group
	for _, a := range alerts {
		g.Go(func() error {
			return d.attempt(ctx, a)
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Int64("monitor_id", m.ID).Msg("Failed to persist alert delivery state")
	}

	if err := d.store.MarkAlertSent(ctx, m.ID, now); err != nil {
		log.Error().Err(err).Int64("monitor_id", m.ID).Msg("Failed to record last alert time")
	}

	log.Info().
		Int64("monitor_id", m.ID).
		Str("kind", string(kind)).
		Str("dispatch_id", dispatchID).
		Int("alerts", len(alerts)).
		Msg("Alerts dispatched")

	return alerts, nil
}

// reserve claims the rate-limit window for a monitor. The window is measured
// from the later of the stored and in-memory last dispatch times.
func (d *Dispatcher) reserve(m *storage.Monitor, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, seen := d.lastSent[m.ID]
	if m.LastAlertSentAt != nil && (!seen || m.LastAlertSentAt.After(last)) {
		last, seen = *m.LastAlertSentAt, true
	}
	if seen && now.Sub(last) < d.cfg.MinInterval {
		return false
	}
	d.lastSent[m.ID] = now
	return true
}

// release undoes a reservation when nothing was dispatched.
func (d *Dispatcher) release(monitorID int64) {
	d.mu.Lock()
	delete(d.lastSent, monitorID)
	d.mu.Unlock()
}

// attempt makes one delivery attempt and applies the result to the alert:
// sent on success, terminal failure for configuration errors or exhausted
// retries, otherwise retrying after base * 2^retryCount.
func (d *Dispatcher) attempt(ctx context.Context, a *storage.Alert) error {
	err := d.deliver(ctx, a)
	now := d.clock.Now()

	switch {
	case err == nil:
		a.Status = storage.AlertStatusSent
		a.SentAt = &now
		a.NextAttemptAt = nil
		a.LastError = ""
	case errors.Is(err, ErrNotConfigured) || a.RetryCount >= d.cfg.MaxRetries:
		a.Status = storage.AlertStatusFailed
		a.FailedAt = &now
		a.NextAttemptAt = nil
		a.LastError = err.Error()
	default:
		a.RetryCount++
		next := now.Add(d.backoff(a.RetryCount))
		a.Status = storage.AlertStatusRetrying
		a.NextAttemptAt = &next
		a.LastError = err.Error()
	}

	event := log.Info()
	switch a.Status {
	case storage.AlertStatusFailed:
		event = log.Error().Err(err)
	case storage.AlertStatusRetrying:
		event = log.Warn().Err(err).Time("next_attempt_at", *a.NextAttemptAt)
	}
	event.
		Int64("alert_id", a.ID).
		Int64("monitor_id", a.MonitorID).
		Str("channel", string(a.Channel)).
		Str("status", string(a.Status)).
		Int("retry_count", a.RetryCount).
		Msg("Alert delivery attempt")

	if err := d.store.SaveAlertDelivery(context.WithoutCancel(ctx), a); err != nil {
		return fmt.Errorf("save alert %d: %w", a.ID, err)
	}
	if a.Status == storage.AlertStatusRetrying {
		d.retries.schedule(a.ID, *a.NextAttemptAt)
	}
	return nil
}

// deliver runs the channel under the delivery timeout and turns a panic
// into an ordinary failure.
func (d *Dispatcher) deliver(ctx context.Context, a *storage.Alert) (err error) {
	ch, ok := d.channels[a.Channel]
	if !ok {
		return fmt.Errorf("%w: no %s channel registered", ErrNotConfigured, a.Channel)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.DeliveryTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", a.Channel, r)
		}
	}()
	return ch.Deliver(ctx, a)
}

func (d *Dispatcher) backoff(retryCount int) time.Duration {
	return d.cfg.RetryBaseDelay * time.Duration(1<<retryCount)
}

// spawnRetry runs a due retry detached from the worker loop.
func (d *Dispatcher) spawnRetry(alertID int64) {
	if d.ctx.Err() != nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.retry(alertID)
	}()
}

func (d *Dispatcher) retry(alertID int64) {
	a, err := d.store.GetAlert(d.ctx, alertID)
	if err != nil {
		log.Error().Err(err).Int64("alert_id", alertID).Msg("Failed to load alert for retry")
		return
	}
	if a.Status != storage.AlertStatusRetrying {
		return
	}
	if err := d.attempt(d.ctx, a); err != nil {
		log.Error().Err(err).Int64("alert_id", alertID).Msg("Failed to persist alert retry")
	}
}

// Wait blocks until all in-flight retries have finished. Queued retries are
// not waited for.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
