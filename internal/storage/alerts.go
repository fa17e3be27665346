package storage

import (
	"context"
	"fmt"
	"time"
)

// CreateAlert inserts a new alert record.
func (s *Storage) CreateAlert(ctx context.Context, a *Alert) error {
	if a.MonitorID <= 0 || a.UserID <= 0 {
		return fmt.Errorf("alert requires monitor and user")
	}
	if a.Channel == "" || a.Recipient == "" {
		return fmt.Errorf("alert requires channel and recipient")
	}
	if a.Status == "" {
		a.Status = AlertStatusPending
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// GetAlert returns the alert with the given id.
func (s *Storage) GetAlert(ctx context.Context, id int64) (*Alert, error) {
	var a Alert
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// SaveAlertDelivery persists the delivery state of an alert.
func (s *Storage) SaveAlertDelivery(ctx context.Context, a *Alert) error {
	res := s.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", a.ID).Updates(map[string]any{
		"status":          a.Status,
		"retry_count":     a.RetryCount,
		"last_error":      a.LastError,
		"sent_at":         a.SentAt,
		"failed_at":       a.FailedAt,
		"next_attempt_at": a.NextAttemptAt,
	})
	if res.Error != nil {
		return fmt.Errorf("save alert %d: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAlertsByUser returns a user's most recent alerts, newest first.
func (s *Storage) ListAlertsByUser(ctx context.Context, userID int64, limit int) ([]Alert, error) {
	var alerts []Alert
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("triggered_at DESC, id DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// ListAlertsByMonitor returns a monitor's alerts, newest first.
func (s *Storage) ListAlertsByMonitor(ctx context.Context, monitorID int64, limit int) ([]Alert, error) {
	var alerts []Alert
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("triggered_at DESC, id DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// AlertStats summarizes a user's alerts over a window.
type AlertStats struct {
	Days        int                 `json:"days"`
	Total       int64               `json:"total"`
	Sent        int64               `json:"sent"`
	Failed      int64               `json:"failed"`
	Pending     int64               `json:"pending"`
	Retrying    int64               `json:"retrying"`
	SuccessRate float64             `json:"success_rate"`
	ByChannel   map[Channel]int64   `json:"by_channel"`
	ByKind      map[AlertKind]int64 `json:"by_kind"`
}

// GetAlertStats aggregates the alerts of a user triggered after since.
func (s *Storage) GetAlertStats(ctx context.Context, userID int64, since time.Time) (*AlertStats, error) {
	type row struct {
		Status  AlertStatus
		Channel Channel
		Kind    AlertKind
		Count   int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&Alert{}).
		Select("status, channel, kind, COUNT(*) AS count").
		Where("user_id = ? AND triggered_at >= ?", userID, since).
		Group("status, channel, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("alert stats: %w", err)
	}

	stats := &AlertStats{
		ByChannel: make(map[Channel]int64),
		ByKind:    make(map[AlertKind]int64),
	}
	for _, r := range rows {
		stats.Total += r.Count
		stats.ByChannel[r.Channel] += r.Count
		stats.ByKind[r.Kind] += r.Count
		switch r.Status {
		case AlertStatusSent:
			stats.Sent += r.Count
		case AlertStatusFailed:
			stats.Failed += r.Count
		case AlertStatusPending:
			stats.Pending += r.Count
		case AlertStatusRetrying:
			stats.Retrying += r.Count
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = round2(float64(stats.Sent) / float64(stats.Total) * 100)
	}
	return stats, nil
}
