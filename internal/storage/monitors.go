package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StatusPatch is the set of fields the status tracker writes after a check.
type StatusPatch struct {
	CurrentStatus    Status
	PreviousStatus   Status
	ResponseTimeMs   int64
	LastStatusCode   *int
	LastCheckedAt    time.Time
	LastDowntimeAt   *time.Time // left untouched when nil
	TotalChecks      int64
	FailedChecks     int64
	UptimePercentage float64
}

// CreateMonitor validates and inserts a monitor.
func (s *Storage) CreateMonitor(ctx context.Context, m *Monitor) error {
	if err := ValidateMonitor(m); err != nil {
		return err
	}
	if m.CurrentStatus == "" {
		m.CurrentStatus = StatusUp
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}
	return nil
}

// GetMonitor returns the monitor with the given id.
func (s *Storage) GetMonitor(ctx context.Context, id int64) (*Monitor, error) {
	var m Monitor
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// FindDueActiveMonitors returns active monitors that are due at now, least
// recently checked first. Monitors never checked come before all others.
func (s *Storage) FindDueActiveMonitors(ctx context.Context, now time.Time) ([]Monitor, error) {
	var active []Monitor
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_checked_at IS NOT NULL, last_checked_at ASC, id ASC").
		Find(&active).Error
	if err != nil {
		return nil, fmt.Errorf("find active monitors: %w", err)
	}

	due := active[:0]
	for _, m := range active {
		if m.IsDue(now) {
			due = append(due, m)
		}
	}
	return due, nil
}

// UpdateMonitorStatus writes a status patch to the monitor with the given id.
// It returns ErrNotFound when no such monitor exists.
func (s *Storage) UpdateMonitorStatus(ctx context.Context, id int64, p StatusPatch) error {
	fields := map[string]any{
		"current_status":    p.CurrentStatus,
		"previous_status":   p.PreviousStatus,
		"response_time_ms":  p.ResponseTimeMs,
		"last_status_code":  p.LastStatusCode,
		"last_checked_at":   p.LastCheckedAt,
		"total_checks":      p.TotalChecks,
		"failed_checks":     p.FailedChecks,
		"uptime_percentage": p.UptimePercentage,
	}
	if p.LastDowntimeAt != nil {
		fields["last_downtime_at"] = *p.LastDowntimeAt
	}
	return s.updateMonitor(ctx, id, fields)
}

// MarkAlertSent records the time alerts were last dispatched for a monitor.
func (s *Storage) MarkAlertSent(ctx context.Context, id int64, at time.Time) error {
	return s.updateMonitor(ctx, id, map[string]any{"last_alert_sent_at": at})
}

// SetMonitorActive toggles the soft-delete flag.
func (s *Storage) SetMonitorActive(ctx context.Context, id int64, active bool) error {
	return s.updateMonitor(ctx, id, map[string]any{"is_active": active})
}

func (s *Storage) updateMonitor(ctx context.Context, id int64, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&Monitor{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update monitor %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendCheckLog inserts a check log entry.
func (s *Storage) AppendCheckLog(ctx context.Context, entry *CheckLog) error {
	if entry.MonitorID <= 0 {
		return fmt.Errorf("check log requires a monitor id")
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append check log: %w", err)
	}
	return nil
}

// ListCheckLogs returns the most recent check logs of a monitor, newest first.
func (s *Storage) ListCheckLogs(ctx context.Context, monitorID int64, limit int) ([]CheckLog, error) {
	var logs []CheckLog
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list check logs: %w", err)
	}
	return logs, nil
}

// MonitorStats summarizes the check logs of one monitor over a window.
type MonitorStats struct {
	MonitorID         int64   `json:"monitor_id"`
	Days              int     `json:"days"`
	TotalChecks       int64   `json:"total_checks"`
	UpChecks          int64   `json:"up_checks"`
	DownChecks        int64   `json:"down_checks"`
	DegradedChecks    int64   `json:"degraded_checks"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	UptimePercentage  float64 `json:"uptime_percentage"`
}

// GetMonitorStats aggregates the check logs of a monitor recorded after since.
func (s *Storage) GetMonitorStats(ctx context.Context, monitorID int64, since time.Time) (*MonitorStats, error) {
	type row struct {
		Status Status
		Count  int64
		AvgMs  float64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&CheckLog{}).
		Select("status, COUNT(*) AS count, AVG(response_time_ms) AS avg_ms").
		Where("monitor_id = ? AND checked_at >= ?", monitorID, since).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("monitor stats: %w", err)
	}

	stats := &MonitorStats{MonitorID: monitorID}
	var weighted float64
	for _, r := range rows {
		stats.TotalChecks += r.Count
		weighted += r.AvgMs * float64(r.Count)
		switch r.Status {
		case StatusUp:
			stats.UpChecks = r.Count
		case StatusDown:
			stats.DownChecks = r.Count
		case StatusDegraded:
			stats.DegradedChecks = r.Count
		}
	}
	if stats.TotalChecks > 0 {
		stats.AvgResponseTimeMs = round2(weighted / float64(stats.TotalChecks))
		stats.UptimePercentage = Uptime(stats.TotalChecks, stats.TotalChecks-stats.UpChecks)
	}
	return stats, nil
}

// DashboardStats summarizes the monitors of one owner.
type DashboardStats struct {
	TotalMonitors     int64   `json:"total_monitors"`
	ActiveMonitors    int64   `json:"active_monitors"`
	UpMonitors        int64   `json:"up_monitors"`
	DownMonitors      int64   `json:"down_monitors"`
	DegradedMonitors  int64   `json:"degraded_monitors"`
	AverageUptime     float64 `json:"average_uptime"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// GetDashboardStats aggregates the live status fields of a user's monitors.
func (s *Storage) GetDashboardStats(ctx context.Context, userID int64) (*DashboardStats, error) {
	var monitors []Monitor
	err := s.db.WithContext(ctx).
		Select("is_active", "current_status", "uptime_percentage", "response_time_ms").
		Where("user_id = ?", userID).
		Find(&monitors).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	stats := &DashboardStats{TotalMonitors: int64(len(monitors))}
	var uptime, response float64
	for _, m := range monitors {
		if !m.IsActive {
			continue
		}
		stats.ActiveMonitors++
		uptime += m.UptimePercentage
		response += float64(m.ResponseTimeMs)
		switch m.CurrentStatus {
		case StatusUp:
			stats.UpMonitors++
		case StatusDown:
			stats.DownMonitors++
		case StatusDegraded:
			stats.DegradedMonitors++
		}
	}
	if stats.ActiveMonitors > 0 {
		stats.AverageUptime = round2(uptime / float64(stats.ActiveMonitors))
		stats.AvgResponseTimeMs = round2(response / float64(stats.ActiveMonitors))
	}
	return stats, nil
}

// Uptime returns the percentage of successful checks rounded to two decimals,
// or 0 when there are no checks.
func Uptime(total, failed int64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(total-failed) / float64(total) * 100)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// RecordCheck applies a status patch and appends the matching check log in
// one transaction.
func (s *Storage) RecordCheck(ctx context.Context, id int64, p StatusPatch, entry *CheckLog) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := &Storage{db: db}
		if err := tx.UpdateMonitorStatus(ctx, id, p); err != nil {
			return err
		}
		entry.MonitorID = id
		return tx.AppendCheckLog(ctx, entry)
	})
}
