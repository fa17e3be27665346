package monitors

import (
	"time"

	"vigil/internal/checks"
	"vigil/internal/core"
	"vigil/internal/storage"
)

// CheckResultResponse is a probe outcome.
type CheckResultResponse struct {
	Success        bool      `json:"success"`
	StatusCode     *int      `json:"status_code,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Error          string    `json:"error,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// AlertSummary is an alert created by a manual check.
type AlertSummary struct {
	ID         int64               `json:"id"`
	Channel    storage.Channel     `json:"channel"`
	Kind       storage.AlertKind   `json:"kind"`
	Status     storage.AlertStatus `json:"status"`
	RetryCount int                 `json:"retry_count"`
	LastError  string              `json:"last_error,omitempty"`
}

// CheckResponse is returned by a manual check.
type CheckResponse struct {
	MonitorID        int64               `json:"monitor_id"`
	PreviousStatus   storage.Status      `json:"previous_status"`
	CurrentStatus    storage.Status      `json:"current_status"`
	Transitioned     bool                `json:"transitioned"`
	UptimePercentage float64             `json:"uptime_percentage"`
	TotalChecks      int64               `json:"total_checks"`
	FailedChecks     int64               `json:"failed_checks"`
	Result           CheckResultResponse `json:"result"`
	Alerts           []AlertSummary      `json:"alerts"`
}

// CheckLogResponse is one check log entry.
type CheckLogResponse struct {
	ID             int64          `json:"id"`
	Status         storage.Status `json:"status"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	StatusCode     *int           `json:"status_code,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CheckedAt      time.Time      `json:"checked_at"`
}

func newCheckResponse(r *core.CheckReport) CheckResponse {
	res := r.Result
	resp := CheckResponse{
		MonitorID:        r.Monitor.ID,
		PreviousStatus:   r.Previous,
		CurrentStatus:    r.Current,
		Transitioned:     r.Transitioned,
		UptimePercentage: r.Monitor.UptimePercentage,
		TotalChecks:      r.Monitor.TotalChecks,
		FailedChecks:     r.Monitor.FailedChecks,
		Result: CheckResultResponse{
			Success:        res.Success,
			StatusCode:     res.StatusCode,
			ResponseTimeMs: res.ResponseTimeMs,
			Error:          res.Error,
			CheckedAt:      res.CheckedAt,
		},
		Alerts: make([]AlertSummary, 0, len(r.Alerts)),
	}
	if res.ErrorKind != checks.ErrorNone {
		resp.Result.ErrorKind = string(res.ErrorKind)
	}
	for _, a := range r.Alerts {
		resp.Alerts = append(resp.Alerts, AlertSummary{
			ID:         a.ID,
			Channel:    a.Channel,
			Kind:       a.Kind,
			Status:     a.Status,
			RetryCount: a.RetryCount,
			LastError:  a.LastError,
		})
	}
	return resp
}

func newCheckLogResponse(l storage.CheckLog) CheckLogResponse {
	return CheckLogResponse{
		ID:             l.ID,
		Status:         l.Status,
		ResponseTimeMs: l.ResponseTimeMs,
		StatusCode:     l.StatusCode,
		ErrorKind:      l.ErrorKind,
		ErrorMessage:   l.ErrorMessage,
		CheckedAt:      l.CheckedAt,
	}
}
