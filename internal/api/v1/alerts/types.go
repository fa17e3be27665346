package alerts

import (
	"net/url"
	"time"

	"vigil/internal/storage"
)

// AlertResponse is an alert record as exposed over the API. Webhook
// recipients are reduced to their host since the URL is a credential.
type AlertResponse struct {
	ID             int64               `json:"id"`
	DispatchID     string              `json:"dispatch_id"`
	MonitorID      int64               `json:"monitor_id"`
	MonitorName    string              `json:"monitor_name"`
	MonitorURL     string              `json:"monitor_url"`
	Kind           storage.AlertKind   `json:"kind"`
	Channel        storage.Channel     `json:"channel"`
	Recipient      string              `json:"recipient"`
	Message        string              `json:"message"`
	Status         storage.AlertStatus `json:"status"`
	RetryCount     int                 `json:"retry_count"`
	LastError      string              `json:"last_error,omitempty"`
	ResponseTimeMs int64               `json:"response_time_ms"`
	StatusCode     *int                `json:"status_code,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	PreviousStatus storage.Status      `json:"previous_status,omitempty"`
	CurrentStatus  storage.Status      `json:"current_status"`
	TriggeredAt    time.Time           `json:"triggered_at"`
	SentAt         *time.Time          `json:"sent_at,omitempty"`
	FailedAt       *time.Time          `json:"failed_at,omitempty"`
	NextAttemptAt  *time.Time          `json:"next_attempt_at,omitempty"`
}

func newAlertResponse(a storage.Alert) AlertResponse {
	return AlertResponse{
		ID:             a.ID,
		DispatchID:     a.DispatchID,
		MonitorID:      a.MonitorID,
		MonitorName:    a.MonitorName,
		MonitorURL:     a.MonitorURL,
		Kind:           a.Kind,
		Channel:        a.Channel,
		Recipient:      maskRecipient(a.Channel, a.Recipient),
		Message:        a.Message,
		Status:         a.Status,
		RetryCount:     a.RetryCount,
		LastError:      a.LastError,
		ResponseTimeMs: a.ResponseTimeMs,
		StatusCode:     a.StatusCode,
		ErrorMessage:   a.ErrorMessage,
		PreviousStatus: a.PreviousStatus,
		CurrentStatus:  a.CurrentStatus,
		TriggeredAt:    a.TriggeredAt,
		SentAt:         a.SentAt,
		FailedAt:       a.FailedAt,
		NextAttemptAt:  a.NextAttemptAt,
	}
}

func maskRecipient(ch storage.Channel, recipient string) string {
	switch ch {
	case storage.ChannelSlack, storage.ChannelTeams:
		u, err := url.Parse(recipient)
		if err != nil || u.Host == "" {
			return "***"
		}
		return u.Scheme + "://" + u.Host + "/***"
	default:
		return recipient
	}
}
