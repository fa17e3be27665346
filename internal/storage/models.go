package storage

import "time"

// Status is the health state of a monitor.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Channel identifies an alert delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSlack    Channel = "slack"
	ChannelTeams    Channel = "teams"
	ChannelWhatsApp Channel = "whatsapp"
)

// AlertKind is the reason an alert was raised.
type AlertKind string

const (
	AlertKindDowntime AlertKind = "downtime"
	AlertKindRecovery AlertKind = "recovery"
	AlertKindDegraded AlertKind = "degraded"
)

// AlertStatus is the delivery state of an alert.
type AlertStatus string

const (
	AlertStatusPending  AlertStatus = "pending"
	AlertStatusSent     AlertStatus = "sent"
	AlertStatusFailed   AlertStatus = "failed"
	AlertStatusRetrying AlertStatus = "retrying"
)

// User owns monitors and carries per-channel alert preferences.
type User struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Email string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name  string `gorm:"size:100" json:"name"`

	EmailAlerts     bool   `gorm:"not null" json:"email_alerts"`
	WhatsAppAlerts  bool   `gorm:"not null" json:"whatsapp_alerts"`
	WhatsAppNumber  string `gorm:"size:32" json:"whatsapp_number,omitempty"`
	SlackAlerts     bool   `gorm:"not null" json:"slack_alerts"`
	SlackWebhookURL string `json:"slack_webhook_url,omitempty"`
	TeamsAlerts     bool   `gorm:"not null" json:"teams_alerts"`
	TeamsWebhookURL string `json:"teams_webhook_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Destination is a channel together with the address alerts go to.
type Destination struct {
	Channel Channel
	Address string
}

// Destinations returns the channels that are enabled and have a destination,
// in a stable order.
func (u *User) Destinations() []Destination {
	var out []Destination
	add := func(enabled bool, ch Channel, addr string) {
		if enabled && addr != "" {
			out = append(out, Destination{Channel: ch, Address: addr})
		}
	}
	add(u.EmailAlerts, ChannelEmail, u.Email)
	add(u.WhatsAppAlerts, ChannelWhatsApp, u.WhatsAppNumber)
	add(u.SlackAlerts, ChannelSlack, u.SlackWebhookURL)
	add(u.TeamsAlerts, ChannelTeams, u.TeamsWebhookURL)
	return out
}

// Monitor is an HTTP endpoint probed on a fixed interval.
//
// Zero values in the probe settings (Method, TimeoutSeconds, ExpectedStatusCodes,
// DegradedThresholdMs) fall back to the engine defaults. The status block is
// written only by the status tracker.
type Monitor struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"size:100;not null" json:"name"`

	URL                 string            `gorm:"not null" json:"url"`
	Method              string            `gorm:"size:10" json:"method"`
	Headers             map[string]string `gorm:"serializer:json" json:"headers,omitempty"`
	Body                string            `json:"body,omitempty"`
	TimeoutSeconds      int               `json:"timeout_seconds"`
	ExpectedStatusCodes []int             `gorm:"serializer:json" json:"expected_status_codes,omitempty"`

	// JSONAssertKey is a dotted path into the response body; JSONAssertValue
	// is the JSON literal expected at that path.
	JSONAssertKey   string `gorm:"size:255" json:"json_assert_key,omitempty"`
	JSONAssertValue string `json:"json_assert_value,omitempty"`

	IntervalSeconds     int `gorm:"not null" json:"interval_seconds"`
	DegradedThresholdMs int `json:"degraded_threshold_ms,omitempty"`

	CurrentStatus    Status     `gorm:"size:16;not null;default:up" json:"current_status"`
	PreviousStatus   Status     `gorm:"size:16" json:"previous_status,omitempty"`
	ResponseTimeMs   int64      `json:"response_time_ms"`
	LastStatusCode   *int       `json:"last_status_code,omitempty"`
	LastCheckedAt    *time.Time `gorm:"index" json:"last_checked_at,omitempty"`
	LastDowntimeAt   *time.Time `json:"last_downtime_at,omitempty"`
	LastAlertSentAt  *time.Time `json:"last_alert_sent_at,omitempty"`
	TotalChecks      int64      `gorm:"not null;default:0" json:"total_checks"`
	FailedChecks     int64      `gorm:"not null;default:0" json:"failed_checks"`
	UptimePercentage float64    `gorm:"not null;default:0" json:"uptime_percentage"`

	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interval returns the check interval as a duration.
func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// IsDue reports whether the monitor should be checked at now.
func (m *Monitor) IsDue(now time.Time) bool {
	if !m.IsActive {
		return false
	}
	if m.LastCheckedAt == nil {
		return true
	}
	return now.Sub(*m.LastCheckedAt) >= m.Interval()
}

// CheckLog is an immutable record of one check execution.
type CheckLog struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	MonitorID      int64     `gorm:"not null;index:idx_check_logs_monitor_time,priority:1" json:"monitor_id"`
	Status         Status    `gorm:"size:16;not null" json:"status"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	StatusCode     *int      `json:"status_code,omitempty"`
	ErrorKind      string    `gorm:"size:32" json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CheckedAt      time.Time `gorm:"not null;index:idx_check_logs_monitor_time,priority:2" json:"checked_at"`
}

// Alert records one notification to one channel and its delivery state.
//
// Alerts created by the same evaluation share a DispatchID.
type Alert struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	DispatchID  string    `gorm:"size:36;index" json:"dispatch_id"`
	MonitorID   int64     `gorm:"not null;index" json:"monitor_id"`
	UserID      int64     `gorm:"not null;index" json:"user_id"`
	MonitorName string    `gorm:"size:100" json:"monitor_name"`
	MonitorURL  string    `json:"monitor_url"`
	Kind        AlertKind `gorm:"size:16;not null" json:"kind"`
	Channel     Channel   `gorm:"size:16;not null" json:"channel"`
	Recipient   string    `gorm:"not null" json:"recipient"`
	Message     string    `gorm:"not null" json:"message"`

	Status     AlertStatus `gorm:"size:16;not null;index" json:"status"`
	RetryCount int         `gorm:"not null;default:0" json:"retry_count"`
	LastError  string      `json:"last_error,omitempty"`

	ResponseTimeMs int64  `json:"response_time_ms"`
	StatusCode     *int   `json:"status_code,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	PreviousStatus Status `gorm:"size:16" json:"previous_status,omitempty"`
	CurrentStatus  Status `gorm:"size:16" json:"current_status"`

	TriggeredAt   time.Time  `gorm:"not null;index" json:"triggered_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	FailedAt      *time.Time `json:"failed_at,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*User) TableName() string     { return "users" }
func (*Monitor) TableName() string  { return "monitors" }
func (*CheckLog) TableName() string { return "check_logs" }
func (*Alert) TableName() string    { return "alerts" }
