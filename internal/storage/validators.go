package storage

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var (
	phoneRegex = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

	validMethods = map[string]bool{
		http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
		http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
		http.MethodOptions: true,
	}
)

// ValidateMonitor validates a Monitor before it is stored and normalizes its method.
func ValidateMonitor(m *Monitor) error {
	if m.UserID <= 0 {
		return fmt.Errorf("monitor owner is required")
	}

	name := strings.TrimSpace(m.Name)
	if name == "" {
		return fmt.Errorf("monitor name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("monitor name too long (max 100 chars)")
	}
	m.Name = name

	if err := validateHTTPURL(m.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if m.Method != "" {
		m.Method = strings.ToUpper(m.Method)
		if !validMethods[m.Method] {
			return fmt.Errorf("unsupported HTTP method: %s", m.Method)
		}
	}

	if m.IntervalSeconds < 5 {
		return fmt.Errorf("monitor interval too short (minimum 5 seconds)")
	}
	if m.IntervalSeconds > 86400 {
		return fmt.Errorf("monitor interval too long (maximum 24 hours)")
	}

	if m.TimeoutSeconds < 0 || m.TimeoutSeconds > 300 {
		return fmt.Errorf("monitor timeout must be between 0 and 300 seconds")
	}

	for _, code := range m.ExpectedStatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("invalid expected status code: %d", code)
		}
	}

	if m.DegradedThresholdMs < 0 {
		return fmt.Errorf("degraded threshold cannot be negative")
	}

	if m.JSONAssertKey == "" && m.JSONAssertValue != "" {
		return fmt.Errorf("json assertion value requires a key")
	}
	if m.JSONAssertKey != "" && !json.Valid([]byte(m.JSONAssertValue)) {
		return fmt.Errorf("json assertion value must be a JSON literal")
	}

	return nil
}

// ValidateUser validates a User and the destinations of its enabled channels.
func ValidateUser(u *User) error {
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("invalid email address: %s", u.Email)
	}
	if len(u.Name) > 100 {
		return fmt.Errorf("user name too long (max 100 chars)")
	}

	if u.WhatsAppNumber != "" && !phoneRegex.MatchString(u.WhatsAppNumber) {
		return fmt.Errorf("invalid whatsapp number: %s", u.WhatsAppNumber)
	}
	if u.SlackWebhookURL != "" {
		if err := validateHTTPURL(u.SlackWebhookURL); err != nil {
			return fmt.Errorf("invalid slack webhook: %w", err)
		}
	}
	if u.TeamsWebhookURL != "" {
		if err := validateHTTPURL(u.TeamsWebhookURL); err != nil {
			return fmt.Errorf("invalid teams webhook: %w", err)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	return nil
}
