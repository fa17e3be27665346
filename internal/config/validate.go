package config

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	validLogLevels     = []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validDrivers       = []string{"sqlite", "postgres"}
	validSQLiteDrivers = []string{"sqlite3", "sqlite"}
	validMethods       = []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
)

// validateConfig validates the configuration and returns an error if invalid.
func validateConfig(c *Config) error {
	for _, validate := range []func() error{
		func() error { return validateServerConfig(c.Server) },
		func() error { return validateStorageConfig(c.Storage) },
		func() error { return validateEngineConfig(c.Engine) },
		func() error { return validateHTTPDefaults(c.Checks.HTTP) },
		func() error { return validateAlertConfig(c.Alert) },
		func() error { return validateLogConfig(c.Log) },
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServerConfig validates server configuration.
func validateServerConfig(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return fmt.Errorf("server.addr invalid format: %w", err)
	}
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("server.addr invalid port: %w", err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("server.addr port out of range (1-65535)")
		}
	}
	if host != "" && host != "0.0.0.0" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("server.addr invalid host: %s", host)
	}

	if s.ReadTimeout < time.Second || s.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("server.read_timeout must be between 1s and 5m")
	}
	if s.WriteTimeout < time.Second || s.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("server.write_timeout must be between 1s and 5m")
	}
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("server.idle_timeout must be greater than 0")
	}
	if s.IdleTimeout > 30*time.Minute {
		return fmt.Errorf("server.idle_timeout too large (max 30m)")
	}

	return nil
}

// validateStorageConfig validates storage configuration.
func validateStorageConfig(s StorageConfig) error {
	if !slices.Contains(validDrivers, s.Driver) {
		return fmt.Errorf("storage.driver must be one of: %s", strings.Join(validDrivers, ", "))
	}

	switch s.Driver {
	case "sqlite":
		if !slices.Contains(validSQLiteDrivers, s.SQLiteDriver) {
			return fmt.Errorf("storage.sqlite_driver must be one of: %s", strings.Join(validSQLiteDrivers, ", "))
		}
		if s.Path == "" {
			return fmt.Errorf("storage.path cannot be empty")
		}
		if strings.Contains(s.Path, "..") {
			return fmt.Errorf("storage.path cannot contain '..' for security")
		}
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is postgres")
		}
	}

	if s.MaxOpenConns <= 0 {
		return fmt.Errorf("storage.max_open_conns must be greater than 0")
	}
	if s.MaxOpenConns > 1000 {
		return fmt.Errorf("storage.max_open_conns too large (max 1000)")
	}
	if s.MaxIdleConns < 0 {
		return fmt.Errorf("storage.max_idle_conns cannot be negative")
	}
	if s.MaxIdleConns > s.MaxOpenConns {
		return fmt.Errorf("storage.max_idle_conns cannot be greater than max_open_conns")
	}
	if s.ConnMaxLifetime < time.Minute || s.ConnMaxLifetime > 24*time.Hour {
		return fmt.Errorf("storage.conn_max_lifetime must be between 1m and 24h")
	}

	return nil
}

// validateEngineConfig validates check scheduling configuration.
func validateEngineConfig(e EngineConfig) error {
	if e.TickInterval < time.Second {
		return fmt.Errorf("engine.tick_interval too small (min 1s)")
	}
	if e.TickInterval > time.Hour {
		return fmt.Errorf("engine.tick_interval too large (max 1h)")
	}
	if e.MaxConcurrentChecks <= 0 {
		return fmt.Errorf("engine.max_concurrent_checks must be greater than 0")
	}
	if e.MaxConcurrentChecks > 1000 {
		return fmt.Errorf("engine.max_concurrent_checks too large (max 1000)")
	}
	if e.DegradedThreshold <= 0 {
		return fmt.Errorf("engine.degraded_threshold must be greater than 0")
	}
	return nil
}

// validateHTTPDefaults validates the defaults applied to HTTP checks.
func validateHTTPDefaults(h HTTPDefaultsConfig) error {
	if !slices.Contains(validMethods, h.Method) {
		return fmt.Errorf("checks.http.method unsupported: %s", h.Method)
	}
	if h.TimeoutSeconds <= 0 {
		return fmt.Errorf("checks.http.timeout_seconds must be greater than 0")
	}
	if h.TimeoutSeconds > 300 {
		return fmt.Errorf("checks.http.timeout_seconds too large (max 300)")
	}
	if len(h.ExpectedStatusCodes) == 0 {
		return fmt.Errorf("checks.http.expected_status_codes cannot be empty")
	}
	for _, code := range h.ExpectedStatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("checks.http.expected_status_codes contains invalid code %d", code)
		}
	}
	if h.MaxBodyBytes <= 0 {
		return fmt.Errorf("checks.http.max_body_bytes must be greater than 0")
	}
	return nil
}

// validateAlertConfig validates alert configuration. Channel credentials are
// optional; a channel without them fails its deliveries as unconfigured.
func validateAlertConfig(a AlertConfig) error {
	if a.MinInterval < 0 {
		return fmt.Errorf("alert.min_interval cannot be negative")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("alert.max_retries cannot be negative")
	}
	if a.MaxRetries > 10 {
		return fmt.Errorf("alert.max_retries too large (max 10)")
	}
	if a.RetryBaseDelay <= 0 {
		return fmt.Errorf("alert.retry_base_delay must be greater than 0")
	}
	if a.DeliveryTimeout < time.Second || a.DeliveryTimeout > 2*time.Minute {
		return fmt.Errorf("alert.delivery_timeout must be between 1s and 2m")
	}

	if a.Email.APIKey != "" && a.Email.FromAddress == "" {
		return fmt.Errorf("alert.email.from_address is required when alert.email.api_key is set")
	}
	if err := validateURL(a.Email.Host, "alert.email.host"); err != nil {
		return err
	}
	if (a.WhatsApp.AccessToken == "") != (a.WhatsApp.PhoneNumberID == "") {
		return fmt.Errorf("alert.whatsapp.access_token and alert.whatsapp.phone_number_id must be set together")
	}
	if err := validateURL(a.WhatsApp.APIURL, "alert.whatsapp.api_url"); err != nil {
		return err
	}
	if a.Teams.DashboardURL != "" {
		if err := validateURL(a.Teams.DashboardURL, "alert.teams.dashboard_url"); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(raw, key string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL", key)
	}
	return nil
}

// validateLogConfig validates log configuration.
func validateLogConfig(l LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(l.Level)) {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, fatal, panic")
	}
	return nil
}
