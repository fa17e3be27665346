package config

import "github.com/spf13/viper"

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_driver", "sqlite3")
	v.SetDefault("storage.path", "vigil.db")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.max_open_conns", 16)
	v.SetDefault("storage.max_idle_conns", 4)
	v.SetDefault("storage.conn_max_lifetime", "1h")

	// Engine defaults
	v.SetDefault("engine.tick_interval", "60s")
	v.SetDefault("engine.max_concurrent_checks", 10)
	v.SetDefault("engine.degraded_threshold", "5s")

	// HTTP check defaults
	v.SetDefault("checks.http.method", "GET")
	v.SetDefault("checks.http.timeout_seconds", 30)
	v.SetDefault("checks.http.expected_status_codes", []int{200, 201, 202, 204})
	v.SetDefault("checks.http.follow_redirects", true)
	v.SetDefault("checks.http.verify_ssl", true)
	v.SetDefault("checks.http.user_agent", "Vigil-Monitor/1.0")
	v.SetDefault("checks.http.max_body_bytes", 1<<20)

	// Alert defaults
	v.SetDefault("alert.min_interval", "15m")
	v.SetDefault("alert.max_retries", 3)
	v.SetDefault("alert.retry_base_delay", "1s")
	v.SetDefault("alert.delivery_timeout", "10s")
	v.SetDefault("alert.email.api_key", "")
	v.SetDefault("alert.email.from_address", "")
	v.SetDefault("alert.email.from_name", "Vigil Monitor")
	v.SetDefault("alert.email.host", "https://api.sendgrid.com")
	v.SetDefault("alert.whatsapp.access_token", "")
	v.SetDefault("alert.whatsapp.phone_number_id", "")
	v.SetDefault("alert.whatsapp.api_url", "https://graph.facebook.com/v18.0")
	v.SetDefault("alert.slack.username", "Vigil Monitor")
	v.SetDefault("alert.teams.dashboard_url", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
