package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with no user config dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("APPDATA", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected server addr ':8080', got '%s'", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLiteDriver != "sqlite3" {
		t.Errorf("Expected sqlite/sqlite3, got %s/%s", cfg.Storage.Driver, cfg.Storage.SQLiteDriver)
	}
	if cfg.Engine.TickInterval != time.Minute {
		t.Errorf("Expected tick interval 1m, got %v", cfg.Engine.TickInterval)
	}
	if cfg.Engine.MaxConcurrentChecks != 10 {
		t.Errorf("Expected 10 concurrent checks, got %d", cfg.Engine.MaxConcurrentChecks)
	}
	if cfg.Engine.DegradedThreshold != 5*time.Second {
		t.Errorf("Expected degraded threshold 5s, got %v", cfg.Engine.DegradedThreshold)
	}
	if cfg.Checks.HTTP.Method != "GET" || cfg.Checks.HTTP.TimeoutSeconds != 30 {
		t.Errorf("Unexpected HTTP defaults: %+v", cfg.Checks.HTTP)
	}
	want := []int{200, 201, 202, 204}
	if len(cfg.Checks.HTTP.ExpectedStatusCodes) != len(want) {
		t.Fatalf("Expected status codes %v, got %v", want, cfg.Checks.HTTP.ExpectedStatusCodes)
	}
	for i, code := range want {
		if cfg.Checks.HTTP.ExpectedStatusCodes[i] != code {
			t.Errorf("Expected status codes %v, got %v", want, cfg.Checks.HTTP.ExpectedStatusCodes)
		}
	}
	if cfg.Alert.MinInterval != 15*time.Minute {
		t.Errorf("Expected min alert interval 15m, got %v", cfg.Alert.MinInterval)
	}
	if cfg.Alert.MaxRetries != 3 || cfg.Alert.RetryBaseDelay != time.Second {
		t.Errorf("Unexpected retry defaults: %d / %v", cfg.Alert.MaxRetries, cfg.Alert.RetryBaseDelay)
	}
	if cfg.Alert.DeliveryTimeout != 10*time.Second {
		t.Errorf("Expected delivery timeout 10s, got %v", cfg.Alert.DeliveryTimeout)
	}
	if cfg.Log.Level != "info" || cfg.Log.Pretty {
		t.Errorf("Unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)

	yaml := `
engine:
  max_concurrent_checks: 4
  tick_interval: 30s
checks:
  http:
    method: post
    expected_status_codes: [200]
log:
  level: DEBUG
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("File overrides defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Engine.MaxConcurrentChecks != 4 {
			t.Errorf("Expected 4, got %d", cfg.Engine.MaxConcurrentChecks)
		}
		if cfg.Engine.TickInterval != 30*time.Second {
			t.Errorf("Expected 30s, got %v", cfg.Engine.TickInterval)
		}
		if cfg.Checks.HTTP.Method != "POST" {
			t.Errorf("Expected normalized method POST, got %s", cfg.Checks.HTTP.Method)
		}
		if len(cfg.Checks.HTTP.ExpectedStatusCodes) != 1 || cfg.Checks.HTTP.ExpectedStatusCodes[0] != 200 {
			t.Errorf("Expected [200], got %v", cfg.Checks.HTTP.ExpectedStatusCodes)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Expected normalized level debug, got %s", cfg.Log.Level)
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("VIGIL_ENGINE_MAX_CONCURRENT_CHECKS", "7")
		t.Setenv("VIGIL_ALERT_MIN_INTERVAL", "5m")
		t.Setenv("VIGIL_ALERT_EMAIL_API_KEY", "SG.test-key")
		t.Setenv("VIGIL_ALERT_EMAIL_FROM_ADDRESS", "alerts@example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Engine.MaxConcurrentChecks != 7 {
			t.Errorf("Expected 7, got %d", cfg.Engine.MaxConcurrentChecks)
		}
		if cfg.Alert.MinInterval != 5*time.Minute {
			t.Errorf("Expected 5m, got %v", cfg.Alert.MinInterval)
		}
		if cfg.Alert.Email.APIKey != "SG.test-key" {
			t.Errorf("Expected API key from env, got %q", cfg.Alert.Email.APIKey)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VIGIL_SERVER_ADDR=:9191\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets the process environment; restore it when done.
	t.Setenv("VIGIL_SERVER_ADDR", "")
	os.Unsetenv("VIGIL_SERVER_ADDR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Addr != ":9191" {
		t.Errorf("Expected addr from .env, got %s", cfg.Server.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)
	t.Setenv("VIGIL_ENGINE_MAX_CONCURRENT_CHECKS", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "engine.max_concurrent_checks") {
		t.Fatalf("Expected engine.max_concurrent_checks error, got %v", err)
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: time.Minute},
		Storage: StorageConfig{
			Driver: "sqlite", SQLiteDriver: "sqlite3", Path: "vigil.db",
			MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: time.Hour,
		},
		Engine: EngineConfig{TickInterval: time.Minute, MaxConcurrentChecks: 10, DegradedThreshold: 5 * time.Second},
		Checks: ChecksConfig{HTTP: HTTPDefaultsConfig{
			Method: "GET", TimeoutSeconds: 30, ExpectedStatusCodes: []int{200}, MaxBodyBytes: 1024,
		}},
		Alert: AlertConfig{
			MinInterval: 15 * time.Minute, MaxRetries: 3, RetryBaseDelay: time.Second, DeliveryTimeout: 10 * time.Second,
			Email:    EmailConfig{Host: "https://api.sendgrid.com"},
			WhatsApp: WhatsAppConfig{APIURL: "https://graph.facebook.com/v18.0"},
		},
		Log: LogConfig{Level: "info"},
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := validConfig()
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr cannot be empty"},
		{"bad port", func(c *Config) { c.Server.Addr = ":70000" }, "server.addr port out of range"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"unknown sqlite driver", func(c *Config) { c.Storage.SQLiteDriver = "cgo" }, "storage.sqlite_driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn is required"},
		{"path traversal", func(c *Config) { c.Storage.Path = "../x.db" }, "storage.path cannot contain"},
		{"idle above open", func(c *Config) { c.Storage.MaxIdleConns = 10 }, "storage.max_idle_conns"},
		{"tick too small", func(c *Config) { c.Engine.TickInterval = time.Millisecond }, "engine.tick_interval"},
		{"no concurrency", func(c *Config) { c.Engine.MaxConcurrentChecks = 0 }, "engine.max_concurrent_checks"},
		{"bad method", func(c *Config) { c.Checks.HTTP.Method = "FETCH" }, "checks.http.method"},
		{"no status codes", func(c *Config) { c.Checks.HTTP.ExpectedStatusCodes = nil }, "checks.http.expected_status_codes"},
		{"status code out of range", func(c *Config) { c.Checks.HTTP.ExpectedStatusCodes = []int{42} }, "invalid code 42"},
		{"negative retries", func(c *Config) { c.Alert.MaxRetries = -1 }, "alert.max_retries"},
		{"api key without sender", func(c *Config) { c.Alert.Email.APIKey = "SG.x" }, "alert.email.from_address"},
		{"half whatsapp", func(c *Config) { c.Alert.WhatsApp.AccessToken = "token" }, "alert.whatsapp"},
		{"relative dashboard url", func(c *Config) { c.Alert.Teams.DashboardURL = "/dash" }, "alert.teams.dashboard_url"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
