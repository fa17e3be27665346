package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete configuration schema for the Vigil monitoring engine.
//
// Configuration sources (in order of precedence):
//  1. Defaults
//  2. Configuration file (optional)
//  3. Environment variables (a .env file in the working directory is loaded first)
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Checks  ChecksConfig  `mapstructure:"checks" yaml:"checks"`
	Alert   AlertConfig   `mapstructure:"alert" yaml:"alert"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

type StorageConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`               // sqlite, postgres
	SQLiteDriver    string        `mapstructure:"sqlite_driver" yaml:"sqlite_driver"` // sqlite3 (cgo), sqlite (pure Go)
	Path            string        `mapstructure:"path" yaml:"path"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// EngineConfig controls the check scheduler.
type EngineConfig struct {
	TickInterval        time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	MaxConcurrentChecks int           `mapstructure:"max_concurrent_checks" yaml:"max_concurrent_checks"`
	DegradedThreshold   time.Duration `mapstructure:"degraded_threshold" yaml:"degraded_threshold"`
}

type ChecksConfig struct {
	HTTP HTTPDefaultsConfig `mapstructure:"http" yaml:"http"`
}

type HTTPDefaultsConfig struct {
	Method              string `mapstructure:"method" yaml:"method"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	ExpectedStatusCodes []int  `mapstructure:"expected_status_codes" yaml:"expected_status_codes"`
	FollowRedirects     bool   `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	VerifySSL           bool   `mapstructure:"verify_ssl" yaml:"verify_ssl"`
	UserAgent           string `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes        int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type AlertConfig struct {
	MinInterval     time.Duration  `mapstructure:"min_interval" yaml:"min_interval"`
	MaxRetries      int            `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBaseDelay  time.Duration  `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	DeliveryTimeout time.Duration  `mapstructure:"delivery_timeout" yaml:"delivery_timeout"`
	Email           EmailConfig    `mapstructure:"email" yaml:"email"`
	WhatsApp        WhatsAppConfig `mapstructure:"whatsapp" yaml:"whatsapp"`
	Slack           SlackConfig    `mapstructure:"slack" yaml:"slack"`
	Teams           TeamsConfig    `mapstructure:"teams" yaml:"teams"`
}

// EmailConfig holds SendGrid credentials. An empty APIKey leaves email alerts unconfigured.
type EmailConfig struct {
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	FromAddress string `mapstructure:"from_address" yaml:"from_address"`
	FromName    string `mapstructure:"from_name" yaml:"from_name"`
	Host        string `mapstructure:"host" yaml:"host"`
}

type WhatsAppConfig struct {
	AccessToken   string `mapstructure:"access_token" yaml:"access_token"`
	PhoneNumberID string `mapstructure:"phone_number_id" yaml:"phone_number_id"`
	APIURL        string `mapstructure:"api_url" yaml:"api_url"`
}

type SlackConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
}

type TeamsConfig struct {
	DashboardURL string `mapstructure:"dashboard_url" yaml:"dashboard_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error, fatal, panic
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"` // human-readable console output
}

// secretKeys are bound explicitly so that credentials set only in the
// environment are picked up even when no config file mentions them.
var secretKeys = []string{
	"storage.dsn",
	"alert.email.api_key",
	"alert.email.from_address",
	"alert.whatsapp.access_token",
	"alert.whatsapp.phone_number_id",
}

// Load loads configuration from defaults, configuration file,
// and environment variables, then validates the result.
//
// The function fails fast on:
//   - Invalid configuration file or .env file
//   - Invalid or missing required configuration values
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("env file error: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("VIGIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir := getConfigDir(); configDir != "" {
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	for _, key := range secretKeys {
		env := "VIGIL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, ok := os.LookupEnv(env); ok {
			if err := v.BindEnv(key, env); err != nil {
				return nil, fmt.Errorf("bind %s: %w", env, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalizeConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// getConfigDir returns the appropriate config directory for the current OS
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "vigil")
		}
		return ""
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".vigil")
	}
	return ""
}
