// Package storagetest opens throwaway SQLite storage for tests.
package storagetest

import (
	"path/filepath"
	"testing"
	"time"

	"vigil/internal/config"
	"vigil/internal/storage"
)

// New returns a migrated storage backed by a pure-Go SQLite file in a
// temporary directory. The database is closed when the test ends.
func New(t testing.TB) *storage.Storage {
	t.Helper()

	store, err := storage.New(config.StorageConfig{
		Driver:          "sqlite",
		SQLiteDriver:    "sqlite",
		Path:            filepath.Join(t.TempDir(), "vigil.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Seed inserts a user with every channel enabled and one active monitor
// pointing at url.
func Seed(t testing.TB, store *storage.Storage, url string) (*storage.User, *storage.Monitor) {
	t.Helper()

	user := &storage.User{
		Email:           "ops@example.com",
		Name:            "Ops",
		EmailAlerts:     true,
		WhatsAppAlerts:  true,
		WhatsAppNumber:  "+15551234567",
		SlackAlerts:     true,
		SlackWebhookURL: "https://hooks.slack.com/services/T000/B000/XXX",
		TeamsAlerts:     true,
		TeamsWebhookURL: "https://example.webhook.office.com/webhookb2/abc",
	}
	if err := store.CreateUser(t.Context(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	monitor := &storage.Monitor{
		UserID:          user.ID,
		Name:            "API",
		URL:             url,
		IntervalSeconds: 60,
		IsActive:        true,
	}
	if err := store.CreateMonitor(t.Context(), monitor); err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}
	return user, monitor
}
