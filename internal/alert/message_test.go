package alert

import (
	"strings"
	"testing"
	"time"

	"vigil/internal/checks"
	"vigil/internal/storage"
)

func TestKindFor(t *testing.T) {
	tests := []struct {
		name         string
		prev, cur    storage.Status
		transitioned bool
		want         storage.AlertKind
		ok           bool
	}{
		{"up to down", storage.StatusUp, storage.StatusDown, true, storage.AlertKindDowntime, true},
		{"degraded to down", storage.StatusDegraded, storage.StatusDown, true, storage.AlertKindDowntime, true},
		{"still down", storage.StatusDown, storage.StatusDown, false, "", false},
		{"down to up", storage.StatusDown, storage.StatusUp, true, storage.AlertKindRecovery, true},
		{"degraded to up", storage.StatusDegraded, storage.StatusUp, true, "", false},
		{"still up", storage.StatusUp, storage.StatusUp, false, "", false},
		{"up to degraded", storage.StatusUp, storage.StatusDegraded, true, storage.AlertKindDegraded, true},
		{"still degraded", storage.StatusDegraded, storage.StatusDegraded, false, storage.AlertKindDegraded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindFor(tt.prev, tt.cur, tt.transitioned)
			if got != tt.want || ok != tt.ok {
				t.Errorf("KindFor = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRenderMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := &storage.Monitor{Name: "API", URL: "https://api.example.com"}
	code := 503

	t.Run("Downtime includes error and status code", func(t *testing.T) {
		r := &checks.Result{ResponseTimeMs: 87, StatusCode: &code, Error: "HTTP 503: Service Unavailable"}
		msg := RenderMessage(storage.AlertKindDowntime, m, r, at)
		for _, want := range []string{
			"🚨 ALERT: API is DOWN!", "URL: https://api.example.com", "Response Time: 87ms",
			"Status Code: 503", "Error: HTTP 503: Service Unavailable", "Time: 2026-03-01T12:00:00Z",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("Expected %q in message:\n%s", want, msg)
			}
		}
	})

	t.Run("Downtime without error text", func(t *testing.T) {
		msg := RenderMessage(storage.AlertKindDowntime, m, &checks.Result{}, at)
		if !strings.Contains(msg, "Error: Unknown error") {
			t.Errorf("Expected fallback error text:\n%s", msg)
		}
	})

	t.Run("Degraded marks slow response", func(t *testing.T) {
		msg := RenderMessage(storage.AlertKindDegraded, m, &checks.Result{ResponseTimeMs: 6200}, at)
		if !strings.Contains(msg, "DEGRADED") || !strings.Contains(msg, "6200ms (slow response)") {
			t.Errorf("Unexpected degraded message:\n%s", msg)
		}
		if strings.Contains(msg, "Error:") {
			t.Errorf("Degraded message should not carry an error line:\n%s", msg)
		}
	})

	t.Run("Recovery", func(t *testing.T) {
		msg := RenderMessage(storage.AlertKindRecovery, m, &checks.Result{ResponseTimeMs: 40}, at)
		if !strings.HasPrefix(msg, "✅ RECOVERY: API is back UP!") {
			t.Errorf("Unexpected recovery message:\n%s", msg)
		}
	})
}

func TestSubject(t *testing.T) {
	a := &storage.Alert{MonitorName: "API", Kind: storage.AlertKindDowntime}
	if got := Subject("Vigil Monitor", a); got != "Vigil Monitor Alert: API - DOWNTIME" {
		t.Errorf("Unexpected subject %q", got)
	}
}
