package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vigil/internal/checks"
	"vigil/internal/config"
	"vigil/internal/core"
	"vigil/internal/storage"
	"vigil/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

type fixture struct {
	store   *storage.Storage
	engine  *core.Engine
	server  *Server
	user    *storage.User
	monitor *storage.Monitor
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	target := httptest.NewServer(handler)
	t.Cleanup(target.Close)

	store := storagetest.New(t)
	user, monitor := storagetest.Seed(t, store, target.URL)

	checker := checks.NewHTTPChecker(config.HTTPDefaultsConfig{Method: "GET", TimeoutSeconds: 5, VerifySSL: true})
	engine := core.NewEngine(config.EngineConfig{
		TickInterval:        time.Hour,
		MaxConcurrentChecks: 4,
		DegradedThreshold:   5 * time.Second,
	}, store, checker, nil)

	return &fixture{
		store:   store,
		engine:  engine,
		server:  NewServer(config.ServerConfig{Addr: ":0"}, engine, store),
		user:    user,
		monitor: monitor,
	}
}

func (f *fixture) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("Invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestPingAndMiddleware(t *testing.T) {
	f := newFixture(t, okHandler)

	rec, _ := f.do(t, http.MethodGet, "/api/ping")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pong") {
		t.Errorf("Expected pong, got %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected security headers")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected client request id to be kept, got %q", got)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, okHandler)

	rec, _ := f.do(t, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Status     string `json:"status"`
		Components struct {
			Database struct {
				Status string `json:"status"`
			} `json:"database"`
			Engine struct {
				Status string `json:"status"`
			} `json:"engine"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Components.Database.Status != "healthy" {
		t.Errorf("Expected healthy database, got %s", body.Components.Database.Status)
	}
	// The engine is not started in this fixture.
	if body.Components.Engine.Status != "unhealthy" || body.Status != "degraded" {
		t.Errorf("Expected degraded with stopped engine, got %s / %s", body.Status, body.Components.Engine.Status)
	}
}

func TestEngineStatus(t *testing.T) {
	f := newFixture(t, okHandler)

	rec, env := f.do(t, http.MethodGet, "/api/v1/engine/status")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("Expected 200 success, got %d %s", rec.Code, rec.Body.String())
	}
	var st core.Status
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("Invalid status: %v", err)
	}
	if st.MaxConcurrentChecks != 4 || st.ActiveChecks != 0 || st.IsRunning {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestManualCheck(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	path := fmt.Sprintf("/api/v1/monitors/%d/check", f.monitor.ID)
	rec, env := f.do(t, http.MethodPost, path)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CurrentStatus string `json:"current_status"`
		Transitioned  bool   `json:"transitioned"`
		TotalChecks   int64  `json:"total_checks"`
		Result        struct {
			Success    bool   `json:"success"`
			StatusCode int    `json:"status_code"`
			ErrorKind  string `json:"error_kind"`
		} `json:"result"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("Invalid check response: %v", err)
	}
	if resp.CurrentStatus != "down" || !resp.Transitioned || resp.TotalChecks != 1 {
		t.Errorf("Unexpected check response %+v", resp)
	}
	if resp.Result.Success || resp.Result.StatusCode != 503 || resp.Result.ErrorKind != "unexpected-status" {
		t.Errorf("Unexpected result %+v", resp.Result)
	}

	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/monitors/%d/logs?limit=5", f.monitor.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for logs, got %d", rec.Code)
	}
	var logs []map[string]any
	if err := json.Unmarshal(env.Data, &logs); err != nil {
		t.Fatalf("Invalid logs: %v", err)
	}
	if len(logs) != 1 || logs[0]["status"] != "down" {
		t.Errorf("Expected one down log, got %v", logs)
	}

	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/monitors/%d/stats?days=1", f.monitor.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for stats, got %d", rec.Code)
	}
	var stats storage.MonitorStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("Invalid stats: %v", err)
	}
	if stats.Days != 1 || stats.TotalChecks != 1 || stats.DownChecks != 1 || stats.UptimePercentage != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestMonitorErrors(t *testing.T) {
	f := newFixture(t, okHandler)

	tests := []struct {
		name     string
		method   string
		path     string
		expected int
		code     string
	}{
		{"invalid id", http.MethodPost, "/api/v1/monitors/abc/check", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown monitor check", http.MethodPost, "/api/v1/monitors/999/check", http.StatusNotFound, "NOT_FOUND"},
		{"unknown monitor logs", http.MethodGet, "/api/v1/monitors/999/logs", http.StatusNotFound, "NOT_FOUND"},
		{"bad limit", http.MethodGet, fmt.Sprintf("/api/v1/monitors/%d/logs?limit=-1", f.monitor.ID), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad days", http.MethodGet, fmt.Sprintf("/api/v1/monitors/%d/stats?days=0x", f.monitor.ID), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown user", http.MethodGet, "/api/v1/users/999/alerts", http.StatusNotFound, "NOT_FOUND"},
		{"unknown route", http.MethodGet, "/api/v1/nope", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, tt.method, tt.path)
			if rec.Code != tt.expected {
				t.Fatalf("Expected %d, got %d %s", tt.expected, rec.Code, rec.Body.String())
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("Expected error code %s, got %s", tt.code, rec.Body.String())
			}
		})
	}
}

func TestAlertEndpoints(t *testing.T) {
	f := newFixture(t, okHandler)
	ctx := t.Context()

	now := time.Now().UTC()
	for _, a := range []*storage.Alert{
		{Channel: storage.ChannelSlack, Recipient: f.user.SlackWebhookURL, Status: storage.AlertStatusSent, SentAt: &now},
		{Channel: storage.ChannelEmail, Recipient: f.user.Email, Status: storage.AlertStatusFailed, FailedAt: &now},
	} {
		a.MonitorID = f.monitor.ID
		a.UserID = f.user.ID
		a.MonitorName = f.monitor.Name
		a.MonitorURL = f.monitor.URL
		a.Kind = storage.AlertKindDowntime
		a.Message = "down"
		a.TriggeredAt = now
		if err := f.store.CreateAlert(ctx, a); err != nil {
			t.Fatalf("CreateAlert: %v", err)
		}
	}

	rec, env := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/alerts", f.user.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var alerts []map[string]any
	if err := json.Unmarshal(env.Data, &alerts); err != nil {
		t.Fatalf("Invalid alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}
	for _, a := range alerts {
		if a["channel"] == "slack" && strings.Contains(a["recipient"].(string), "XXX") {
			t.Errorf("Expected slack webhook to be masked, got %v", a["recipient"])
		}
	}

	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/monitors/%d/alerts?limit=1", f.monitor.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &alerts); err != nil || len(alerts) != 1 {
		t.Errorf("Expected 1 alert with limit=1, got %d (%v)", len(alerts), err)
	}

	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/alerts/stats", f.user.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var stats storage.AlertStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("Invalid stats: %v", err)
	}
	if stats.Days != 7 || stats.Total != 2 || stats.Sent != 1 || stats.Failed != 1 || stats.SuccessRate != 50 {
		t.Errorf("Unexpected alert stats %+v", stats)
	}

	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/dashboard", f.user.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var dash storage.DashboardStats
	if err := json.Unmarshal(env.Data, &dash); err != nil {
		t.Fatalf("Invalid dashboard: %v", err)
	}
	if dash.TotalMonitors != 1 || dash.ActiveMonitors != 1 || dash.UpMonitors != 1 {
		t.Errorf("Unexpected dashboard %+v", dash)
	}
}
