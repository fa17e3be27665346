package checks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vigil/internal/config"
	"vigil/internal/storage"
)

func testDefaults() config.HTTPDefaultsConfig {
	return config.HTTPDefaultsConfig{
		Method:              "GET",
		TimeoutSeconds:      5,
		ExpectedStatusCodes: []int{200, 201, 202, 204},
		FollowRedirects:     true,
		VerifySSL:           true,
		UserAgent:           "Vigil-Test/1.0",
		MaxBodyBytes:        1 << 16,
	}
}

func TestHTTPCheckerCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/unavailable", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"status":"ok","items":[{"id":7}]},"healthy":true}`)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	checker := NewHTTPChecker(testDefaults())

	tests := []struct {
		name        string
		monitor     storage.Monitor
		wantSuccess bool
		wantKind    ErrorKind
		wantCode    int
		wantError   string
	}{
		{
			name:        "200 accepted by default codes",
			monitor:     storage.Monitor{URL: server.URL + "/ok"},
			wantSuccess: true,
			wantKind:    ErrorNone,
			wantCode:    200,
		},
		{
			name:      "503 rejected",
			monitor:   storage.Monitor{URL: server.URL + "/unavailable", ExpectedStatusCodes: []int{200}},
			wantKind:  ErrorUnexpectedStatus,
			wantCode:  503,
			wantError: "HTTP 503: Service Unavailable",
		},
		{
			name:        "custom accepted code",
			monitor:     storage.Monitor{URL: server.URL + "/unavailable", ExpectedStatusCodes: []int{503}},
			wantSuccess: true,
			wantKind:    ErrorNone,
			wantCode:    503,
		},
		{
			name:        "json assertion holds",
			monitor:     storage.Monitor{URL: server.URL + "/json", JSONAssertKey: "data.status", JSONAssertValue: `"ok"`},
			wantSuccess: true,
			wantKind:    ErrorNone,
			wantCode:    200,
		},
		{
			name:        "json assertion indexes arrays",
			monitor:     storage.Monitor{URL: server.URL + "/json", JSONAssertKey: "data.items.0.id", JSONAssertValue: `7`},
			wantSuccess: true,
			wantKind:    ErrorNone,
			wantCode:    200,
		},
		{
			name:      "json assertion mismatch",
			monitor:   storage.Monitor{URL: server.URL + "/json", JSONAssertKey: "healthy", JSONAssertValue: `false`},
			wantKind:  ErrorAssertionFailed,
			wantCode:  200,
			wantError: `JSON key "healthy" is true, expected false`,
		},
		{
			name:      "json assertion on non json body",
			monitor:   storage.Monitor{URL: server.URL + "/ok", JSONAssertKey: "status", JSONAssertValue: `"ok"`},
			wantKind:  ErrorAssertionFailed,
			wantCode:  200,
			wantError: "not valid JSON",
		},
		{
			name:        "redirect followed",
			monitor:     storage.Monitor{URL: server.URL + "/redirect"},
			wantSuccess: true,
			wantKind:    ErrorNone,
			wantCode:    200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checker.Check(context.Background(), &tt.monitor)

			if result.Success != tt.wantSuccess {
				t.Errorf("Expected success=%v, got %v (%s)", tt.wantSuccess, result.Success, result.Error)
			}
			if result.ErrorKind != tt.wantKind {
				t.Errorf("Expected kind %q, got %q", tt.wantKind, result.ErrorKind)
			}
			if result.StatusCode == nil || *result.StatusCode != tt.wantCode {
				t.Errorf("Expected status code %d, got %v", tt.wantCode, result.StatusCode)
			}
			if !strings.Contains(result.Error, tt.wantError) {
				t.Errorf("Expected error containing %q, got %q", tt.wantError, result.Error)
			}
			if result.CheckedAt.IsZero() {
				t.Error("Expected CheckedAt to be set")
			}
		})
	}
}

func TestHTTPCheckerRequest(t *testing.T) {
	type seen struct {
		method, body, agent, token, contentType string
	}
	got := make(chan seen, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- seen{r.Method, string(b), r.UserAgent(), r.Header.Get("X-Token"), r.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	checker := NewHTTPChecker(testDefaults())

	t.Run("POST attaches body and headers", func(t *testing.T) {
		m := &storage.Monitor{
			URL: server.URL, Method: "post", Body: `{"ping":1}`,
			Headers: map[string]string{"X-Token": "secret"},
		}
		result := checker.Check(context.Background(), m)
		if !result.Success {
			t.Fatalf("Expected success, got %s", result.Error)
		}
		s := <-got
		if s.method != http.MethodPost || s.body != `{"ping":1}` {
			t.Errorf("Unexpected request %+v", s)
		}
		if s.token != "secret" || s.agent != "Vigil-Test/1.0" || s.contentType != "application/json" {
			t.Errorf("Unexpected headers %+v", s)
		}
	})

	t.Run("GET never carries a body", func(t *testing.T) {
		m := &storage.Monitor{URL: server.URL, Body: `{"ping":1}`}
		checker.Check(context.Background(), m)
		s := <-got
		if s.method != http.MethodGet || s.body != "" {
			t.Errorf("Expected bare GET, got %+v", s)
		}
	})

	t.Run("Monitor user agent wins", func(t *testing.T) {
		m := &storage.Monitor{URL: server.URL, Headers: map[string]string{"User-Agent": "custom"}}
		checker.Check(context.Background(), m)
		if s := <-got; s.agent != "custom" {
			t.Errorf("Expected custom agent, got %q", s.agent)
		}
	})
}

func TestHTTPCheckerFailures(t *testing.T) {
	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(3 * time.Second):
			}
		}))
		defer server.Close()

		checker := NewHTTPChecker(testDefaults())
		result := checker.Check(context.Background(), &storage.Monitor{URL: server.URL, TimeoutSeconds: 1})

		if result.Success || result.ErrorKind != ErrorTimeout {
			t.Fatalf("Expected timeout, got %+v", result)
		}
		if !strings.Contains(result.Error, "timeout") {
			t.Errorf("Expected timeout in error text, got %q", result.Error)
		}
		if result.StatusCode != nil {
			t.Errorf("Expected no status code, got %d", *result.StatusCode)
		}
	})

	t.Run("Network error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		checker := NewHTTPChecker(testDefaults())
		result := checker.Check(context.Background(), &storage.Monitor{URL: url})
		if result.Success || result.ErrorKind != ErrorNetwork {
			t.Fatalf("Expected network error, got %+v", result)
		}
		if result.Error == "" {
			t.Error("Expected error text")
		}
	})

	t.Run("Redirect not followed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/elsewhere", http.StatusMovedPermanently)
		}))
		defer server.Close()

		defaults := testDefaults()
		defaults.FollowRedirects = false
		result := NewHTTPChecker(defaults).Check(context.Background(), &storage.Monitor{URL: server.URL})
		if result.ErrorKind != ErrorUnexpectedStatus || *result.StatusCode != http.StatusMovedPermanently {
			t.Errorf("Expected 301 rejection, got %+v", result)
		}
	})
}

func TestAssertJSON(t *testing.T) {
	body := []byte(`{"a":{"b":[1,{"c":null}]},"n":1.5,"s":"x"}`)
	tests := []struct {
		key, want string
		ok        bool
	}{
		{"n", "1.5", true},
		{"s", `"x"`, true},
		{"a.b.0", "1", true},
		{"a.b.1.c", "null", true},
		{"a.b", "[1,{\"c\":null}]", true},
		{"a.b.5", "1", false},
		{"missing", "1", false},
		{"s", `"y"`, false},
		{"s", `bare`, false},
	}
	for _, tt := range tests {
		err := AssertJSON(body, tt.key, tt.want)
		if (err == nil) != tt.ok {
			t.Errorf("AssertJSON(%q, %s) error = %v, want ok=%v", tt.key, tt.want, err, tt.ok)
		}
	}
}
