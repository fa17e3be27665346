// Package checks executes HTTP probes against monitors and classifies the outcome.
package checks

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"vigil/internal/config"
	"vigil/internal/storage"
)

// Checker runs a single probe against a monitor. Failures are reported in
// the Result, never as an error.
type Checker interface {
	Check(ctx context.Context, m *storage.Monitor) *Result
}

// HTTPChecker implements HTTP/HTTPS monitoring checks.
type HTTPChecker struct {
	client   *http.Client
	defaults config.HTTPDefaultsConfig
}

// NewHTTPChecker creates a new HTTP checker instance.
//
// Parameters:
//   - defaults: Method, timeout and accepted status codes used when a
//     monitor leaves them unset, plus client-wide redirect and TLS policy
//
// Returns:
//   - *HTTPChecker: Initialized HTTP checker
func NewHTTPChecker(defaults config.HTTPDefaultsConfig) *HTTPChecker {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !defaults.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if defaults.MaxBodyBytes <= 0 {
		defaults.MaxBodyBytes = 1 << 20
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !defaults.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPChecker{client: client, defaults: defaults}
}

// settings are the probe parameters after defaults are applied.
type settings struct {
	method   string
	timeout  time.Duration
	accepted []int
}

func (h *HTTPChecker) resolve(m *storage.Monitor) settings {
	s := settings{
		method:   strings.ToUpper(m.Method),
		timeout:  time.Duration(m.TimeoutSeconds) * time.Second,
		accepted: m.ExpectedStatusCodes,
	}
	if s.method == "" {
		s.method = h.defaults.Method
	}
	if s.method == "" {
		s.method = http.MethodGet
	}
	if s.timeout <= 0 {
		s.timeout = time.Duration(h.defaults.TimeoutSeconds) * time.Second
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if len(s.accepted) == 0 {
		s.accepted = h.defaults.ExpectedStatusCodes
	}
	if len(s.accepted) == 0 {
		s.accepted = []int{http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent}
	}
	return s
}

// Check executes an HTTP/HTTPS probe for the monitor.
//
// The response time covers the request and reading the response body.
// A response is accepted when its status code is one of the accepted codes
// and, when configured, the JSON assertion holds.
//
// Parameters:
//   - ctx: Context for cancellation
//   - m: Monitor describing the request and acceptance criteria
//
// Returns:
//   - *Result: Classified outcome of the probe
func (h *HTTPChecker) Check(ctx context.Context, m *storage.Monitor) *Result {
	s := h.resolve(m)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()

	req, err := h.createRequest(ctx, m, s.method)
	if err != nil {
		return Failed(ErrorNetwork, fmt.Sprintf("invalid request: %v", err), time.Since(start), nil)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return h.transportFailure(err, s.timeout, time.Since(start), nil)
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	body, err := io.ReadAll(io.LimitReader(resp.Body, h.defaults.MaxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		return h.transportFailure(err, s.timeout, elapsed, &code)
	}

	if !slices.Contains(s.accepted, code) {
		msg := fmt.Sprintf("HTTP %d: %s", code, http.StatusText(code))
		return Failed(ErrorUnexpectedStatus, msg, elapsed, &code)
	}

	if m.JSONAssertKey != "" {
		if err := AssertJSON(body, m.JSONAssertKey, m.JSONAssertValue); err != nil {
			return Failed(ErrorAssertionFailed, err.Error(), elapsed, &code)
		}
	}

	return Succeeded(elapsed, code)
}

func (h *HTTPChecker) transportFailure(err error, timeout, elapsed time.Duration, code *int) *Result {
	kind := classify(err)
	if kind == ErrorTimeout {
		return Failed(kind, fmt.Sprintf("timeout after %s", timeout), elapsed, code)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return Failed(kind, fmt.Sprintf("request failed: %v", err), elapsed, code)
}

// createRequest builds the probe request. A body is attached only for
// POST, PUT and PATCH.
func (h *HTTPChecker) createRequest(ctx context.Context, m *storage.Monitor, method string) (*http.Request, error) {
	var body io.Reader
	hasBody := m.Body != "" && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch)
	if hasBody {
		body = strings.NewReader(m.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.URL, body)
	if err != nil {
		return nil, err
	}

	for key, value := range m.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" && h.defaults.UserAgent != "" {
		req.Header.Set("User-Agent", h.defaults.UserAgent)
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
