package checks

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrorKind classifies why a check failed.
type ErrorKind string

const (
	ErrorNone             ErrorKind = "none"
	ErrorTimeout          ErrorKind = "timeout"
	ErrorNetwork          ErrorKind = "network"
	ErrorUnexpectedStatus ErrorKind = "unexpected-status"
	ErrorAssertionFailed  ErrorKind = "assertion-failed"
	// ErrorInternal marks a check that panicked inside the engine.
	ErrorInternal ErrorKind = "internal"
)

// Result is the outcome of a single probe. It is never persisted directly.
type Result struct {
	Success        bool
	StatusCode     *int
	ResponseTimeMs int64
	ErrorKind      ErrorKind
	Error          string
	CheckedAt      time.Time
}

// Failed builds a failed result.
func Failed(kind ErrorKind, msg string, responseTime time.Duration, statusCode *int) *Result {
	return &Result{
		Success:        false,
		StatusCode:     statusCode,
		ResponseTimeMs: responseTime.Milliseconds(),
		ErrorKind:      kind,
		Error:          msg,
		CheckedAt:      time.Now().UTC(),
	}
}

// Succeeded builds a successful result.
func Succeeded(responseTime time.Duration, statusCode int) *Result {
	return &Result{
		Success:        true,
		StatusCode:     &statusCode,
		ResponseTimeMs: responseTime.Milliseconds(),
		ErrorKind:      ErrorNone,
		CheckedAt:      time.Now().UTC(),
	}
}

// classify maps a transport error onto timeout or network.
func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	return ErrorNetwork
}
