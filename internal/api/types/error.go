package types

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents error information in API responses
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorWithContext carries an API error together with its HTTP status and
// the underlying cause, which is logged but never sent to the client.
type ErrorWithContext struct {
	Status int
	Body   Error
	Cause  error
}

func (e *ErrorWithContext) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Body.Code, e.Body.Details, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Body.Code, e.Body.Details)
}

func (e *ErrorWithContext) Unwrap() error { return e.Cause }

// ErrorResponse creates an error API response
func ErrorResponse(code, message, details string) Response {
	return Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func newError(status int, code, message, details string, cause error) *ErrorWithContext {
	return &ErrorWithContext{
		Status: status,
		Body:   Error{Code: code, Message: message, Details: details},
		Cause:  cause,
	}
}

// ValidationError reports invalid input data.
func ValidationError(details string) *ErrorWithContext {
	return newError(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input data", details, nil)
}

// NotFoundError reports a missing resource.
func NotFoundError(resource string) *ErrorWithContext {
	return newError(http.StatusNotFound, "NOT_FOUND", "Resource not found", resource+" not found", nil)
}

// ConflictError reports a request that conflicts with current state.
func ConflictError(details string) *ErrorWithContext {
	return newError(http.StatusConflict, "CONFLICT", "Resource conflict", details, nil)
}

// InternalError reports a server-side failure.
func InternalError(details string, cause error) *ErrorWithContext {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", details, cause)
}

// TimeoutError reports a request that ran out of time.
func TimeoutError(details string) *ErrorWithContext {
	return newError(http.StatusGatewayTimeout, "TIMEOUT", "Request timeout", details, nil)
}

// AbortWithError records err on the context for logging and writes the
// error envelope.
func AbortWithError(c *gin.Context, err *ErrorWithContext) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(err.Status, Response{Success: false, Error: &err.Body})
}
