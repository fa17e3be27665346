// Package alerts implements HTTP handlers for alert history, alert
// statistics and the per-user dashboard.
package alerts

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"vigil/internal/api/types"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	defaultDays  = 7
)

// Handler manages alert-related HTTP endpoints.
type Handler struct {
	storage *storage.Storage
}

// NewHandler creates a new alert handler instance.
func NewHandler(storage *storage.Storage) *Handler {
	return &Handler{storage: storage}
}

// List handles GET /api/v1/users/:id/alerts
//
// Query parameters:
//   - limit (default: 50, max: 500)
//
// Returns:
//   - 200 OK with alert records, newest first
//   - 404 Not Found if the user does not exist
func (h *Handler) List(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	var req types.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}
	if !h.userExists(c, id) {
		return
	}

	alerts, err := h.storage.ListAlertsByUser(c.Request.Context(), id, req.LimitOr(defaultLimit, maxLimit))
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to retrieve alerts", err))
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse(toResponses(alerts)))
}

// ListByMonitor handles GET /api/v1/monitors/:id/alerts
//
// Returns:
//   - 200 OK with the monitor's alert records, newest first
//   - 404 Not Found if the monitor does not exist
func (h *Handler) ListByMonitor(c *gin.Context) {
	id, ok := parseID(c, "monitor")
	if !ok {
		return
	}

	var req types.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}
	if _, err := h.storage.GetMonitor(c.Request.Context(), id); err != nil {
		abortLookup(c, "monitor", err)
		return
	}

	alerts, err := h.storage.ListAlertsByMonitor(c.Request.Context(), id, req.LimitOr(defaultLimit, maxLimit))
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to retrieve alerts", err))
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse(toResponses(alerts)))
}

// Stats handles GET /api/v1/users/:id/alerts/stats
//
// Query parameters:
//   - days (default: 7, max: 365)
//
// Returns:
//   - 200 OK with totals, per status and per channel counts and success rate
func (h *Handler) Stats(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	var req types.WindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}
	if !h.userExists(c, id) {
		return
	}

	days := req.DaysOr(defaultDays)
	stats, err := h.storage.GetAlertStats(c.Request.Context(), id, time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to compute alert stats", err))
		return
	}
	stats.Days = days

	c.JSON(http.StatusOK, types.SuccessResponse(stats))
}

// Dashboard handles GET /api/v1/users/:id/dashboard
//
// Returns:
//   - 200 OK with monitor counts per status and average uptime
func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}
	if !h.userExists(c, id) {
		return
	}

	stats, err := h.storage.GetDashboardStats(c.Request.Context(), id)
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to compute dashboard stats", err))
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse(stats))
}

func (h *Handler) userExists(c *gin.Context, id int64) bool {
	if _, err := h.storage.GetUser(c.Request.Context(), id); err != nil {
		abortLookup(c, "user", err)
		return false
	}
	return true
}

func abortLookup(c *gin.Context, resource string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		types.AbortWithError(c, types.NotFoundError(resource))
		return
	}
	types.AbortWithError(c, types.InternalError("failed to load "+resource, err))
}

func parseID(c *gin.Context, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		types.AbortWithError(c, types.ValidationError("invalid "+resource+" ID"))
		return 0, false
	}
	return id, true
}

func toResponses(alerts []storage.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, newAlertResponse(a))
	}
	return out
}
