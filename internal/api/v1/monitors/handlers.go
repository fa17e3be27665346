// Package monitors implements HTTP handlers for monitor operations exposed by
// the engine: manual checks, check logs and per-monitor statistics.
package monitors

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"vigil/internal/api/types"
	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
	defaultDays     = 7
)

// Handler manages monitor-related HTTP endpoints.
type Handler struct {
	storage *storage.Storage
	engine  *core.Engine
}

// NewHandler creates a new monitor handler instance.
func NewHandler(storage *storage.Storage, engine *core.Engine) *Handler {
	return &Handler{
		storage: storage,
		engine:  engine,
	}
}

// EngineStatus handles GET /api/v1/engine/status
//
// Returns:
//   - 200 OK with active checks, capacity and running state
func (h *Handler) EngineStatus(c *gin.Context) {
	c.JSON(http.StatusOK, types.SuccessResponse(h.engine.Status()))
}

// Check handles POST /api/v1/monitors/:id/check
//
// Runs a check right away and waits for it to be recorded, including the
// first delivery attempt of any alerts it raises.
//
// Returns:
//   - 200 OK with the resulting status, transition and probe result
//   - 400 Bad Request for an invalid monitor ID
//   - 404 Not Found if the monitor does not exist
//   - 409 Conflict if a check for the monitor is already running
//   - 500 Internal Server Error on storage failure
func (h *Handler) Check(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.engine.TriggerCheck(c.Request.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		types.AbortWithError(c, types.NotFoundError("monitor"))
		return
	case errors.Is(err, core.ErrCheckInProgress):
		types.AbortWithError(c, types.ConflictError("a check for this monitor is already in progress"))
		return
	case err != nil:
		types.AbortWithError(c, types.InternalError("failed to run check", err))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(newCheckResponse(report)))
}

// Logs handles GET /api/v1/monitors/:id/logs
//
// Query parameters:
//   - limit (default: 100, max: 1000)
//
// Returns:
//   - 200 OK with check log entries, newest first
//   - 404 Not Found if the monitor does not exist
func (h *Handler) Logs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	if !h.monitorExists(c, id) {
		return
	}

	logs, err := h.storage.ListCheckLogs(c.Request.Context(), id, req.LimitOr(defaultLogLimit, maxLogLimit))
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to retrieve check logs", err))
		return
	}

	responses := make([]CheckLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, newCheckLogResponse(l))
	}
	c.JSON(http.StatusOK, types.SuccessResponse(responses))
}

// Stats handles GET /api/v1/monitors/:id/stats
//
// Query parameters:
//   - days (default: 7, max: 365)
//
// Returns:
//   - 200 OK with check counts per status, average response time and
//     window uptime
//   - 404 Not Found if the monitor does not exist
func (h *Handler) Stats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req types.WindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	if !h.monitorExists(c, id) {
		return
	}

	days := req.DaysOr(defaultDays)
	since := time.Now().UTC().AddDate(0, 0, -days)
	stats, err := h.storage.GetMonitorStats(c.Request.Context(), id, since)
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to compute monitor stats", err))
		return
	}
	stats.Days = days

	c.JSON(http.StatusOK, types.SuccessResponse(stats))
}

func (h *Handler) monitorExists(c *gin.Context, id int64) bool {
	if _, err := h.storage.GetMonitor(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			types.AbortWithError(c, types.NotFoundError("monitor"))
		} else {
			types.AbortWithError(c, types.InternalError("failed to load monitor", err))
		}
		return false
	}
	return true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		types.AbortWithError(c, types.ValidationError("invalid monitor ID"))
		return 0, false
	}
	return id, true
}
