// Package api provides public endpoints for system health and connectivity.
//
// These endpoints are designed to be lightweight and fast for external
// monitoring systems such as load balancers and orchestrators.
package api

import (
	"context"
	"net/http"
	"time"

	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler manages public endpoints.
type Handler struct {
	engine    *core.Engine
	storage   *storage.Storage
	startTime time.Time
}

// NewHandler initializes a new public API handler.
//
// Parameters:
//   - engine: Core monitoring engine (maybe nil in test environments)
//   - storage: Database storage layer (maybe nil in test environments)
//
// Returns a fully initialized handler ready for HTTP routing.
func NewHandler(engine *core.Engine, storage *storage.Storage) *Handler {
	return &Handler{
		engine:    engine,
		storage:   storage,
		startTime: time.Now(),
	}
}

// Ping handles GET /ping
//
// Response:
//   - 200 OK with {"message": "pong"}
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Health handles GET /health
//
// Reports database connectivity and engine state. Overall status is
// "healthy" only if both components are healthy; otherwise "degraded".
//
// Response:
//   - 200 OK with detailed health report
//   - All fields are always present (never null)
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus, dbResponseTime := h.checkDatabaseHealth(ctx)
	engineStatus, status := h.checkEngineHealth()

	overallStatus := "healthy"
	if dbStatus != "healthy" || engineStatus != "healthy" {
		overallStatus = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
		"components": gin.H{
			"database": gin.H{
				"status":           dbStatus,
				"response_time_ms": dbResponseTime,
			},
			"engine": gin.H{
				"status":                engineStatus,
				"active_checks":         status.ActiveChecks,
				"max_concurrent_checks": status.MaxConcurrentChecks,
			},
		},
	})
}

// checkDatabaseHealth pings the underlying SQL database and measures the
// round trip.
func (h *Handler) checkDatabaseHealth(ctx context.Context) (string, int64) {
	if h.storage == nil {
		return "unhealthy", 0
	}

	start := time.Now()
	sqlDB, err := h.storage.DB().DB()
	if err != nil {
		return "unhealthy", time.Since(start).Milliseconds()
	}

	err = sqlDB.PingContext(ctx)
	responseTime := time.Since(start).Milliseconds()
	if err != nil {
		return "unhealthy", responseTime
	}

	return "healthy", responseTime
}

func (h *Handler) checkEngineHealth() (string, core.Status) {
	if h.engine == nil {
		return "unhealthy", core.Status{}
	}

	status := h.engine.Status()
	if !status.IsRunning {
		return "unhealthy", status
	}
	return "healthy", status
}
