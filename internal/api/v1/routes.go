package v1

import (
	"vigil/internal/api/v1/alerts"
	"vigil/internal/api/v1/monitors"
	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures API routes.
func SetupRoutes(routerGroup *gin.RouterGroup, engine *core.Engine, storage *storage.Storage) {
	monitorsHandler := monitors.NewHandler(storage, engine)
	alertsHandler := alerts.NewHandler(storage)

	routerGroup.GET("/engine/status", monitorsHandler.EngineStatus)

	monitorsGroup := routerGroup.Group("/monitors")
	{
		monitorsGroup.POST("/:id/check", monitorsHandler.Check)
		monitorsGroup.GET("/:id/logs", monitorsHandler.Logs)
		monitorsGroup.GET("/:id/stats", monitorsHandler.Stats)
		monitorsGroup.GET("/:id/alerts", alertsHandler.ListByMonitor)
	}

	usersGroup := routerGroup.Group("/users")
	{
		usersGroup.GET("/:id/alerts", alertsHandler.List)
		usersGroup.GET("/:id/alerts/stats", alertsHandler.Stats)
		usersGroup.GET("/:id/dashboard", alertsHandler.Dashboard)
	}
}
