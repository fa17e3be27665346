package api

import (
	"net/http"

	"vigil/internal/api/types"
	v1 "vigil/internal/api/v1"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	baseHandler := NewHandler(s.engine, s.storage)

	apiGroup := s.router.Group("/api")

	apiGroup.GET("/ping", baseHandler.Ping)
	apiGroup.GET("/health", baseHandler.Health)

	v1Group := apiGroup.Group("/v1")
	v1.SetupRoutes(v1Group, s.engine, s.storage)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse("NOT_FOUND", "Resource not found", "route not found"))
	})
}
