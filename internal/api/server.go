// Package api provides the HTTP API of the Vigil monitoring engine.
// This package implements a JSON API using the Gin framework.
//
// Example usage:
//
//	server := api.NewServer(cfg.Server, engine, store)
//	err := server.Start()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vigil/internal/config"
	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP API server.
type Server struct {
	config  config.ServerConfig
	engine  *core.Engine
	storage *storage.Storage
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP API server instance.
//
// Parameters:
//   - cfg: Server configuration containing address and timeout settings
//   - engine: Core monitoring engine instance
//   - storage: Storage instance for database operations
//
// Returns:
//   - *Server: Initialized server instance
func NewServer(cfg config.ServerConfig, engine *core.Engine, storage *storage.Storage) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:  cfg,
		engine:  engine,
		storage: storage,
		router:  gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and begins listening for requests.
// It blocks until the server is shut down.
//
// Returns:
//   - error: Any error that occurred during server startup
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
//
// Parameters:
//   - ctx: Context for shutdown timeout
//
// Returns:
//   - error: Any error that occurred during shutdown
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// setupMiddleware configures middleware for the Gin router.
func (s *Server) setupMiddleware() {
	// Request ID middleware (should be first)
	s.router.Use(RequestID())

	s.router.Use(LoggerMiddleware())

	// Custom panic recovery middleware
	s.router.Use(PanicRecovery())

	// Manual checks wait for the probe and first deliveries, so allow
	// longer than a typical probe timeout.
	s.router.Use(TimeoutMiddleware(2 * time.Minute))

	s.router.Use(SecurityHeaders())

	s.router.Use(ErrorHandler())
}
