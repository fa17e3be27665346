// Package server provides the main server orchestration for the Vigil monitoring system.
//
// This package coordinates the startup and shutdown of all core components:
//   - Storage initialization
//   - Alert dispatcher and channels
//   - Monitoring engine startup
//   - HTTP API server management
//   - Graceful shutdown handling
//
// The server follows a structured lifecycle:
//  1. Storage initialization
//  2. Alert dispatcher startup
//  3. Core engine startup
//  4. HTTP API server launch
//  5. Graceful shutdown in reverse order
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vigil/internal/alert"
	"vigil/internal/api"
	"vigil/internal/checks"
	"vigil/internal/config"
	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/rs/zerolog/log"
)

// shutdownTimeout bounds the HTTP server drain.
const shutdownTimeout = 30 * time.Second

// Server represents the main Vigil server orchestrator.
type Server struct {
	cfg *config.Config

	storage    *storage.Storage
	dispatcher *alert.Dispatcher
	engine     *core.Engine
	api        *api.Server
}

// New creates a new server instance with the provided configuration.
//
// The server is not started until Start() is called.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start initializes and starts all server components in order.
//
// This method blocks until:
//   - A fatal error occurs during startup
//   - The provided context is cancelled (shutdown signal)
//   - The HTTP server encounters an unrecoverable error
//
// Returns an error if any component fails to start.
func (s *Server) Start(ctx context.Context) error {
	if err := s.build(); err != nil {
		return err
	}
	defer s.closeStorage()

	s.dispatcher.Start()
	defer s.dispatcher.Stop()

	if err := s.engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer s.engine.Stop()

	// Buffered so the goroutine never leaks when nobody reads.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- s.api.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting requests first; the deferred calls then stop the
	// engine, the dispatcher and finally storage.
	if err := s.api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}

// build wires storage, channels, dispatcher, engine and API.
func (s *Server) build() error {
	store, err := storage.New(s.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.storage = store

	channels, err := newChannels(s.cfg.Alert)
	if err != nil {
		s.closeStorage()
		return err
	}
	s.dispatcher = alert.NewDispatcher(s.cfg.Alert, store, alert.SystemClock(), channels...)

	checker := checks.NewHTTPChecker(s.cfg.Checks.HTTP)
	s.engine = core.NewEngine(s.cfg.Engine, store, checker, s.dispatcher)
	s.api = api.NewServer(s.cfg.Server, s.engine, store)
	return nil
}

func newChannels(cfg config.AlertConfig) ([]alert.Channel, error) {
	client := &http.Client{Timeout: cfg.DeliveryTimeout}

	email, err := alert.NewEmailChannel(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email channel: %w", err)
	}
	if cfg.Email.APIKey == "" {
		log.Warn().Msg("SendGrid API key not set, email alerts will fail")
	}
	if cfg.WhatsApp.AccessToken == "" || cfg.WhatsApp.PhoneNumberID == "" {
		log.Warn().Msg("WhatsApp credentials not set, WhatsApp alerts will fail")
	}

	return []alert.Channel{
		email,
		alert.NewSlackChannel(cfg.Slack, client),
		alert.NewTeamsChannel(cfg.Teams, client),
		alert.NewWhatsAppChannel(cfg.WhatsApp, client),
	}, nil
}

func (s *Server) closeStorage() {
	if s.storage == nil {
		return
	}
	if err := s.storage.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close storage")
	}
}
