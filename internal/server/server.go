// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/planforge/internal/logging"
	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/project"
	"github.com/jeranaias/planforge/internal/storage"
)

// ============================================================================
// CONFIG
// ============================================================================

// Config holds the server settings. Zero values fall back to defaults.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	// Reported by /health.
	Version  string
	Provider string
	Model    string
}

// DefaultAddr is used when Config.Addr is empty.
const DefaultAddr = "0.0.0.0:8000"

// Store is the persistence the handlers need. *storage.Repository
// satisfies it.
type Store interface {
	Create(ctx context.Context, req *project.Request) (*storage.Project, error)
	SaveResults(ctx context.Context, id string, st *pipeline.State) error
	Get(ctx context.Context, id string) (*storage.Project, error)
	List(ctx context.Context) ([]storage.Summary, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server serves the project API.
type Server struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	store    Store
	logger   *slog.Logger

	mux     *http.ServeMux
	limiter *RateLimiter
	handler http.Handler

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New builds a Server around pipe and store.
func New(cfg Config, pipe *pipeline.Pipeline, store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{
		cfg:      cfg,
		pipeline: pipe,
		store:    store,
		logger:   logger.With("component", "server"),
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()

	cors := DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.AllowedOrigins
	}

	middlewares := []Middleware{
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		CORSMiddleware(cors),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter, s.logger))
	}
	middlewares = append(middlewares, BodyLimitMiddleware(MaxRequestBodySize))

	s.handler = Chain(middlewares...)(s.mux)
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /projects", s.handleListProjects)
	s.mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	s.mux.HandleFunc("GET /projects/{id}/report", s.handleReport)
	s.mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	// Write timeout must cover a full pipeline run.
	writeTimeout := s.cfg.RequestTimeout + 30*time.Second
	if s.cfg.RequestTimeout <= 0 {
		writeTimeout = 0
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("server listening", "addr", ln.Addr().String(), "version", s.cfg.Version, "pipeline_policy", s.pipeline.Policy().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Close()
	}

	s.mu.Lock()
	srv := s.server
	s.closed = true
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: message, Code: status}})
}
