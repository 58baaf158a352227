// Package dashboard serves the local analytics API and chart pages.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rdelaney/powerplay/internal/storage"
	"github.com/rdelaney/powerplay/internal/strategy"
)

// Server is the local dashboard HTTP server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int

	repo   storage.DrawRepository
	engine *strategy.Engine
	logger *slog.Logger

	// Analysis defaults, overridable per request through query parameters.
	decayBase float64
	trendTopN int
	trendWin  int
}

// Config holds configuration for the dashboard server.
type Config struct {
	Port      int
	DecayBase float64 // Default recency weighting base
	TrendTopN int     // Balls shown on the trend chart
	TrendWin  int     // Rolling window for trends, in draws
	Logger    *slog.Logger
}

// DefaultConfig returns the default dashboard configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:      8090,
		DecayBase: 0.995,
		TrendTopN: 5,
		TrendWin:  50,
	}
}

// NewServer creates a dashboard server over the given repository and
// strategy engine.
func NewServer(cfg *Config, repo storage.DrawRepository, engine *strategy.Engine) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:    chi.NewRouter(),
		port:      cfg.Port,
		repo:      repo,
		engine:    engine,
		logger:    logger,
		decayBase: cfg.DecayBase,
		trendTopN: cfg.TrendTopN,
		trendWin:  cfg.TrendWin,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// The dashboard only ever serves localhost.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// Start starts the dashboard server in a goroutine.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info("dashboard starting", "port", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("dashboard server error", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the dashboard server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down dashboard")
	return s.httpServer.Shutdown(ctx)
}
