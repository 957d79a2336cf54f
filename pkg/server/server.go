// Copyright 2025 Certen Protocol
//
// REST surface (thin wrapper; not core, spec §6) over the audit engine.
// Grounded on the teacher's handler-per-concern file layout
// (proof_handlers.go, bulk_handlers.go) and evalgo-org-eve's
// http/server.go Echo-assembly pattern, which this package follows for
// middleware wiring instead of the teacher's raw net/http ServeMux.

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/certen/aig/pkg/audit"
	"github.com/certen/aig/pkg/changeset"
	"github.com/certen/aig/pkg/vertex"
)

// Config configures the REST surface.
type Config struct {
	BasePath       string // e.g. "/vertices"
	AllowedOrigins []string
	RateLimitPerMin int
	MaxExportRows  int
}

func DefaultConfig() Config {
	return Config{
		BasePath:        "/vertices",
		AllowedOrigins:  []string{"*"},
		RateLimitPerMin: 120,
		MaxExportRows:   50000,
	}
}

// Server wires the audit engine and vertex store to an Echo instance.
type Server struct {
	echo       *echo.Echo
	engine     *audit.Engine
	vertices   vertex.Store
	changesets changeset.Store
	cfg        Config
	logger     hclog.Logger
	limiter    Limiter

	exports *exportRegistry
}

// New constructs a Server. limiter may be nil, in which case rate
// limiting is skipped (suitable for tests and local development).
func New(engine *audit.Engine, vertices vertex.Store, changesets changeset.Store, cfg Config, limiter Limiter, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("server")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${time_rfc3339}] ${status} ${method} ${uri} (${latency_human})\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
	}))

	s := &Server{
		echo:       e,
		engine:     engine,
		vertices:   vertices,
		changesets: changesets,
		cfg:        cfg,
		logger:     logger,
		limiter:    limiter,
		exports:    newExportRegistry(),
	}

	if limiter != nil {
		e.Use(s.rateLimitMiddleware)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/stats", s.handleStats)

	g := s.echo.Group(s.cfg.BasePath)
	g.POST("", s.handleCreate)
	g.GET("", s.handleList)
	g.GET("/:id", s.handleGet)
	g.PUT("/:id", s.handleUpdate)
	g.DELETE("/:id/verifiable", s.handleRemoveVerifiable)

	exp := s.echo.Group(s.cfg.BasePath + "/export")
	exp.POST("", s.handleExportCreate)
	exp.GET("/:jobId", s.handleExportStatus)
	exp.GET("/:jobId/download", s.handleExportDownload)
}

func (s *Server) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.RealIP()
		if id := c.Request().Header.Get("X-User-Identity"); id != "" {
			key = id
		}
		allowed, err := s.limiter.Allow(c.Request().Context(), key)
		if err != nil {
			s.logger.Warn("rate limiter backend error, allowing request", "error", err)
			return next(c)
		}
		if !allowed {
			return c.JSON(http.StatusTooManyRequests, errorBody("rate limit exceeded"))
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully, mirroring the teacher's signal-driven graceful shutdown in
// main.go.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
