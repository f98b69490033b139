// Package http provides the HTTP API for promptgate.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptgate/internal/gateway"
	"github.com/fyrsmithlabs/promptgate/internal/knowledge"
)

// Server exposes the gateway and knowledge base over HTTP.
type Server struct {
	echo    *echo.Echo
	gateway *gateway.Gateway
	store   *knowledge.Store
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(gw *gateway.Gateway, store *knowledge.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("knowledge store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 5001,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		gateway: gw,
		store:   store,
		logger:  logger,
		config:  cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/metrics", s.handleMetrics)
	api.POST("/cache/clear", s.handleCacheClear)
	api.POST("/knowledge/search", s.handleKnowledgeSearch)
	api.POST("/knowledge/add", s.handleKnowledgeAdd)
	api.GET("/knowledge/stats", s.handleKnowledgeStats)
}

// writeGatewayError maps a typed gateway error onto the response, keeping
// the stable machine-readable code in the body.
func writeGatewayError(c echo.Context, err error) error {
	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		return c.JSON(gerr.Status, gerr)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

// Start runs the server until ctx is canceled, then shuts it down within
// the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(shutdownCtx)
}
