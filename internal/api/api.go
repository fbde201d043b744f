// Package api exposes the inference pipeline over HTTP: a prediction
// endpoint guarded by an API key, a health probe, model metadata and the
// Prometheus metrics endpoint.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/detection"
	"github.com/verbalis/voicedetect-go/internal/logging"
	"github.com/verbalis/voicedetect-go/internal/observability"
)

// Server wires the HTTP layer around the detection engine.
type Server struct {
	Echo     *echo.Echo
	settings *conf.Settings
	engine   *detection.Engine
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates the server with routes and middleware configured.
func New(settings *conf.Settings, engine *detection.Engine, metrics *observability.Metrics) *Server {
	s := &Server{
		Echo:     echo.New(),
		settings: settings,
		engine:   engine,
		metrics:  metrics,
		logger:   logging.ForService("api"),
	}

	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.Echo.Use(s.requestLogger())

	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	// Health and metrics stay outside authentication so probes and scrapers
	// need no credentials.
	s.Echo.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.Echo.Group("/api/v1")
	if s.settings.HTTP.APIKey != "" {
		v1.Use(s.keyAuth())
	} else {
		s.logger.Warn("http.apikey is empty, prediction endpoints are unauthenticated")
	}
	v1.POST("/predict", s.handlePredict)
	v1.GET("/model/info", s.handleModelInfo)
}

// keyAuth validates the bearer token against the configured API key using a
// constant-time comparison.
func (s *Server) keyAuth() echo.MiddlewareFunc {
	expected := []byte(s.settings.HTTP.APIKey)
	return middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
		return subtle.ConstantTimeCompare([]byte(key), expected) == 1, nil
	})
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("http request",
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	})
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.settings.HTTP.Host, s.settings.HTTP.Port)
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := s.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	}
}
