// Package server exposes the sentiment predictor over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"yashubustudio/sentiment/internal/config"
	apperrors "yashubustudio/sentiment/internal/errors"
	"yashubustudio/sentiment/internal/logging"
	"yashubustudio/sentiment/internal/metrics"
	"yashubustudio/sentiment/sentiment"
)

// Predictor classifies one review. *sentiment.Predictor satisfies it.
type Predictor interface {
	Predict(ctx context.Context, review string) (sentiment.Result, error)
	ModelID() string
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	predictor   Predictor
	gatherer    prometheus.Gatherer
	httpMetrics *metrics.HTTPMetrics
	predMetrics *metrics.PredictionMetrics
	startTime   time.Time
}

// NewServer wires middleware and routes. Collectors are registered on reg and
// served from gatherer at /metrics.
func NewServer(cfg *config.Config, predictor Predictor, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Server, error) {
	if predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:        e,
		config:      cfg,
		predictor:   predictor,
		gatherer:    gatherer,
		httpMetrics: metrics.NewHTTPMetrics(reg),
		predMetrics: metrics.NewPredictionMetrics(reg),
		startTime:   time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(logging.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(requestLogger())
	e.Use(srv.httpMetrics.Middleware())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(apperrors.Middleware())

	srv.registerRoutes()

	return srv, nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.DebugContext(c.Request().Context(), "Request handled", attrs...)
			return nil
		},
	})
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "model", s.predictor.ModelID())
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
