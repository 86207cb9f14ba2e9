/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 *
 * Package server exposes competitions, rankings and rank changes over a JSON
 * HTTP API.
 */
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mikeb26/tkdrank/compsync"
	"github.com/mikeb26/tkdrank/internal/metrics"
	"github.com/mikeb26/tkdrank/simplycompete"
	"github.com/mikeb26/tkdrank/wtrank"
)

type Store interface {
	ListCompetitions(ctx context.Context) ([]simplycompete.Competition, error)
	GetCompetition(ctx context.Context, id string) (simplycompete.Competition, error)
	ListParticipants(ctx context.Context, eventID string) ([]simplycompete.Participant, error)
	ListRankings(ctx context.Context, division string) ([]wtrank.Entry, time.Time, error)
	ListDivisions(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type Syncer interface {
	Sync(ctx context.Context) (compsync.Result, error)
}

type Server struct {
	echo      *echo.Echo
	port      string
	store     Store
	syncer    Syncer
	metrics   *metrics.Metrics
	startTime time.Time
}

func New(port string, st Store, syncer Syncer, m *metrics.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		port:      port,
		store:     st,
		syncer:    syncer,
		metrics:   m,
		startTime: time.Now(),
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.echo.Use(requestLogger())
	s.echo.Use(middleware.Recover())

	s.echo.GET("/", s.handleHealth)
	s.echo.GET("/competitions/sync", s.handleSync)
	s.echo.GET("/competitions", s.handleCompetitions)
	s.echo.GET("/competitions/:id/participants", s.handleParticipants)
	s.echo.GET("/divisions", s.handleDivisions)
	s.echo.GET("/rankings/:division", s.handleRankings)
	s.echo.GET("/rank-change", s.handleRankChange)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
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
			slog.Info("Request", attrs...)
			return nil
		},
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.port)
	if err := s.echo.Start(":" + s.port); err != nil && err != http.ErrServerClosed {
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
