// Package http exposes the decision engine over a small REST surface.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/okrd/internal/coach"
	"github.com/fyrsmithlabs/okrd/internal/logging"
	"github.com/fyrsmithlabs/okrd/internal/session"
)

// Server provides HTTP endpoints for the coaching engine.
type Server struct {
	echo   *echo.Echo
	coach  *coach.Service
	logger *zap.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the HTTP server.
func NewServer(svc *coach.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("coach service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8090}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewMetrics(logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), requestID)
			if id := c.Param("id"); id != "" {
				ctx = logging.WithSessionID(ctx, id)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logging.FromContext(ctx, logger).Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		coach:  svc,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/sessions", s.handleCreateSession)
	v1.GET("/sessions/:id", s.handleGetSession)
	v1.POST("/sessions/:id/turns", s.handleTurn)
	v1.GET("/sessions/:id/snapshots", s.handleListSnapshots)
	v1.POST("/score", s.handleScore)
}

// TurnRequest is the request body for POST /api/v1/sessions/:id/turns.
type TurnRequest struct {
	Message string `json:"message"`
}

// ScoreRequest is the request body for POST /api/v1/score.
type ScoreRequest struct {
	Objective  string   `json:"objective"`
	KeyResults []string `json:"key_results"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleCreateSession(c echo.Context) error {
	sess, err := s.coach.CreateSession(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}
	return c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleGetSession(c echo.Context) error {
	sess, err := s.coach.GetSession(c.Request().Context(), c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session")
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) handleTurn(c echo.Context) error {
	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	result, err := s.coach.ProcessTurn(c.Request().Context(), c.Param("id"), req.Message)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, coach.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many turns, slow down")
	case err != nil:
		s.logger.Error("turn processing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process turn")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleListSnapshots(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.coach.GetSession(c.Request().Context(), id); errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	snaps, err := s.coach.ListSnapshots(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list snapshots")
	}
	return c.JSON(http.StatusOK, snaps)
}

func (s *Server) handleScore(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Objective == "" && len(req.KeyResults) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "objective or key_results is required")
	}
	return c.JSON(http.StatusOK, s.coach.ScoreDraft(req.Objective, req.KeyResults))
}

// Echo returns the underlying echo instance, used by tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
