// Package server assembles the HTTP server from the profile, store and API
// services.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/triageai/voicetriage/internal/profile"
	apiv1 "github.com/triageai/voicetriage/server/router/api/v1"
	"github.com/triageai/voicetriage/server/triage"
	"github.com/triageai/voicetriage/store"
)

// Server is the voicetriage HTTP server.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	cleanupJob *triage.CleanupJob
}

// NewServer creates a server from the profile and store.
func NewServer(_ context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			slog.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	apiService := apiv1.NewAPIV1Service(p, st)
	apiService.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	cleanupJob := triage.NewCleanupJob(apiService.Triage, triage.CleanupConfig{
		IdleTTL: p.SessionIdleTTL,
	})

	return &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
		apiService: apiService,
		cleanupJob: cleanupJob,
	}, nil
}

// Start begins serving and launches the background jobs.
func (s *Server) Start(ctx context.Context) error {
	s.cleanupJob.Start(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)

	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown drains connections and stops the background jobs.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s.cleanupJob.Stop()
	s.apiService.SummaryCache.Close()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("server shutdown")
}
