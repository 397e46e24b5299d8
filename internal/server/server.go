// Package server - служебный HTTP API бота: health check и резервное
// копирование по запросу.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/server/handlers"
	"github.com/iudanet/vaultbot/internal/server/middleware"
)

const (
	healthPath       = "/healthz"
	shutdownTimeout  = 10 * time.Second
	defaultRateLimit = 60
)

// Config - параметры сервера
type Config struct {
	Addr      string
	Version   string
	Token     handlers.TokenConfig
	ChatID    int64
	RateLimit int
}

// Deps - зависимости обработчиков. Backups может быть nil, тогда
// маршрут резервного копирования не регистрируется.
type Deps struct {
	DB      handlers.HealthChecker
	Stats   handlers.HealthStats
	Backups handlers.BackupSender
	Clock   clock.Clock
}

// Server - служебный HTTP сервер
type Server struct {
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	logger     *slog.Logger
}

// New собирает маршруты
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute, deps.Clock, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger, healthPath))
	r.Use(middleware.RateLimit(limiter, logger))

	health := handlers.NewHealthHandler(deps.DB, deps.Stats, cfg.Version, logger)
	r.Get(healthPath, health.Health)

	if deps.Backups != nil && len(cfg.Token.Secret) > 0 {
		backup := handlers.NewBackupHandler(deps.Backups, cfg.ChatID, logger)
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.RequireToken(logger, cfg.Token))
			r.Post("/backup", backup.Backup)
		})
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Handler возвращает корневой обработчик
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run слушает адрес до отмены ctx, затем корректно завершает соединения
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ops server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve ops api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown ops server: %w", err)
	}
	s.logger.Info("ops server stopped")
	return nil
}
