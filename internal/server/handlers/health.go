package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker проверяет доступность зависимости
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthStats - счетчики для ответа health check
type HealthStats interface {
	ActiveDisclosures() int
	ActiveSessions() int
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	db      HealthChecker
	stats   HealthStats
	version string
}

// NewHealthHandler создает handler для health check. stats может быть nil.
func NewHealthHandler(db HealthChecker, stats HealthStats, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{logger: logger, db: db, stats: stats, version: version}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version,omitempty"`
	Error             string `json:"error,omitempty"`
	ActiveDisclosures int    `json:"active_disclosures"`
	ActiveSessions    int    `json:"active_sessions"`
}

// Health обрабатывает GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: h.version}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		resp.Status = "unavailable"
		resp.Error = "database unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.stats != nil {
		resp.ActiveDisclosures = h.stats.ActiveDisclosures()
		resp.ActiveSessions = h.stats.ActiveSessions()
	}

	writeJSON(w, status, resp, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
