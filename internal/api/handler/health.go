package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/reactimer/internal/api/response"
)

// Pinger reports whether a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	backend Pinger
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(backend Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{backend: backend, timeout: 2 * time.Second, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		response.JSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "unavailable"})
		return
	}
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
