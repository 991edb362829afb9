package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/reactimer/internal/api/apierr"
	"github.com/mcoot/reactimer/internal/api/request"
	"github.com/mcoot/reactimer/internal/api/response"
	"github.com/mcoot/reactimer/internal/middleware"
	"github.com/mcoot/reactimer/internal/services/auth"
	"github.com/mcoot/reactimer/internal/session"
)

// AuthHandler handles credential and session endpoints
type AuthHandler struct {
	authService *auth.Service
	sessions    *session.Manager
	metrics     *middleware.Metrics
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, sessions *session.Manager, metrics *middleware.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		metrics:     metrics,
		logger:      logger,
	}
}

// Upsert handles POST /auth/upsert
func (h *AuthHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req request.UpsertRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err, apierr.CodeAuthFailed)
		return
	}

	res, err := h.authService.Upsert(r.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.AuthUpsert(outcome(err))
		writeError(h.logger, w, r, err, apierr.CodeAuthFailed)
		return
	}
	h.metrics.AuthUpsert(string(res.Mode))

	h.sessions.SetCookie(w, res.Token)

	status := http.StatusOK
	if res.Mode == auth.ModeRegister {
		status = http.StatusCreated
		h.logger.Info("account registered", slog.String("username", res.Username))
	}
	response.JSON(w, status, response.AuthResponseFromResult(res))
}

// Logout handles POST /auth/logout; it always succeeds
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.sessions.FromRequest(r)
	if !ok {
		response.JSON(w, http.StatusOK, response.MeResponse{})
		return
	}
	response.JSON(w, http.StatusOK, response.MeResponse{User: &response.User{Username: claims.Username}})
}
