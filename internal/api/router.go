package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/mcoot/reactimer/internal/api/handler"
	apimw "github.com/mcoot/reactimer/internal/api/middleware"
	"github.com/mcoot/reactimer/internal/middleware"
	"github.com/mcoot/reactimer/internal/services/auth"
	"github.com/mcoot/reactimer/internal/services/scores"
	"github.com/mcoot/reactimer/internal/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	AuthService  *auth.Service
	ScoreService *scores.Service
	Sessions     *session.Manager
	Backend      handler.Pinger
	Metrics      *middleware.Metrics
	CORSOrigins  []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Sessions, cfg.Metrics, cfg.Logger)
	scoresHandler := handler.NewScoresHandler(cfg.ScoreService, cfg.Metrics, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Backend, cfg.Logger)

	// Common middleware
	r.Use(apimw.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Auth routes (no session required)
	r.HandleFunc("/auth/upsert", authHandler.Upsert).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)

	// Score routes (session required)
	protected := r.NewRoute().Subrouter()
	protected.Use(apimw.RequireSession(cfg.Sessions))
	protected.HandleFunc("/highscores", scoresHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/submit", scoresHandler.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/rename", scoresHandler.Rename).Methods(http.MethodPost)
	protected.HandleFunc("/delete", scoresHandler.Delete).Methods(http.MethodPost)

	// Operational endpoints
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	if len(cfg.CORSOrigins) == 0 {
		return r
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}
