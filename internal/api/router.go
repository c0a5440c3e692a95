package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/panda19/prisonscore/internal/api/handler"
	"github.com/panda19/prisonscore/internal/api/middleware"
	"github.com/panda19/prisonscore/internal/api/response"
	"github.com/panda19/prisonscore/internal/mainloop"
	httpmw "github.com/panda19/prisonscore/internal/middleware"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/auth"
	"github.com/panda19/prisonscore/internal/services/gameplay"
	"github.com/panda19/prisonscore/internal/services/profiles"
	"github.com/panda19/prisonscore/internal/worker"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Loop        *mainloop.Loop
	Worker      *worker.Worker
	Profiles    *profiles.Manager
	Policy      *policy.Service
	Gameplay    *gameplay.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	profileHandler := handler.NewProfileHandler(cfg.Loop, cfg.Profiles, cfg.Policy)
	sessionHandler := handler.NewSessionHandler(cfg.Loop, cfg.Profiles, cfg.Policy, cfg.Gameplay)
	adminHandler := handler.NewAdminHandler(cfg.Loop, cfg.Profiles, cfg.Policy, cfg.Gameplay)

	// Create middleware
	adminMiddleware := middleware.AdminAuth(cfg.AuthService)
	loggingMiddleware := httpmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Logging wraps recovery so a recovered panic is logged with its
	// request id and final status.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg)).Methods(http.MethodGet)

	// Profile reads
	api.HandleFunc("/profiles", profileHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", profileHandler.Get).Methods(http.MethodGet)

	// Host signals
	api.HandleFunc("/sessions", sessionHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessionHandler.Leave).Methods(http.MethodDelete)
	api.HandleFunc("/profiles/{id}/yield", sessionHandler.Yield).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{id}/death", sessionHandler.Death).Methods(http.MethodPost)

	// Operator routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/reload", adminHandler.Reload).Methods(http.MethodPost)
	admin.HandleFunc("/save", adminHandler.Save).Methods(http.MethodPost)
	admin.HandleFunc("/profiles/{id}", adminHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/profiles/{id}/experience", adminHandler.Grant).Methods(http.MethodPost)

	return r
}

func healthHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:  "ok",
			Online:  cfg.Profiles.Len(),
			Pending: cfg.Worker.Pending(),
		})
	}
}
