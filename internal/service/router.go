package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/splitlyhq/splitly/internal/auth"
	"github.com/splitlyhq/splitly/internal/metrics"
	"github.com/splitlyhq/splitly/internal/middleware"
)

// NewRouter assembles the API. Auth endpoints are public, everything
// else under /api/v1 requires a valid token.
func NewRouter(
	authSvc *AuthService,
	sessionSvc *SessionService,
	groupSvc *GroupService,
	jwtManager *auth.JWTManager,
	m *metrics.Metrics,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logging)
	router.Use(m.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", m.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Route("/auth", authSvc.Routes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))
			r.Route("/sessions", sessionSvc.Routes)
			r.Route("/groups", groupSvc.Routes)
		})
	})

	return router
}
