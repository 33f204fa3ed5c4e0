package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "bloodbridge/docs"
	"bloodbridge/internal/delivery/http/controllers"
	"bloodbridge/internal/delivery/http/middleware"
	"bloodbridge/internal/domain"
	"bloodbridge/internal/metrics"
)

// RouterDeps holds everything the router mounts.
type RouterDeps struct {
	Logger         *slog.Logger
	Metrics        *metrics.HTTP
	MetricsHandler http.Handler
	Verifier       domain.TokenVerifier
	AllowedOrigins []string

	Health        *controllers.HealthController
	Compatibility *controllers.CompatibilityController
	Match         *controllers.MatchController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(deps.Logger, deps.Metrics))
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.Get("/healthz", deps.Health.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/blood-types/{bloodType}/compatibility", deps.Compatibility.GetCompatibility)

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Verifier, deps.Logger))

		r.Post("/matches/preview", deps.Match.PreviewMatches)
		r.Route("/requests/{requestID}/matches", func(r chi.Router) {
			r.Get("/", deps.Match.GetMatches)
			r.Post("/", deps.Match.DispatchMatches)
			r.Post("/expand", deps.Match.ExpandSearch)
		})
	})

	return r
}
