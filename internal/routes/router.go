package routes

import (
	"net/http"
	"time"

	"infinite-experiment/hangar/internal/api"
	"infinite-experiment/hangar/internal/changefeed"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes builds the HTTP handler. Preflight runs first so OPTIONS
// never reaches CORS or authentication.
func RegisterRoutes(deps *api.Dependencies, limiter *middleware.RateLimiter, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	if deps.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Preflight)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.Logging)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))
	r.Use(middleware.CORS())

	logging.Info("Router initialized with metrics and logging middleware")

	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(deps, upSince))
	r.Handle("/metrics", promhttp.Handler())

	handlers := api.NewHandlers(deps)
	RegisterAPIRoutes(r, deps, handlers, limiter)

	r.Route("/realtime/v1", func(rt chi.Router) {
		rt.Use(middleware.InFlight(deps.Metrics, "/realtime/v1"))
		rt.Handle("/websocket", changefeed.NewWSHandler(deps.Hub, deps.Auth, deps.Services.Pilots))
	})

	return r
}
