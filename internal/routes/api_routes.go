package routes

import (
	"infinite-experiment/hangar/internal/api"
	"infinite-experiment/hangar/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers the named procedures under /functions/v1.
// Admin checks happen per procedure inside the handler.
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, handlers *api.Handlers, limiter *middleware.RateLimiter) {
	r.Route("/functions/v1", func(v1 chi.Router) {
		v1.Use(middleware.InFlight(deps.Metrics, "/functions/v1"))
		if limiter != nil {
			v1.Use(limiter.Middleware)
		}
		v1.Use(middleware.AuthMiddleware(deps.Auth)) // every procedure is authenticated

		v1.Post("/{procedure}", handlers.InvokeProcedure())
	})
}
