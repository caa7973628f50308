package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api"
	apiMiddleware "github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/middleware"
)

// setupRouter builds the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.config.Auth.JWTSecret)

	metricsHandler := api.NewMetricsHandler(app.healthService, app.policy, app.rosterStore, app.refresher, app.logger)
	actionHandler := api.NewActionHandler(app.executor, app.policy, app.logger)
	adminHandler := api.NewAdminHandler(app.metricsCache, app.refresher, app.logger)
	cardHandler := api.NewCardHandler(app.reviewService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Health metrics
			r.Get("/metrics/srs", metricsHandler.GetScopeHealth)
			r.Post("/metrics/srs/refresh", metricsHandler.RefreshRollups)

			// Quick actions
			r.Get("/metrics/srs/actions", actionHandler.ListAllowedActions)
			r.Post("/metrics/srs/actions", actionHandler.ExecuteAction)

			// Operator endpoints
			r.Get("/metrics/health", adminHandler.GetMetricsHealth)
			r.Post("/metrics/cache/invalidate", adminHandler.InvalidateCache)

			// Card scheduling
			r.Post("/cards/{id}/review", cardHandler.SubmitReview)
			r.Post("/cards/{id}/postpone", cardHandler.PostponeCard)
		})
	})

	// Liveness probe, unauthenticated.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
