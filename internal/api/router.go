/**
 * @description
 * This file sets up the HTTP router for the gateway. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the middleware stack: request logging, panic recovery, timeouts, CORS, and
 * the per-group authentication requirements.
 *
 * @dependencies
 * - net/http, time: Standard Go libraries.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the operator console.
 */

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the gateway's router.
func Routes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", h.HealthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Entry and exit paths: API key or operator session.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Post("/transactions/evaluate", h.EvaluateTransactionHandler)
			r.Post("/transactions/evaluate/raw", h.EvaluateRawHandler)

			r.Get("/results", h.ListResultsHandler)
			r.Get("/results/stats/summary", h.StatsSummaryHandler)
			r.Get("/results/{msgID}", h.GetResultHandler)
		})

		// Cluster operations: machine credential only.
		r.Route("/system", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.RequireAPIKey)

				r.Get("/pods", h.ListPodsHandler)
				r.Get("/pods/{pod}/logs", h.PodLogsHandler)
				r.Post("/pods/{pod}/restart", h.RestartPodHandler)

				r.Get("/deployments", h.ListDeploymentsHandler)
				r.Post("/deployments/{deployment}/scale", h.ScaleDeploymentHandler)
				r.Post("/deployments/{deployment}/restart", h.RestartDeploymentHandler)
				r.Patch("/deployments/{deployment}/image", h.SetDeploymentImageHandler)

				r.Get("/services", h.ListServicesHandler)
				r.Get("/events", h.ListEventsHandler)
				r.Get("/overview", h.ClusterOverviewHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession, h.RequireAdmin)
				r.Post("/cache/invalidate", h.InvalidateCacheHandler)
			})
		})

		// Authentication and user management.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.LoginHandler)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession)
				r.Get("/me", h.MeHandler)
				r.Post("/change-password", h.ChangePasswordHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession, h.RequireAdmin)
				r.Get("/users", h.ListUsersHandler)
				r.Post("/users", h.CreateUserHandler)
				r.Put("/users/{email}", h.UpdateUserHandler)
				r.Delete("/users/{email}", h.DeleteUserHandler)
				r.Post("/api-key", h.SetAPIKeyHandler)
				r.Get("/api-key/status", h.APIKeyStatusHandler)
			})
		})
	})

	return r
}

// HealthHandler pings each configured database with a short deadline and
// reports per-database status. The gateway itself is healthy even when its
// databases are not; callers read the map.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	databases := make(map[string]string, len(h.databases))
	healthy := true

	for name, pool := range h.databases {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		if err := pool.Ping(ctx); err != nil {
			databases[name] = "error: " + err.Error()
			healthy = false
		} else {
			databases[name] = "ok"
		}
		cancel()
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"databases": databases,
	})
}
