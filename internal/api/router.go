package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health and Prometheus endpoints (no auth required)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Supply group endpoints
			r.Route("/groups", func(r chi.Router) {
				r.Get("/", s.handleListGroups)
				r.Post("/", s.handleCreateGroup)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetGroup)
					r.Delete("/", s.handleDeleteGroup)
					r.Get("/lock", s.handleGetGroupLock)
					r.Put("/multipliers", s.handleUpdateMultipliers)
					r.Put("/entries/{entry}/enabled", s.handleSetEntryEnabled)
				})
			})

			// Controller endpoints
			r.Route("/controllers", func(r chi.Router) {
				r.Get("/", s.handleListControllers)
				r.Post("/", s.handleRegisterController)

				r.Route("/{entityID}", func(r chi.Router) {
					r.Get("/", s.handleGetController)
					r.Delete("/", s.handleUnregisterController)
					r.Put("/multiplier", s.handleSetControllerMultiplier)
					r.Get("/overrides", s.handleGetOverrides)
					r.Put("/overrides/{item}", s.handleSetOverride)
					r.Delete("/overrides/{item}", s.handleRemoveOverride)
				})
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"groups":         s.groups.GroupCount(),
		"controllers":    s.controllers.ControllerCount(),
	})
}
