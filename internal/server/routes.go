package server

import "github.com/go-chi/chi/v5"

// SetupRoutes registers the completion routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)

	router.Route("/api", func(r chi.Router) {
		r.Post("/complete", h.Complete)
		r.Post("/usage", h.Record)
		r.Post("/refresh", h.Refresh)
	})
}
