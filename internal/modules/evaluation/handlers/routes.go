package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all evaluation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluate", func(r chi.Router) {
		// Full-episode runs take longer than ordinary API calls
		r.Use(middleware.Timeout(120 * time.Second))

		r.Get("/strategies", h.HandleGetStrategies)
		r.Post("/compare", h.HandleCompare)
	})
}
