package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the dashboard routes; mount under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio", h.HandleGetPortfolio)
	r.Get("/trades", h.HandleGetTrades)
	r.Get("/portfolio-history", h.HandleGetPortfolioHistory)
	r.Get("/latest-decision", h.HandleGetLatestDecision)
	r.Get("/markets", h.HandleGetMarkets)
	r.Get("/stats", h.HandleGetStats)
	r.Post("/update", h.HandleUpdate)
}
