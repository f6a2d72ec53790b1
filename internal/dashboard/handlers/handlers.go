// Package handlers provides HTTP handlers for the dashboard state.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/dashboard"
)

// maxUpdateBytes bounds a POST /api/update body
const maxUpdateBytes = 1 << 20

// Handler handles dashboard HTTP requests
type Handler struct {
	service *dashboard.Service
	log     zerolog.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *dashboard.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dashboard").Logger(),
	}
}

// HandleGetPortfolio handles GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Portfolio())
}

// HandleGetTrades handles GET /api/trades, newest last
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := dashboard.DefaultRecentTrades
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	h.writeJSON(w, http.StatusOK, h.service.RecentTrades(limit))
}

// HandleGetPortfolioHistory handles GET /api/portfolio-history
func (h *Handler) HandleGetPortfolioHistory(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.PortfolioHistory())
}

// HandleGetLatestDecision handles GET /api/latest-decision.
// Responds with JSON null before any decision was recorded.
func (h *Handler) HandleGetLatestDecision(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.LatestDecision())
}

// HandleGetMarkets handles GET /api/markets
func (h *Handler) HandleGetMarkets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Markets())
}

// HandleGetStats handles GET /api/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Stats())
}

// HandleUpdate handles POST /api/update
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var update dashboard.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if update.Empty() {
		http.Error(w, "Update contains no changes", http.StatusBadRequest)
		return
	}

	if err := h.service.Apply(r.Context(), update); err != nil {
		h.log.Error().Err(err).Msg("Failed to apply dashboard update")
		http.Error(w, "Failed to apply update", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
