// Package handlers exposes on-demand baseline comparisons over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/baselines"
	"github.com/aristath/kalshigym/internal/modules/environment"
	"github.com/aristath/kalshigym/internal/modules/evaluation"
)

// Handler handles evaluation HTTP requests
type Handler struct {
	series *domain.PriceSeries
	cfg    environment.Config
	log    zerolog.Logger
}

// NewHandler creates a handler evaluating against series with cfg
func NewHandler(series *domain.PriceSeries, cfg environment.Config, log zerolog.Logger) *Handler {
	return &Handler{
		series: series,
		cfg:    cfg,
		log:    log.With().Str("handler", "evaluation").Logger(),
	}
}

// StrategyInfo describes one available baseline
type StrategyInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CompareRequest is the body of POST /api/evaluate/compare. Empty fields
// fall back to every baseline and the configured seed and reward.
type CompareRequest struct {
	Strategies     []string `json:"strategies"`
	Seed           *uint64  `json:"seed"`
	RewardStrategy string   `json:"reward_strategy"`
	IncludeHistory bool     `json:"include_history"`
}

// HandleGetStrategies handles GET /api/evaluate/strategies
func (h *Handler) HandleGetStrategies(w http.ResponseWriter, r *http.Request) {
	all := baselines.All(h.cfg.Seed)
	out := make([]StrategyInfo, 0, len(all))
	for _, p := range all {
		out = append(out, StrategyInfo{Key: baselines.Key(p.Name()), Name: p.Name()})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// HandleCompare handles POST /api/evaluate/compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg := h.cfg
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.RewardStrategy != "" {
		cfg.Reward = environment.RewardKind(req.RewardStrategy)
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	policies := baselines.All(cfg.Seed)
	if len(req.Strategies) > 0 {
		policies = policies[:0]
		for _, key := range req.Strategies {
			p, ok := baselines.Lookup(key, cfg.Seed)
			if !ok {
				http.Error(w, "Unknown strategy: "+key, http.StatusBadRequest)
				return
			}
			policies = append(policies, p)
		}
	}

	results, err := evaluation.Compare(r.Context(), h.series, cfg, policies, evaluation.Options{Logger: &h.log})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compare strategies")
		http.Error(w, "Failed to compare strategies", http.StatusInternalServerError)
		return
	}

	if !req.IncludeHistory {
		for i := range results {
			results[i].PortfolioHistory = nil
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"bars":    h.series.Len(),
		"seed":    cfg.Seed,
		"reward":  cfg.Reward,
		"results": results,
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
