package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/kalshigym/internal/dashboard"
	"github.com/aristath/kalshigym/internal/events"
	testingpkg "github.com/aristath/kalshigym/internal/testing"
)

func setupTestRouter(t *testing.T) (chi.Router, *dashboard.Service) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	db := testingpkg.NewTestDB(t, "dashboard")

	service, err := dashboard.NewService(context.Background(), dashboard.NewSQLiteStore(db), events.NewBus(logger), logger)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Route("/api", NewHandler(service, logger).RegisterRoutes)
	return router, service
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleGet_EmptyState(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		path     string
		expected string
	}{
		{path: "/api/portfolio", expected: `{"balance":10000,"pnl":0,"total_trades":0,"win_rate":0}`},
		{path: "/api/trades", expected: `[]`},
		{path: "/api/portfolio-history", expected: `[]`},
		{path: "/api/latest-decision", expected: `null`},
		{path: "/api/markets", expected: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.path, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	router, service := setupTestRouter(t)

	body := `{
		"portfolio": {"balance": 9987, "pnl": -13, "total_trades": 1, "win_rate": 0},
		"trade": {"ticker": "SIM-25-T50000", "side": "yes", "action": "buy", "size": 25, "price": 0.52, "cost": 13},
		"portfolio_value": {"step": 25, "value": 9987},
		"decision": {"action": "BUY_YES", "size": 25}
	}`
	w := doRequest(router, http.MethodPost, "/api/update", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())

	assert.Equal(t, 9987.0, service.Portfolio().Balance)

	w = doRequest(router, http.MethodGet, "/api/trades", "")
	var trades []dashboard.Trade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "SIM-25-T50000", trades[0].Ticker)
	assert.NotEmpty(t, trades[0].ID)

	w = doRequest(router, http.MethodGet, "/api/latest-decision", "")
	var decision dashboard.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, "BUY_YES", decision.Action)

	w = doRequest(router, http.MethodGet, "/api/stats", "")
	var stats dashboard.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 9987.0, stats.LatestValue)
}

func TestHandleUpdate_BadRequests(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"portfolio":`},
		{name: "empty update", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/update", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleGetTrades_Limit(t *testing.T) {
	router, service := setupTestRouter(t)

	for i := 0; i < 25; i++ {
		require.NoError(t, service.Apply(context.Background(), dashboard.Update{
			Trade: &dashboard.Trade{Ticker: fmt.Sprintf("SIM-%d", i), Size: 10},
		}))
	}

	tests := []struct {
		query    string
		expected int
	}{
		{query: "", expected: dashboard.DefaultRecentTrades},
		{query: "?limit=5", expected: 5},
		{query: "?limit=abc", expected: dashboard.DefaultRecentTrades},
		{query: "?limit=100", expected: 25},
	}

	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/trades"+tt.query, "")
			var trades []dashboard.Trade
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trades))
			assert.Len(t, trades, tt.expected)
			assert.Equal(t, "SIM-24", trades[len(trades)-1].Ticker)
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(nil, logger)

	assert.NotPanics(t, func() {
		handler.RegisterRoutes(chi.NewRouter())
	})
}
