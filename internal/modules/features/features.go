// Package features turns raw close history into technical indicators and the
// fixed 50-slot observation vector consumed by a policy.
package features

import (
	"github.com/aristath/kalshigym/pkg/formulas"
)

// DefaultLookbackWindow is the number of closes preceding the current step
// that feed the indicators.
const DefaultLookbackWindow = 24

// PriceFeatures holds the price-derived indicators for one step
type PriceFeatures struct {
	CurrentPrice      float64 `json:"current_price"`
	Returns1h         float64 `json:"returns_1h"`
	Returns4h         float64 `json:"returns_4h"`
	Returns12h        float64 `json:"returns_12h"`
	Volatility        float64 `json:"volatility"`
	Momentum          float64 `json:"momentum"`
	RSI               float64 `json:"rsi"`
	BollingerPosition float64 `json:"bollinger_position"`
}

// NeutralPriceFeatures returns the defaults used when history is too short
func NeutralPriceFeatures(currentPrice float64) PriceFeatures {
	return PriceFeatures{
		CurrentPrice:      currentPrice,
		RSI:               formulas.NeutralRSI,
		BollingerPosition: formulas.NeutralBollinger,
	}
}

// TimeFeatures holds calendar and contract-timing inputs
type TimeFeatures struct {
	HourOfDay          int     `json:"hour_of_day"`
	TimeToExpiry       float64 `json:"time_to_expiry"` // hours
	IsNearExpiry       bool    `json:"is_near_expiry"`
	ImpliedProbability float64 `json:"implied_probability"`
	BidAskSpread       float64 `json:"bid_ask_spread"`
}

// PositionFeatures summarises the open book and account
type PositionFeatures struct {
	NumPositions   int     `json:"num_positions"`
	TotalExposure  float64 `json:"total_exposure"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
	PortfolioValue float64 `json:"portfolio_value"`
	WinRate        float64 `json:"win_rate"`
}

// FeatureEngineer extracts indicators over a trailing lookback window.
// It holds no mutable state and may be shared between environments.
type FeatureEngineer struct {
	lookbackWindow int
}

// NewFeatureEngineer creates a feature engineer; a non-positive window falls
// back to DefaultLookbackWindow.
func NewFeatureEngineer(lookbackWindow int) *FeatureEngineer {
	if lookbackWindow <= 0 {
		lookbackWindow = DefaultLookbackWindow
	}
	return &FeatureEngineer{lookbackWindow: lookbackWindow}
}

// LookbackWindow returns the configured window
func (fe *FeatureEngineer) LookbackWindow() int {
	return fe.lookbackWindow
}

// ExtractFeatures computes the price indicators at step using
// closes[step-lookback : step+1]. It never fails on short history.
func (fe *FeatureEngineer) ExtractFeatures(closes []float64, step int) PriceFeatures {
	if step < 0 || step >= len(closes) {
		return NeutralPriceFeatures(0)
	}

	start := step - fe.lookbackWindow
	if start < 0 {
		start = 0
	}
	prices := closes[start : step+1]
	if len(prices) < 2 {
		return NeutralPriceFeatures(closes[step])
	}

	returns := formulas.CalculateReturns(prices)

	return PriceFeatures{
		CurrentPrice:      prices[len(prices)-1],
		Returns1h:         returns[len(returns)-1],
		Returns4h:         formulas.MeanOfLast(returns, 4),
		Returns12h:        formulas.MeanOfLast(returns, 12),
		Volatility:        formulas.CalculateVolatility(returns, formulas.DefaultVolatilityWindow),
		Momentum:          formulas.CalculateMomentum(prices, formulas.DefaultMomentumWindow),
		RSI:               formulas.CalculateRSI(prices, formulas.DefaultRSIPeriod),
		BollingerPosition: formulas.CalculateBollingerPosition(prices, formulas.DefaultBollingerWindow),
	}
}
