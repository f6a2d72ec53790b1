// Package formulas holds the indicator and performance formulas used for
// observation building and episode evaluation.
//
// Every indicator is total: with too little history it returns a neutral
// default (0, 50 or 0.5) instead of failing.
package formulas

import (
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Neutral defaults returned when the lookback is too short
const (
	NeutralRSI       = 50.0
	NeutralBollinger = 0.5
)

// Default indicator windows
const (
	DefaultVolatilityWindow = 20
	DefaultMomentumWindow   = 10
	DefaultRSIPeriod        = 14
	DefaultBollingerWindow  = 20
)

// CalculateReturns converts prices to one-period percentage returns.
// The result has the same length as prices; element 0 is always 0.
//
// Formula:
//
//	Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) == 0 {
		return []float64{}
	}
	return talib.Rocp(prices, 1)
}

// MeanOfLast returns the mean of the last n values, or 0 when fewer than n exist
func MeanOfLast(values []float64, n int) float64 {
	if n <= 0 || len(values) < n {
		return 0
	}
	return stat.Mean(values[len(values)-n:], nil)
}

// CalculateVolatility returns the population standard deviation of the last
// window values, or 0 with fewer than window samples.
func CalculateVolatility(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return 0
	}
	return stat.PopStdDev(values[len(values)-window:], nil)
}

// CalculateMomentum returns the relative change between the latest price and
// the first price of the trailing window, or 0 with fewer than window prices.
//
// Formula:
//
//	Momentum = (Price[n-1] - Price[n-window]) / Price[n-window]
func CalculateMomentum(prices []float64, window int) float64 {
	if window <= 0 || len(prices) < window {
		return 0
	}
	if window == 1 {
		return 0
	}
	roc := talib.Rocp(prices[len(prices)-window:], window-1)
	return roc[len(roc)-1]
}

// CalculateRSI returns the Relative Strength Index over the last period deltas
// using simple averages of gains and losses.
//
// Formula:
//
//	RS  = mean(gains) / mean(losses)
//	RSI = 100 - 100 / (1 + RS)
//
// Returns 50 with fewer than period+1 prices and 100 when the average loss is zero.
func CalculateRSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return NeutralRSI
	}

	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else if delta < 0 {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// BollingerBands represents Bollinger Bands values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// CalculateBollingerBands returns mean ± k·σ over the trailing window (population σ).
// Returns nil with fewer than window prices.
func CalculateBollingerBands(prices []float64, window int, k float64) *BollingerBands {
	if window <= 0 || len(prices) < window {
		return nil
	}
	mean, std := stat.PopMeanStdDev(prices[len(prices)-window:], nil)
	return &BollingerBands{
		Upper:  mean + k*std,
		Middle: mean,
		Lower:  mean - k*std,
	}
}

// CalculateBollingerPosition returns where the latest price sits between the
// 2σ bands, clipped to [0,1]. 0.5 when history is short or the bands collapse.
//
// Formula: (Price - Lower) / (Upper - Lower)
func CalculateBollingerPosition(prices []float64, window int) float64 {
	bands := CalculateBollingerBands(prices, window, 2)
	if bands == nil {
		return NeutralBollinger
	}

	width := bands.Upper - bands.Lower
	if width == 0 {
		return NeutralBollinger
	}

	return Clip((prices[len(prices)-1]-bands.Lower)/width, 0, 1)
}

// Clip bounds v to [lo, hi]
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
