package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// PeriodReturns converts a value series to step-to-step returns, skipping
// steps whose previous value is zero.
func PeriodReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, (values[i]-values[i-1])/values[i-1])
	}
	return returns
}

// CalculateSharpeRatio returns mean(returns)/σ(returns) scaled by sqrt(periods).
// σ is the population standard deviation; 0 when there are no returns or σ is 0.
//
// Formula:
//
//	Sharpe = mean / std × sqrt(periods)
func CalculateSharpeRatio(returns []float64, periods int) float64 {
	if len(returns) == 0 || periods <= 0 {
		return 0
	}

	mean, std := stat.PopMeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return mean / std * math.Sqrt(float64(periods))
}

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // positive fraction, 0.25 = 25% below peak
	CurrentDrawdown float64 `json:"current_drawdown"` // current decline from peak
	StepsInDrawdown int     `json:"steps_in_drawdown"`
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// Drawdown returns the fractional decline of value from peak, 0 when at or above peak
func Drawdown(peak, value float64) float64 {
	if peak <= 0 || value >= peak {
		return 0
	}
	return (peak - value) / peak
}

// CalculateDrawdownMetrics walks the value series tracking the running peak.
// Returns nil with fewer than two values.
func CalculateDrawdownMetrics(values []float64) *DrawdownMetrics {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]
	peakIndex := 0

	for i, v := range values {
		if v > peak {
			peak = v
			peakIndex = i
		}
		if dd := Drawdown(peak, v); dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	current := values[len(values)-1]
	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: Drawdown(peak, current),
		StepsInDrawdown: len(values) - 1 - peakIndex,
		PeakValue:       peak,
		CurrentValue:    current,
	}
}
