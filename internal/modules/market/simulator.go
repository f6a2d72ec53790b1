// Package market prices and settles simulated binary contracts on the
// reference asset.
package market

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/pkg/formulas"
)

// Simulator defaults
const (
	DefaultBaseSpread       = 0.02
	DefaultVolatilityFactor = 0.3
)

const (
	thresholdOffset = 0.05 // strikes are drawn within ±5% of spot
	strikeIncrement = 100.0
	minVolatility   = 0.01
	minProbability  = 0.05
	maxProbability  = 0.95
	minQuote        = 0.01
	maxQuote        = 0.99
)

// Quote is the YES-side market for a contract, in probability units
type Quote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
	Mid float64 `json:"mid"`
}

// Spread returns ask minus bid
func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// EntryPrice returns the fill price for opening the given side
func (q Quote) EntryPrice(side domain.ContractSide) float64 {
	if side.EntersAtAsk() {
		return q.Ask
	}
	return q.Bid
}

// Simulator holds only configuration; every method is pure apart from the
// caller-supplied random source in GenerateThreshold.
type Simulator struct {
	BaseSpread       float64
	VolatilityFactor float64
}

// NewSimulator creates a simulator with the default spread and volatility factor
func NewSimulator() *Simulator {
	return &Simulator{
		BaseSpread:       DefaultBaseSpread,
		VolatilityFactor: DefaultVolatilityFactor,
	}
}

// GenerateThreshold draws a strike within ±5% of spot, rounded to the nearest 100.
// Halfway cases round to even.
func (s *Simulator) GenerateThreshold(spot float64, rng *rand.Rand) float64 {
	offset := -thresholdOffset + 2*thresholdOffset*rng.Float64()
	threshold := spot * (1 + offset)
	return math.RoundToEven(threshold/strikeIncrement) * strikeIncrement
}

// CalculateImpliedProbability returns the probability that spot finishes at or
// above strike.
//
// Formula:
//
//	z = ((spot - strike) / strike) / (max(vol, 0.01) × sqrt(hours/24) × volatilityFactor)
//	p = clip(Φ(z), 0.05, 0.95)
//
// At or past expiry the outcome is already known and 1 or 0 is returned unclipped.
func (s *Simulator) CalculateImpliedProbability(spot, strike, hoursToExpiry, volatility float64) float64 {
	if hoursToExpiry <= 0 {
		if spot >= strike {
			return 1
		}
		return 0
	}

	distance := (spot - strike) / strike
	vol := math.Max(volatility, minVolatility)
	timeFactor := math.Sqrt(hoursToExpiry / 24)

	z := distance / (vol * timeFactor * s.VolatilityFactor)
	return formulas.Clip(distuv.UnitNormal.CDF(z), minProbability, maxProbability)
}

// GetContractPrices quotes the YES side around the implied probability. The
// spread doubles at maximum uncertainty (mid 0.5) and narrows to the base
// spread at the extremes.
func (s *Simulator) GetContractPrices(spot, strike, hoursToExpiry, volatility float64) Quote {
	mid := s.CalculateImpliedProbability(spot, strike, hoursToExpiry, volatility)

	uncertainty := 1 - math.Abs(mid-0.5)*2
	spread := s.BaseSpread * (1 + uncertainty)

	bid := formulas.Clip(mid-spread/2, minQuote, maxQuote)
	ask := formulas.Clip(mid+spread/2, minQuote, maxQuote)

	return Quote{Bid: bid, Ask: ask, Mid: (bid + ask) / 2}
}

// ResolveContract reports whether the contract settles YES
func (s *Simulator) ResolveContract(finalPrice, strike float64) bool {
	return finalPrice >= strike
}

// CalculatePnL settles a position: each contract pays 1 when its side matches
// the outcome, minus the entry price.
func (s *Simulator) CalculatePnL(side domain.ContractSide, size int, entryPrice float64, resolvedYes bool) float64 {
	payout := 0.0
	if side.PaysOnYes() == resolvedYes {
		payout = 1
	}
	return (payout - entryPrice) * float64(size)
}
