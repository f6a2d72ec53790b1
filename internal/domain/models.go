// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"math"
	"time"
)

// PriceBar is one OHLCV record of the reference asset
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an immutable, time-ordered sequence of price bars.
// Only Close is consumed by pricing and feature logic.
type PriceSeries struct {
	bars   []PriceBar
	closes []float64
}

// NewPriceSeries validates and copies the bars into a PriceSeries.
// Timestamps must be strictly increasing and every close finite and positive.
func NewPriceSeries(bars []PriceBar) (*PriceSeries, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	owned := make([]PriceBar, len(bars))
	copy(owned, bars)

	closes := make([]float64, len(owned))
	for i, bar := range owned {
		if i > 0 && !bar.Time.After(owned[i-1].Time) {
			return nil, fmt.Errorf("%w: bar %d at %s is not after %s",
				ErrNonIncreasingTimestamps, i, bar.Time.Format(time.RFC3339), owned[i-1].Time.Format(time.RFC3339))
		}
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) || bar.Close <= 0 {
			return nil, fmt.Errorf("%w: bar %d at %s has close %v",
				ErrInvalidPrice, i, bar.Time.Format(time.RFC3339), bar.Close)
		}
		closes[i] = bar.Close
	}

	return &PriceSeries{bars: owned, closes: closes}, nil
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	return len(s.bars)
}

// Bar returns the bar at index i
func (s *PriceSeries) Bar(i int) PriceBar {
	return s.bars[i]
}

// Close returns the close at index i
func (s *PriceSeries) Close(i int) float64 {
	return s.closes[i]
}

// Closes returns closes[0:end]. The returned slice must not be modified.
func (s *PriceSeries) Closes(end int) []float64 {
	if end > len(s.closes) {
		end = len(s.closes)
	}
	if end < 0 {
		end = 0
	}
	return s.closes[:end:end]
}

// Slice returns a new series holding bars [from, to)
func (s *PriceSeries) Slice(from, to int) (*PriceSeries, error) {
	if from < 0 || to > len(s.bars) || from >= to {
		return nil, fmt.Errorf("invalid slice [%d, %d) of series with %d bars", from, to, len(s.bars))
	}
	return NewPriceSeries(s.bars[from:to])
}

// Position is an open binary-contract exposure owned by the environment
type Position struct {
	Side       ContractSide `json:"side"`
	Size       int          `json:"size"`
	EntryPrice float64      `json:"entry_price"` // probability in (0,1)
	EntryStep  int          `json:"entry_step"`
	Strike     float64      `json:"strike"`
	ExpiryStep int          `json:"expiry_step"`
}

// Cost is the cash paid to open the position
func (p Position) Cost() float64 {
	return p.EntryPrice * float64(p.Size)
}

// TradeRecord is the immutable snapshot of a resolved position
type TradeRecord struct {
	Step int          `json:"step"`
	Side ContractSide `json:"side"`
	Size int          `json:"size"`
	PnL  float64      `json:"pnl"`
}

// Won reports whether the trade realized a positive P&L
func (t TradeRecord) Won() bool {
	return t.PnL > 0
}
