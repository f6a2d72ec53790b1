package testing

import (
	"testing"
	"time"

	"github.com/aristath/kalshigym/internal/domain"
)

// FixtureStart is the time of the first bar in generated series
var FixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewSeriesFromCloses builds an hourly series with flat bars at each close
func NewSeriesFromCloses(t *testing.T, closes []float64) *domain.PriceSeries {
	t.Helper()

	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Time:  FixtureStart.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}

	series, err := domain.NewPriceSeries(bars)
	if err != nil {
		t.Fatalf("Failed to build price series: %v", err)
	}
	return series
}

// ConstantCloses returns n copies of price
func ConstantCloses(price float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

// RampCloses returns start, start+step, ... with n values
func RampCloses(start, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return closes
}
