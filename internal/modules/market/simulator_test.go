package market

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/kalshigym/internal/domain"
)

func TestGenerateThreshold(t *testing.T) {
	sim := NewSimulator()
	rng := rand.New(rand.NewPCG(7, 7))

	for i := 0; i < 500; i++ {
		strike := sim.GenerateThreshold(50000, rng)
		assert.GreaterOrEqual(t, strike, 47500.0)
		assert.LessOrEqual(t, strike, 52500.0)
		assert.Zero(t, int(strike)%100, "strike %v not a multiple of 100", strike)
	}
}

func TestGenerateThreshold_Deterministic(t *testing.T) {
	sim := NewSimulator()
	a := rand.New(rand.NewPCG(1, 2))
	b := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		assert.Equal(t, sim.GenerateThreshold(61234, a), sim.GenerateThreshold(61234, b))
	}
}

func TestCalculateImpliedProbability(t *testing.T) {
	sim := NewSimulator()

	testCases := []struct {
		name     string
		spot     float64
		strike   float64
		hours    float64
		vol      float64
		expected float64
	}{
		{name: "at the money", spot: 50000, strike: 50000, hours: 1, vol: 0.02, expected: 0.5},
		{name: "expired above", spot: 50100, strike: 50000, hours: 0, vol: 0.02, expected: 1},
		{name: "expired at strike", spot: 50000, strike: 50000, hours: 0, vol: 0.02, expected: 1},
		{name: "expired below", spot: 49900, strike: 50000, hours: 0, vol: 0.02, expected: 0},
		{name: "deep in the money clipped", spot: 60000, strike: 50000, hours: 1, vol: 0.02, expected: 0.95},
		{name: "deep out of the money clipped", spot: 40000, strike: 50000, hours: 1, vol: 0.02, expected: 0.05},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, sim.CalculateImpliedProbability(tc.spot, tc.strike, tc.hours, tc.vol), 1e-12)
		})
	}
}

func TestCalculateImpliedProbability_VolatilityFloor(t *testing.T) {
	sim := NewSimulator()
	// volatility below 0.01 is floored, so zero and 0.005 price identically
	assert.Equal(t,
		sim.CalculateImpliedProbability(50100, 50000, 1, 0),
		sim.CalculateImpliedProbability(50100, 50000, 1, 0.005))
}

func TestGetContractPrices_Ordering(t *testing.T) {
	sim := NewSimulator()
	rng := rand.New(rand.NewPCG(3, 9))

	for i := 0; i < 1000; i++ {
		spot := 1000 + rng.Float64()*99000
		strike := spot * (0.9 + rng.Float64()*0.2)
		hours := rng.Float64() * 48
		vol := rng.Float64() * 0.2

		q := sim.GetContractPrices(spot, strike, hours, vol)
		require.LessOrEqual(t, q.Bid, q.Mid)
		require.LessOrEqual(t, q.Mid, q.Ask)
		require.GreaterOrEqual(t, q.Bid, 0.01)
		require.LessOrEqual(t, q.Ask, 0.99)
	}
}

func TestGetContractPrices_SpreadWidensAtUncertainty(t *testing.T) {
	sim := NewSimulator()

	atm := sim.GetContractPrices(50000, 50000, 1, 0.02)
	assert.InDelta(t, 0.04, atm.Spread(), 1e-12)
	assert.InDelta(t, 0.48, atm.Bid, 1e-12)
	assert.InDelta(t, 0.52, atm.Ask, 1e-12)

	deep := sim.GetContractPrices(60000, 50000, 1, 0.02)
	// mid 0.95, spread 0.02 * 1.1
	assert.InDelta(t, 0.022, deep.Spread(), 1e-12)
}

func TestQuote_EntryPrice(t *testing.T) {
	q := Quote{Bid: 0.4, Ask: 0.45, Mid: 0.425}

	assert.Equal(t, 0.45, q.EntryPrice(domain.SideLongYes))
	assert.Equal(t, 0.45, q.EntryPrice(domain.SideLongNo))
	assert.Equal(t, 0.4, q.EntryPrice(domain.SideShortYes))
	assert.Equal(t, 0.4, q.EntryPrice(domain.SideShortNo))
}

func TestResolveContract(t *testing.T) {
	sim := NewSimulator()

	assert.True(t, sim.ResolveContract(50000, 50000), "boundary resolves YES")
	assert.True(t, sim.ResolveContract(50001, 50000))
	assert.False(t, sim.ResolveContract(49999.99, 50000))
}

func TestCalculatePnL(t *testing.T) {
	sim := NewSimulator()

	testCases := []struct {
		name     string
		side     domain.ContractSide
		resolved bool
		expected float64
	}{
		{name: "yes wins", side: domain.SideLongYes, resolved: true, expected: (1 - 0.3) * 25},
		{name: "yes loses", side: domain.SideLongYes, resolved: false, expected: -0.3 * 25},
		{name: "no wins", side: domain.SideLongNo, resolved: false, expected: (1 - 0.3) * 25},
		{name: "no loses", side: domain.SideLongNo, resolved: true, expected: -0.3 * 25},
		{name: "short yes pays on no", side: domain.SideShortYes, resolved: false, expected: (1 - 0.3) * 25},
		{name: "short no pays on no", side: domain.SideShortNo, resolved: false, expected: (1 - 0.3) * 25},
		{name: "short yes loses on yes", side: domain.SideShortYes, resolved: true, expected: -0.3 * 25},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, sim.CalculatePnL(tc.side, 25, 0.3, tc.resolved), 1e-12)
		})
	}
}
