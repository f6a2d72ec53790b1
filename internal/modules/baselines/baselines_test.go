package baselines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/environment"
	"github.com/aristath/kalshigym/internal/modules/features"
)

func obsWithPrice(p float32) []float32 {
	obs := make([]float32, features.StateSize)
	obs[features.SlotPrice] = p
	return obs
}

func TestHoldOnly(t *testing.T) {
	a := HoldOnly{}.Act(obsWithPrice(0.5), environment.Info{})
	assert.True(t, a.IsHold())
}

func TestAlwaysBuyYes(t *testing.T) {
	a := AlwaysBuyYes{}.Act(nil, environment.Info{})
	assert.Equal(t, domain.DecisionBuyYes, a.Decision)
	assert.Equal(t, 25, a.SizeTier.Contracts())
}

func TestBuyAndHold(t *testing.T) {
	p := &BuyAndHold{}

	first := p.Act(nil, environment.Info{})
	assert.Equal(t, domain.DecisionBuyYes, first.Decision)
	assert.Equal(t, 50, first.SizeTier.Contracts())

	for i := 0; i < 5; i++ {
		assert.True(t, p.Act(nil, environment.Info{}).IsHold())
	}

	p.Reset()
	assert.Equal(t, domain.DecisionBuyYes, p.Act(nil, environment.Info{}).Decision)
}

func TestMomentum(t *testing.T) {
	testCases := []struct {
		name     string
		prices   []float32
		expected domain.Decision
	}{
		{name: "first step holds", prices: []float32{0.5}, expected: domain.DecisionHold},
		{name: "rise buys yes", prices: []float32{0.5, 0.51}, expected: domain.DecisionBuyYes},
		{name: "fall buys no", prices: []float32{0.5, 0.49}, expected: domain.DecisionBuyNo},
		{name: "flat holds", prices: []float32{0.5, 0.5002}, expected: domain.DecisionHold},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Momentum{}
			var a domain.Action
			for _, price := range tc.prices {
				a = p.Act(obsWithPrice(price), environment.Info{})
			}
			assert.Equal(t, tc.expected, a.Decision)
		})
	}
}

func TestRandom_ValidAndReproducible(t *testing.T) {
	p := NewRandom(5)

	var first []domain.Action
	for i := 0; i < 200; i++ {
		a := p.Act(nil, environment.Info{})
		assert.NoError(t, a.Validate())
		first = append(first, a)
	}

	p.Reset()
	for i := 0; i < 200; i++ {
		assert.Equal(t, first[i], p.Act(nil, environment.Info{}))
	}
}

func TestAll(t *testing.T) {
	names := map[string]bool{}
	for _, p := range All(1) {
		names[p.Name()] = true
	}
	assert.Len(t, names, 5)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{key: "hold_only", expected: "Hold Only"},
		{key: "Random", expected: "Random"},
		{key: "always buy yes", expected: "Always Buy YES"},
		{key: "buy_and_hold", expected: "Buy and Hold"},
		{key: "momentum", expected: "Momentum"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, ok := Lookup(tt.key, 1)
			require.True(t, ok)
			assert.Equal(t, tt.expected, p.Name())
		})
	}

	_, ok := Lookup("martingale", 1)
	assert.False(t, ok)
}
