// Package baselines provides rule-based policies used as comparison points
// for trained agents.
package baselines

import (
	"math/rand/v2"
	"strings"

	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/environment"
	"github.com/aristath/kalshigym/internal/modules/features"
)

// Policy chooses an action from an observation
type Policy interface {
	Name() string
	Act(obs []float32, info environment.Info) domain.Action
	// Reset clears per-episode memory
	Reset()
}

var holdAction = domain.Action{Decision: domain.DecisionHold, SizeTier: 0}

// HoldOnly never trades
type HoldOnly struct{}

func (HoldOnly) Name() string { return "Hold Only" }

func (HoldOnly) Act([]float32, environment.Info) domain.Action { return holdAction }

func (HoldOnly) Reset() {}

// Random draws decision and size tier uniformly
type Random struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandom creates a seeded random policy
func NewRandom(seed uint64) *Random {
	return &Random{seed: seed, rng: rand.New(rand.NewPCG(seed, seed))}
}

func (r *Random) Name() string { return "Random" }

func (r *Random) Act([]float32, environment.Info) domain.Action {
	return domain.Action{
		Decision: domain.Decision(r.rng.IntN(domain.NumDecisions)),
		SizeTier: domain.SizeTier(r.rng.IntN(domain.NumSizeTiers)),
	}
}

// Reset rewinds the random stream so every episode sees the same draws
func (r *Random) Reset() {
	r.rng = rand.New(rand.NewPCG(r.seed, r.seed))
}

// AlwaysBuyYes buys 25 YES contracts every step
type AlwaysBuyYes struct{}

func (AlwaysBuyYes) Name() string { return "Always Buy YES" }

func (AlwaysBuyYes) Act([]float32, environment.Info) domain.Action {
	return domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 2}
}

func (AlwaysBuyYes) Reset() {}

// BuyAndHold buys 50 YES contracts on the first step and holds afterwards
type BuyAndHold struct {
	bought bool
}

func (b *BuyAndHold) Name() string { return "Buy and Hold" }

func (b *BuyAndHold) Act([]float32, environment.Info) domain.Action {
	if b.bought {
		return holdAction
	}
	b.bought = true
	return domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 3}
}

func (b *BuyAndHold) Reset() { b.bought = false }

// Momentum buys YES after a rise of more than 0.1% in the observed price and
// NO after a fall of more than 0.1%. It holds on the first step.
type Momentum struct {
	prev    float32
	hasPrev bool
}

const momentumThreshold = 0.001

func (m *Momentum) Name() string { return "Momentum" }

func (m *Momentum) Act(obs []float32, _ environment.Info) domain.Action {
	var price float32
	if len(obs) > features.SlotPrice {
		price = obs[features.SlotPrice]
	}

	if !m.hasPrev {
		m.prev, m.hasPrev = price, true
		return holdAction
	}

	action := holdAction
	switch {
	case price > m.prev*(1+momentumThreshold):
		action = domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 2}
	case price < m.prev*(1-momentumThreshold):
		action = domain.Action{Decision: domain.DecisionBuyNo, SizeTier: 2}
	}

	m.prev = price
	return action
}

func (m *Momentum) Reset() {
	m.prev, m.hasPrev = 0, false
}

// All returns one fresh instance of every baseline
func All(seed uint64) []Policy {
	return []Policy{
		HoldOnly{},
		NewRandom(seed),
		AlwaysBuyYes{},
		&BuyAndHold{},
		&Momentum{},
	}
}

// Key returns the lookup key of a policy name: lower case, words joined by "_"
func Key(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Lookup returns a fresh instance of the baseline whose Key matches key
func Lookup(key string, seed uint64) (Policy, bool) {
	key = Key(key)
	for _, p := range All(seed) {
		if Key(p.Name()) == key {
			return p, true
		}
	}
	return nil, false
}
