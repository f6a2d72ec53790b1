package environment

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/features"
	testingpkg "github.com/aristath/kalshigym/internal/testing"
)

func geometricCloses(start, growth float64, n int) []float64 {
	out := make([]float64, n)
	price := start
	for i := range out {
		out[i] = price
		price *= growth
	}
	return out
}

func newTestEnv(t *testing.T, closes []float64, mutate func(*Config)) *Environment {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := New(testingpkg.NewSeriesFromCloses(t, closes), cfg, WithLogger(zerolog.New(nil).Level(zerolog.Disabled)))
	require.NoError(t, err)
	return env
}

var (
	hold     = domain.Action{Decision: domain.DecisionHold, SizeTier: 0}
	buyYes25 = domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 2}
)

func TestNew_Validation(t *testing.T) {
	t.Run("series shorter than lookback plus one step", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := New(testingpkg.NewSeriesFromCloses(t, testingpkg.ConstantCloses(100, 25)), cfg)
		assert.ErrorIs(t, err, domain.ErrSeriesTooShort)
	})

	t.Run("nil series", func(t *testing.T) {
		_, err := New(nil, DefaultConfig())
		assert.ErrorIs(t, err, domain.ErrEmptySeries)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Reward = "aggressive"
		_, err := New(testingpkg.NewSeriesFromCloses(t, testingpkg.ConstantCloses(100, 30)), cfg)
		assert.Error(t, err)
	})
}

func TestReset_InitialState(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), nil)

	obs, info := env.Reset(nil)
	require.Len(t, obs, features.StateSize)

	assert.Equal(t, features.DefaultLookbackWindow, info.Step)
	assert.Equal(t, DefaultInitialBalance, info.Balance)
	assert.Equal(t, DefaultInitialBalance, info.PortfolioValue)
	assert.Equal(t, 0, info.NumPositions)
	assert.Equal(t, 0, info.NumTrades)
	assert.Equal(t, 0.5, info.WinRate)
	assert.Equal(t, 0.0, info.PnL)

	assert.InDelta(t, 0.5, obs[features.SlotPrice], 1e-6)
	assert.InDelta(t, 1.0, obs[features.SlotPortfolioValue], 1e-6)
	assert.InDelta(t, 0.5, obs[features.SlotWinRate], 1e-6)
	assert.InDelta(t, 0.0, obs[features.SlotHourOfDay], 1e-6, "bar 24 is midnight")

	state, ok := env.State()
	require.True(t, ok)
	assert.Equal(t, []float64{DefaultInitialBalance}, state.PortfolioValues)
	assert.Equal(t, DefaultInitialBalance, state.MaxValue)
}

func TestStep_Errors(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), nil)

	_, err := env.Step(hold)
	assert.ErrorIs(t, err, domain.ErrEpisodeNotReady)

	env.Reset(nil)
	_, err = env.Step(domain.Action{Decision: 7, SizeTier: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
	_, err = env.Step(domain.Action{Decision: domain.DecisionBuyNo, SizeTier: 9})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestStep_HoldUnderShapedReward(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), func(c *Config) { c.Reward = RewardShaped })
	env.Reset(nil)

	res, err := env.Step(hold)
	require.NoError(t, err)

	assert.InDelta(t, -2.0, res.Reward, 1e-12)
	assert.Equal(t, 0, res.Info.NumTrades)
	assert.Nil(t, res.Opened)
	assert.False(t, res.Rejected)
	assert.False(t, res.Terminated)
}

func TestStep_HoldUnderBaselineReward(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), nil)
	env.Reset(nil)

	res, err := env.Step(hold)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Reward)
}

func TestStep_ZeroSizeTierIsHold(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), nil)
	env.Reset(nil)

	res, err := env.Step(domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 0})
	require.NoError(t, err)
	assert.Nil(t, res.Opened)
	assert.Equal(t, DefaultInitialBalance, res.Info.Balance)
}

func TestStep_BuyYesDebitsAsk(t *testing.T) {
	// a two-step horizon keeps the position open after the step so the debit is visible
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), func(c *Config) { c.ContractHorizon = 2 })
	_, before := env.Reset(nil)

	res, err := env.Step(buyYes25)
	require.NoError(t, err)
	require.NotNil(t, res.Opened)

	ask := res.Opened.EntryPrice
	assert.GreaterOrEqual(t, ask, 0.01)
	assert.LessOrEqual(t, ask, 0.99)
	assert.Equal(t, 25, res.Opened.Size)
	assert.Equal(t, domain.SideLongYes, res.Opened.Side)
	assert.Equal(t, res.Opened.EntryStep+2, res.Opened.ExpiryStep)

	assert.InDelta(t, before.Balance-ask*25, res.Info.Balance, 1e-9)
	assert.Equal(t, 1, res.Info.NumPositions)
	assert.InDelta(t, ask*25*0.5, res.Info.UnrealizedPnL, 1e-9)
	assert.InDelta(t, -0.05, res.Reward, 1e-12)
	assert.Empty(t, res.Resolved)

	// expires one step later
	res, err = env.Step(hold)
	require.NoError(t, err)
	require.Len(t, res.Resolved, 1)
	assert.Equal(t, 0, res.Info.NumPositions)
	assert.Equal(t, 1, res.Info.NumTrades)
}

func TestStep_SingleStepContractSettlesImmediately(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), nil)
	_, before := env.Reset(nil)

	res, err := env.Step(buyYes25)
	require.NoError(t, err)
	require.NotNil(t, res.Opened)
	require.Len(t, res.Resolved, 1)

	ask := res.Opened.EntryPrice
	pnl := res.Resolved[0].PnL
	if 50000 >= res.Opened.Strike {
		assert.InDelta(t, (1-ask)*25, pnl, 1e-9)
	} else {
		assert.InDelta(t, -ask*25, pnl, 1e-9)
	}

	// balance - cost + (cost + pnl)
	assert.InDelta(t, before.Balance+pnl, res.Info.Balance, 1e-9)
	assert.Equal(t, 0.0, res.Info.UnrealizedPnL)
}

func TestStep_InsufficientFunds(t *testing.T) {
	testCases := []struct {
		name     string
		policy   FundsPolicy
		expected float64
	}{
		{name: "penalize", policy: FundsPenalize, expected: -1.0},
		{name: "skip", policy: FundsSkip, expected: 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), func(c *Config) {
				c.InitialBalance = 1
				c.RiskFloor = 0
				c.FundsPolicy = tc.policy
			})
			env.Reset(nil)

			res, err := env.Step(domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 4})
			require.NoError(t, err)

			assert.True(t, res.Rejected)
			assert.True(t, errors.Is(res.RejectReason, domain.ErrInsufficientFunds))
			assert.Nil(t, res.Opened)
			assert.Equal(t, 1.0, res.Info.Balance)
			assert.Equal(t, 0, res.Info.NumPositions)
			assert.InDelta(t, tc.expected, res.Reward, 1e-12)
		})
	}
}

func TestEpisode_BalanceNeverNegative(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 50000 + 2000*math.Sin(float64(i)/5)
	}
	env := newTestEnv(t, closes, func(c *Config) {
		c.InitialBalance = 500
		c.RiskFloor = 0
	})
	env.Reset(nil)

	actions := []domain.Action{
		{Decision: domain.DecisionBuyYes, SizeTier: 4},
		{Decision: domain.DecisionBuyNo, SizeTier: 4},
		{Decision: domain.DecisionSellYes, SizeTier: 3},
		{Decision: domain.DecisionSellNo, SizeTier: 4},
	}

	for i := 0; ; i++ {
		res, err := env.Step(actions[i%len(actions)])
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Info.Balance, 0.0, "step %d", res.Info.Step)
		if res.Terminated {
			break
		}
	}
}

func TestEpisode_TerminatesAtRiskFloor(t *testing.T) {
	// prices fall 6% per bar, so every YES strike (within 5% of spot) loses
	closes := geometricCloses(50000, 0.94, 60)
	env := newTestEnv(t, closes, func(c *Config) { c.InitialBalance = 200 })
	env.Reset(nil)

	floor := DefaultRiskFloor * 200
	action := domain.Action{Decision: domain.DecisionBuyYes, SizeTier: 4}

	var res StepResult
	var err error
	for {
		res, err = env.Step(action)
		require.NoError(t, err)
		if res.Terminated {
			break
		}
		require.Greater(t, res.Info.PortfolioValue, floor, "still running below the floor at step %d", res.Info.Step)
	}

	assert.LessOrEqual(t, res.Info.PortfolioValue, floor)
	assert.Less(t, res.Info.Step, len(closes)-1, "ruin stop, not end of data")

	state, _ := env.State()
	assert.True(t, state.TerminatedByRuin)

	_, err = env.Step(hold)
	assert.ErrorIs(t, err, domain.ErrEpisodeTerminated)
}

func TestEpisode_TerminatesAtEndOfData(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), nil)
	env.Reset(nil)

	steps := 0
	for {
		res, err := env.Step(hold)
		require.NoError(t, err)
		steps++
		if res.Terminated {
			assert.Equal(t, 29, res.Info.Step)
			break
		}
	}
	assert.Equal(t, 5, steps)
}

func TestEpisode_Truncation(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 40), func(c *Config) { c.MaxEpisodeSteps = 3 })
	env.Reset(nil)

	for i := 0; i < 2; i++ {
		res, err := env.Step(hold)
		require.NoError(t, err)
		assert.False(t, res.Truncated)
	}
	res, err := env.Step(hold)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.False(t, res.Terminated)

	_, err = env.Step(hold)
	assert.ErrorIs(t, err, domain.ErrEpisodeTerminated)
}

func TestEpisode_MonotonicSeriesYesProfits(t *testing.T) {
	// 6% per bar clears every strike drawn within 5% of spot
	closes := geometricCloses(20000, 1.06, 70)
	env := newTestEnv(t, closes, nil)
	env.Reset(nil)

	total := 0.0
	for i := 0; i < 40; i++ {
		res, err := env.Step(buyYes25)
		require.NoError(t, err)
		for _, trade := range res.Resolved {
			assert.GreaterOrEqual(t, trade.PnL, 0.0)
			total += trade.PnL
		}
		if res.Terminated {
			break
		}
	}

	assert.Greater(t, total, 0.0)
	state, _ := env.State()
	assert.Len(t, state.Trades, 40)
}

func TestReset_SeedReproducesEpisode(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 40000 + 500*math.Cos(float64(i))
	}

	run := func(env *Environment, seed uint64) []float64 {
		env.Reset(&seed)
		var strikes []float64
		for {
			res, err := env.Step(buyYes25)
			require.NoError(t, err)
			if res.Opened != nil {
				strikes = append(strikes, res.Opened.Strike)
			}
			if res.Terminated {
				return strikes
			}
		}
	}

	a := newTestEnv(t, closes, nil)
	b := newTestEnv(t, closes, nil)
	assert.Equal(t, run(a, 11), run(b, 11))
	assert.Equal(t, run(a, 11), run(a, 11), "reseeding replays the episode")
}

func TestStep_ObservationTracksPositions(t *testing.T) {
	env := newTestEnv(t, testingpkg.ConstantCloses(50000, 30), func(c *Config) { c.ContractHorizon = 3 })
	env.Reset(nil)

	res, err := env.Step(buyYes25)
	require.NoError(t, err)
	require.NotNil(t, res.Opened)

	assert.InDelta(t, 0.1, res.Observation[features.SlotNumPositions], 1e-6)
	assert.InDelta(t, res.Opened.Cost()/1000, res.Observation[features.SlotExposure], 1e-6)
	assert.InDelta(t, res.Info.PortfolioValue/10000, res.Observation[features.SlotPortfolioValue], 1e-6)
}
