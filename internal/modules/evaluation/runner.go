package evaluation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/dashboard"
	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/baselines"
	"github.com/aristath/kalshigym/internal/modules/environment"
	"github.com/aristath/kalshigym/internal/rollout"
	"github.com/aristath/kalshigym/pkg/formulas"
)

// Options configures RunEpisode. The zero value runs silently with the
// environment's current random stream.
type Options struct {
	// Seed reseeds the environment on reset when non-nil
	Seed *uint64
	// Sink receives dashboard updates; nil disables publishing
	Sink dashboard.Sink
	// PublishEvery throttles per-step portfolio and decision updates.
	// Trades and the final step are always published.
	PublishEvery int
	// Recorder receives every transition; nil disables recording
	Recorder Recorder
	RunID    string
	Episode  int
	Logger   *zerolog.Logger
}

// RunEpisode resets env and steps policy until the episode terminates or
// truncates. Sink failures never affect the result; recorder failures abort.
func RunEpisode(ctx context.Context, env *environment.Environment, policy baselines.Policy, opts Options) (EpisodeResult, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "evaluation").Str("strategy", policy.Name()).Logger()
	}
	publishEvery := opts.PublishEvery
	if publishEvery <= 0 {
		publishEvery = 1
	}

	policy.Reset()
	obs, info := env.Reset(opts.Seed)
	series := env.Series()

	result := EpisodeResult{
		Strategy:         policy.Name(),
		PortfolioHistory: []float64{info.PortfolioValue},
		ActionCounts:     make(map[string]int, domain.NumDecisions),
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		action := policy.Act(obs, info)
		step, err := env.Step(action)
		if err != nil {
			return result, fmt.Errorf("failed to step %s at %d: %w", policy.Name(), info.Step, err)
		}

		if opts.Recorder != nil {
			err := opts.Recorder.Record(rollout.Transition{
				RunID:       opts.RunID,
				Strategy:    policy.Name(),
				Episode:     opts.Episode,
				Step:        result.Steps,
				Observation: obs,
				Decision:    int(action.Decision),
				SizeTier:    int(action.SizeTier),
				Reward:      step.Reward,
				Terminated:  step.Terminated,
				Truncated:   step.Truncated,
				Info:        step.Info,
			})
			if err != nil {
				return result, fmt.Errorf("failed to record transition: %w", err)
			}
		}

		result.Steps++
		result.TotalReward += step.Reward
		result.ActionCounts[action.Decision.String()]++
		result.PortfolioHistory = append(result.PortfolioHistory, step.Info.PortfolioValue)

		done := step.Terminated || step.Truncated
		if opts.Sink != nil {
			at := series.Bar(step.Info.Step).Time
			if step.Opened != nil {
				publishTrade(ctx, opts.Sink, series, step, at)
			}
			if done || result.Steps%publishEvery == 0 {
				publishStep(ctx, opts.Sink, action, step.Info, at)
			}
		}

		obs, info = step.Observation, step.Info
		if done {
			result.Terminated = step.Terminated
			result.Truncated = step.Truncated
			break
		}
	}

	initial := env.Config().InitialBalance
	result.FinalValue = info.PortfolioValue
	result.PnL = info.PnL
	result.ReturnPct = info.PnL / initial * 100
	result.NumTrades = info.NumTrades
	result.WinRate = info.WinRate
	result.Sharpe = formulas.CalculateSharpeRatio(formulas.PeriodReturns(result.PortfolioHistory), series.Len())
	if dd := formulas.CalculateDrawdownMetrics(result.PortfolioHistory); dd != nil {
		result.MaxDrawdown = dd.MaxDrawdown
	}

	log.Info().
		Int("steps", result.Steps).
		Float64("final_value", result.FinalValue).
		Float64("return_pct", result.ReturnPct).
		Int("trades", result.NumTrades).
		Msg("Episode complete")

	return result, nil
}

func publishStep(ctx context.Context, sink dashboard.Sink, action domain.Action, info environment.Info, at time.Time) {
	sink.PublishDecision(ctx, dashboard.Decision{
		Action:    action.Decision.String(),
		Size:      action.SizeTier.Contracts(),
		Timestamp: at,
	})
	sink.PublishPortfolioValue(ctx, dashboard.PortfolioPoint{Step: info.Step, Value: info.PortfolioValue})
	sink.PublishPortfolio(ctx, dashboard.Portfolio{
		Balance:     info.Balance,
		PnL:         info.PnL,
		TotalTrades: info.NumTrades,
		WinRate:     info.WinRate,
	})
}

func publishTrade(ctx context.Context, sink dashboard.Sink, series *domain.PriceSeries, step environment.StepResult, at time.Time) {
	pos := step.Opened
	ticker := contractTicker(pos)

	sink.PublishTrade(ctx, dashboard.Trade{
		Timestamp: at,
		Ticker:    ticker,
		Side:      tradeSide(pos.Side),
		Action:    tradeAction(pos.Side),
		Size:      pos.Size,
		Price:     pos.EntryPrice,
		Cost:      pos.Cost(),
	})

	if step.Quote == nil {
		return
	}
	expiry := pos.ExpiryStep
	if expiry > series.Len()-1 {
		expiry = series.Len() - 1
	}
	sink.PublishMarkets(ctx, []dashboard.Market{{
		Ticker:    ticker,
		Strike:    pos.Strike,
		YesBid:    step.Quote.Bid,
		YesAsk:    step.Quote.Ask,
		CloseTime: series.Bar(expiry).Time,
	}})
}

func contractTicker(pos *domain.Position) string {
	return fmt.Sprintf("SIM-%d-T%.0f", pos.EntryStep, pos.Strike)
}

// tradeSide is the contract leg traded: yes or no
func tradeSide(side domain.ContractSide) string {
	if side == domain.SideLongYes || side == domain.SideShortYes {
		return "yes"
	}
	return "no"
}

func tradeAction(side domain.ContractSide) string {
	if side.EntersAtAsk() {
		return "buy"
	}
	return "sell"
}

// Compare runs every policy on its own environment over series, all seeded
// with cfg.Seed so they face the same strikes. Results are sorted by return,
// best first. Nothing is published to opts.Sink.
func Compare(ctx context.Context, series *domain.PriceSeries, cfg environment.Config, policies []baselines.Policy, opts Options) ([]EpisodeResult, error) {
	results := make([]EpisodeResult, 0, len(policies))

	for i, policy := range policies {
		env, err := environment.New(series, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create environment: %w", err)
		}

		seed := cfg.Seed
		runOpts := opts
		runOpts.Seed = &seed
		runOpts.Sink = nil
		runOpts.Episode = opts.Episode + i

		result, err := RunEpisode(ctx, env, policy, runOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", policy.Name(), err)
		}
		results = append(results, result)
	}

	SortByReturn(results)
	return results, nil
}

// SortByReturn orders results by return descending, ties by strategy name
func SortByReturn(results []EpisodeResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ReturnPct != results[j].ReturnPct {
			return results[i].ReturnPct > results[j].ReturnPct
		}
		return strings.Compare(results[i].Strategy, results[j].Strategy) < 0
	})
}
