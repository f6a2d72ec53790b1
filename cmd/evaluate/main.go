// Command evaluate runs the rule-based baselines over a historical price
// file and prints a comparison table. With -strategy it runs one policy
// episode by episode, streaming to the dashboard when DASHBOARD_URL is set.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/config"
	"github.com/aristath/kalshigym/internal/dashboard"
	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/baselines"
	"github.com/aristath/kalshigym/internal/modules/environment"
	"github.com/aristath/kalshigym/internal/modules/evaluation"
	"github.com/aristath/kalshigym/internal/prices"
	"github.com/aristath/kalshigym/internal/rollout"
	"github.com/aristath/kalshigym/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	dataPath := flag.String("data", cfg.PriceCSV, "price CSV (defaults to PRICE_CSV)")
	testOnly := flag.Bool("test-split", false, "evaluate on the held-out test partition only")
	strategy := flag.String("strategy", "", "run a single strategy (e.g. momentum) instead of comparing all")
	episodes := flag.Int("episodes", 1, "episodes to run with -strategy")
	record := flag.Bool("record", false, "record transitions to ROLLOUT_DIR")
	jsonOut := flag.Bool("json", false, "print results as JSON")
	flag.Parse()

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, runOptions{
		dataPath: *dataPath,
		testOnly: *testOnly,
		strategy: *strategy,
		episodes: *episodes,
		record:   *record,
		jsonOut:  *jsonOut,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("Evaluation interrupted")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("Evaluation failed")
	}
}

type runOptions struct {
	dataPath string
	testOnly bool
	strategy string
	episodes int
	record   bool
	jsonOut  bool
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts runOptions) error {
	if opts.dataPath == "" {
		return fmt.Errorf("no price data: pass -data or set PRICE_CSV")
	}

	series, err := prices.LoadCSV(opts.dataPath)
	if err != nil {
		return err
	}
	if opts.testOnly {
		parts, err := prices.Split(series, prices.DefaultTrainFraction, prices.DefaultValidationFraction)
		if err != nil {
			return err
		}
		series = parts.Test
	}
	log.Info().Str("path", opts.dataPath).Int("bars", series.Len()).Msg("Price data loaded")

	envCfg := cfg.EnvironmentConfig()

	runID := uuid.New().String()
	evalOpts := evaluation.Options{
		RunID:  runID,
		Logger: &log,
	}

	if opts.record {
		recorder, err := rollout.NewRecorder(cfg.RolloutDir, runID)
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close rollout file")
				return
			}
			log.Info().
				Str("path", recorder.Path()).
				Int("transitions", recorder.Count()).
				Msg("Rollout recorded")
		}()
		evalOpts.Recorder = recorder
	}

	var results []evaluation.EpisodeResult
	if opts.strategy != "" {
		results, err = runStrategy(ctx, cfg, log, series, envCfg, opts, evalOpts)
	} else {
		results, err = evaluation.Compare(ctx, series, envCfg, baselines.All(envCfg.Seed), evalOpts)
	}
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 1 {
		return evaluation.WriteSummary(os.Stdout, results[0])
	}
	return evaluation.WriteTable(os.Stdout, results)
}

// runStrategy runs consecutive episodes of one policy on a single
// environment. Only the first episode is explicitly seeded.
func runStrategy(ctx context.Context, cfg *config.Config, log zerolog.Logger, series *domain.PriceSeries, envCfg environment.Config, opts runOptions, evalOpts evaluation.Options) ([]evaluation.EpisodeResult, error) {
	policy, ok := baselines.Lookup(opts.strategy, envCfg.Seed)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", opts.strategy)
	}

	env, err := environment.New(series, envCfg)
	if err != nil {
		return nil, err
	}

	if cfg.DashboardURL != "" {
		evalOpts.Sink = dashboard.NewHTTPPublisher(cfg.DashboardURL, cfg.DashboardTimeout, log)
		evalOpts.PublishEvery = 10
		log.Info().Str("url", cfg.DashboardURL).Msg("Publishing to dashboard")
	}

	episodes := opts.episodes
	if episodes <= 0 {
		episodes = 1
	}

	results := make([]evaluation.EpisodeResult, 0, episodes)
	for ep := 0; ep < episodes; ep++ {
		evalOpts.Episode = ep
		evalOpts.Seed = nil
		if ep == 0 {
			seed := envCfg.Seed
			evalOpts.Seed = &seed
		}

		result, err := evaluation.RunEpisode(ctx, env, policy, evalOpts)
		if err != nil {
			return nil, err
		}
		log.Info().
			Int("episode", ep).
			Float64("return_pct", result.ReturnPct).
			Int("trades", result.NumTrades).
			Msg("Episode complete")
		results = append(results, result)
	}

	return results, nil
}
