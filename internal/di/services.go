package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/config"
	"github.com/aristath/kalshigym/internal/dashboard"
	"github.com/aristath/kalshigym/internal/events"
	evaluationhandlers "github.com/aristath/kalshigym/internal/modules/evaluation/handlers"
	"github.com/aristath/kalshigym/internal/prices"
	"github.com/aristath/kalshigym/internal/rollout"
	"github.com/aristath/kalshigym/internal/scheduler"
)

// InitializeServices creates the event bus, the dashboard service and the
// optional evaluation and archiving services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.DashboardDB == nil {
		return fmt.Errorf("container has no dashboard database")
	}

	container.EventBus = events.NewBus(log)

	service, err := dashboard.NewService(context.Background(), dashboard.NewSQLiteStore(container.DashboardDB), container.EventBus, log)
	if err != nil {
		return fmt.Errorf("failed to create dashboard service: %w", err)
	}
	container.Dashboard = service

	container.Scheduler = scheduler.New(log)

	if cfg.PriceCSV != "" {
		series, err := prices.LoadCSV(cfg.PriceCSV)
		if err != nil {
			return fmt.Errorf("failed to load price data: %w", err)
		}
		container.PriceSeries = series
		container.Evaluation = evaluationhandlers.NewHandler(series, cfg.EnvironmentConfig(), log)
		log.Info().
			Str("path", cfg.PriceCSV).
			Int("bars", series.Len()).
			Msg("Evaluation endpoints enabled")
	}

	if cfg.S3.Enabled() {
		uploader, err := rollout.NewS3Uploader(context.Background(), cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to create S3 uploader: %w", err)
		}
		container.Archiver = rollout.NewArchiver(cfg.RolloutDir, uploader, log)
		log.Info().
			Str("bucket", cfg.S3.Bucket).
			Str("dir", cfg.RolloutDir).
			Msg("Rollout archiving enabled")
	}

	return nil
}
