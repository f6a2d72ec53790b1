package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/config"
	"github.com/aristath/kalshigym/internal/database"
)

// InitializeDatabases opens dashboard.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	dashboardDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "dashboard",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dashboard database: %w", err)
	}

	if err := dashboardDB.Migrate(context.Background()); err != nil {
		dashboardDB.Close()
		return nil, fmt.Errorf("failed to migrate dashboard database: %w", err)
	}
	container.DashboardDB = dashboardDB

	log.Info().Str("path", dashboardDB.Path()).Msg("Dashboard database initialized")
	return container, nil
}
