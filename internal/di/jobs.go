package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/config"
	"github.com/aristath/kalshigym/internal/scheduler"
)

// Job schedules (cron with seconds)
const (
	HistoryRetentionSchedule = "@hourly"
	DatabaseHealthSchedule   = "0 */10 * * * *"
	RolloutArchiveSchedule   = "0 */15 * * * *"
)

// RegisterJobs registers the maintenance jobs with the container's scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if container.Scheduler == nil {
		return nil, fmt.Errorf("container has no scheduler")
	}

	instances := &JobInstances{}

	historyRetention := scheduler.NewHistoryRetentionJob(container.Dashboard, cfg.HistoryRetention)
	historyRetention.SetLogger(log)
	if err := container.Scheduler.AddJob(HistoryRetentionSchedule, historyRetention); err != nil {
		return nil, fmt.Errorf("failed to register history_retention job: %w", err)
	}
	instances.HistoryRetention = historyRetention

	databaseHealth := scheduler.NewDatabaseHealthJob(container.DashboardDB)
	databaseHealth.SetLogger(log)
	if err := container.Scheduler.AddJob(DatabaseHealthSchedule, databaseHealth); err != nil {
		return nil, fmt.Errorf("failed to register database_health job: %w", err)
	}
	instances.DatabaseHealth = databaseHealth

	if container.Archiver != nil {
		rolloutArchive := scheduler.NewRolloutArchiveJob(container.Archiver, container.EventBus)
		rolloutArchive.SetLogger(log)
		if err := container.Scheduler.AddJob(RolloutArchiveSchedule, rolloutArchive); err != nil {
			return nil, fmt.Errorf("failed to register rollout_archive job: %w", err)
		}
		instances.RolloutArchive = rolloutArchive
	}

	log.Info().Int("jobs", container.Scheduler.Entries()).Msg("Jobs registered")
	return instances, nil
}
