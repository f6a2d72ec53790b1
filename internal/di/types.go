// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/kalshigym/internal/dashboard"
	"github.com/aristath/kalshigym/internal/database"
	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/events"
	evaluationhandlers "github.com/aristath/kalshigym/internal/modules/evaluation/handlers"
	"github.com/aristath/kalshigym/internal/rollout"
	"github.com/aristath/kalshigym/internal/scheduler"
)

// Container holds all dependencies for the dashboard server.
// Optional members are nil when their feature is not configured.
type Container struct {
	// Databases
	DashboardDB *database.DB

	// Services
	EventBus  *events.Bus
	Dashboard *dashboard.Service
	Scheduler *scheduler.Scheduler

	// Optional: set when PRICE_CSV is configured
	PriceSeries *domain.PriceSeries
	Evaluation  *evaluationhandlers.Handler

	// Optional: set when S3 archiving is configured
	Archiver *rollout.Archiver
}

// JobInstances holds references to the registered jobs for manual triggering
type JobInstances struct {
	HistoryRetention *scheduler.HistoryRetentionJob
	DatabaseHealth   *scheduler.DatabaseHealthJob
	RolloutArchive   *scheduler.RolloutArchiveJob // nil without S3
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c == nil || c.DashboardDB == nil {
		return nil
	}
	return c.DashboardDB.Close()
}
