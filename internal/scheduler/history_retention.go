package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryPruner trims dashboard history
type HistoryPruner interface {
	PruneHistory(ctx context.Context, keep int) (int, error)
}

// HistoryRetentionJob keeps the dashboard value history bounded
type HistoryRetentionJob struct {
	log     zerolog.Logger
	pruner  HistoryPruner
	keep    int
	timeout time.Duration
}

// NewHistoryRetentionJob creates a job keeping the latest keep history points
func NewHistoryRetentionJob(pruner HistoryPruner, keep int) *HistoryRetentionJob {
	return &HistoryRetentionJob{
		log:     zerolog.Nop(),
		pruner:  pruner,
		keep:    keep,
		timeout: 30 * time.Second,
	}
}

// SetLogger sets the logger for the job
func (j *HistoryRetentionJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *HistoryRetentionJob) Name() string {
	return "history_retention"
}

// Run prunes the history
func (j *HistoryRetentionJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.pruner.PruneHistory(ctx, j.keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	j.log.Debug().Int("removed", removed).Int("keep", j.keep).Msg("History retention completed")
	return nil
}
