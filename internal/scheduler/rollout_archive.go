package scheduler

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/events"
)

// RolloutArchiver uploads completed rollout files
type RolloutArchiver interface {
	ArchivePending(ctx context.Context) ([]string, error)
	Bucket() string
}

// RolloutArchiveJob uploads pending rollout files to object storage
type RolloutArchiveJob struct {
	log      zerolog.Logger
	archiver RolloutArchiver
	bus      *events.Bus
	timeout  time.Duration
}

// NewRolloutArchiveJob creates a new RolloutArchiveJob. bus may be nil.
func NewRolloutArchiveJob(archiver RolloutArchiver, bus *events.Bus) *RolloutArchiveJob {
	return &RolloutArchiveJob{
		log:      zerolog.Nop(),
		archiver: archiver,
		bus:      bus,
		timeout:  10 * time.Minute,
	}
}

// SetLogger sets the logger for the job
func (j *RolloutArchiveJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RolloutArchiveJob) Name() string {
	return "rollout_archive"
}

// Run uploads every pending rollout. Files archived before a failure are
// still reported.
func (j *RolloutArchiveJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	keys, err := j.archiver.ArchivePending(ctx)
	for _, key := range keys {
		if j.bus != nil {
			j.bus.Publish("scheduler", &events.RolloutArchivedData{
				File:   path.Base(key),
				Bucket: j.archiver.Bucket(),
				Key:    key,
			})
		}
	}
	if err != nil {
		if j.bus != nil {
			j.bus.Publish("scheduler", &events.ErrorEventData{Error: err.Error(), Context: j.Name()})
		}
		return fmt.Errorf("failed to archive rollouts: %w", err)
	}

	j.log.Info().Int("archived", len(keys)).Msg("Rollout archive completed")
	return nil
}
