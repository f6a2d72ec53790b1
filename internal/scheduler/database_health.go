package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/database"
)

// walWarnFrames is the WAL size above which a warning is logged
const walWarnFrames = 1000

// DatabaseHealthJob runs an integrity check and reports WAL checkpoint status
type DatabaseHealthJob struct {
	log     zerolog.Logger
	db      *database.DB
	timeout time.Duration
}

// NewDatabaseHealthJob creates a new DatabaseHealthJob
func NewDatabaseHealthJob(db *database.DB) *DatabaseHealthJob {
	return &DatabaseHealthJob{
		log:     zerolog.Nop(),
		db:      db,
		timeout: 30 * time.Second,
	}
}

// SetLogger sets the logger for the job
func (j *DatabaseHealthJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *DatabaseHealthJob) Name() string {
	return "database_health"
}

// Run checks the database. A failed integrity check is returned; WAL status
// is only logged.
func (j *DatabaseHealthJob) Run() error {
	if j.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return err
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, log, checkpointed int
	err := j.db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &log, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if log > walWarnFrames {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", log).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", log).
			Msg("Database health OK")
	}
	return nil
}
