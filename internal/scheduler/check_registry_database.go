package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/database"
)

const (
	registryCheckTimeout = 30 * time.Second
	// WAL frames above which a checkpoint is forced
	walFrameThreshold = 1000
)

// CheckRegistryDatabaseJob verifies integrity of the sqlite registry and keeps its WAL small
type CheckRegistryDatabaseJob struct {
	JobBase
	db *database.DB
}

// NewCheckRegistryDatabaseJob creates a new CheckRegistryDatabaseJob. db may be nil when the registry uses the JSON backend.
func NewCheckRegistryDatabaseJob(db *database.DB) *CheckRegistryDatabaseJob {
	return &CheckRegistryDatabaseJob{
		JobBase: JobBase{log: zerolog.Nop()},
		db:      db,
	}
}

// Name returns the job name
func (j *CheckRegistryDatabaseJob) Name() string {
	return "check_registry_database"
}

// Run executes the check
func (j *CheckRegistryDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Debug().Msg("Registry database not initialized, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), registryCheckTimeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		// Corruption cannot be auto-recovered
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Registry database integrity check failed")
		return fmt.Errorf("registry database is unhealthy: %w", err)
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > walFrameThreshold {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	}

	stats, err := j.db.GetStats()
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to read registry database stats")
		return nil
	}

	j.log.Info().
		Str("database", j.db.Name()).
		Int("wal_frames", frames).
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Int64("page_count", stats.PageCount).
		Msg("Registry database OK")
	return nil
}
