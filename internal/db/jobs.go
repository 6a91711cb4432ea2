package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/models"
)

// ErrJobNotPending is returned when a parameter update loses the race with
// worker pickup: the job existed but was no longer pending at update time.
var ErrJobNotPending = errors.New("job is not pending")

const jobColumns = `
	id, user_id, voice_model_id, text_content, text_hash,
	speed, pitch, volume, output_format, sample_rate,
	status, cache_hit, cached_result_id, output_path, duration_ms,
	error_message, created_at, updated_at, completed_at
`

func scanJob(row interface{ Scan(...interface{}) error }) (*models.SynthesisJob, error) {
	job := &models.SynthesisJob{}
	err := row.Scan(
		&job.ID, &job.UserID, &job.VoiceModelID, &job.TextContent, &job.TextHash,
		&job.Speed, &job.Pitch, &job.Volume, &job.OutputFormat, &job.SampleRate,
		&job.Status, &job.CacheHit, &job.CachedResultID, &job.OutputPath, &job.DurationMs,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (db *DB) CreateSynthesisJob(ctx context.Context, job *models.SynthesisJob) error {
	query := `
		INSERT INTO synthesis_jobs (
			id, user_id, voice_model_id, text_content, text_hash,
			speed, pitch, volume, output_format, sample_rate,
			status, cache_hit, cached_result_id, output_path, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		job.ID, job.UserID, job.VoiceModelID, job.TextContent, job.TextHash,
		job.Speed, job.Pitch, job.Volume, job.OutputFormat, job.SampleRate,
		job.Status, job.CacheHit, job.CachedResultID, job.OutputPath, job.CompletedAt,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
}

// FindJob looks up a synthesis job by its string ID. An unknown or malformed
// ID returns (nil, nil) — absence is a normal result, not an error. This is
// the contract the output-file resolver depends on.
func (db *DB) FindJob(ctx context.Context, jobID string) (*models.SynthesisJob, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, nil
	}

	query := `SELECT ` + jobColumns + ` FROM synthesis_jobs WHERE id = $1`

	job, err := scanJob(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get synthesis job: %w", err)
	}

	return job, nil
}

// FindCacheEntry looks up a cache entry by ID, returning (nil, nil) when the
// entry does not exist (e.g. evicted since the job recorded it).
func (db *DB) FindCacheEntry(ctx context.Context, cacheID string) (*models.CacheEntry, error) {
	query := `
		SELECT
			id, text_hash, voice_model_id, output_path, duration_ms,
			hit_count, last_accessed_at, created_at
		FROM cache_entries
		WHERE id = $1
	`

	entry := &models.CacheEntry{}
	err := db.QueryRowContext(ctx, query, cacheID).Scan(
		&entry.ID, &entry.TextHash, &entry.VoiceModelID, &entry.OutputPath,
		&entry.DurationMs, &entry.HitCount, &entry.LastAccessedAt, &entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return entry, nil
}

// FindCacheEntryByKey looks up a reusable output for a (text_hash, voice)
// pair at job-creation time. Same (nil, nil) not-found convention.
func (db *DB) FindCacheEntryByKey(ctx context.Context, textHash, voiceModelID string) (*models.CacheEntry, error) {
	query := `
		SELECT
			id, text_hash, voice_model_id, output_path, duration_ms,
			hit_count, last_accessed_at, created_at
		FROM cache_entries
		WHERE text_hash = $1 AND voice_model_id = $2
	`

	entry := &models.CacheEntry{}
	err := db.QueryRowContext(ctx, query, textHash, voiceModelID).Scan(
		&entry.ID, &entry.TextHash, &entry.VoiceModelID, &entry.OutputPath,
		&entry.DurationMs, &entry.HitCount, &entry.LastAccessedAt, &entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry by key: %w", err)
	}

	return entry, nil
}

func (db *DB) CreateCacheEntry(ctx context.Context, entry *models.CacheEntry) error {
	query := `
		INSERT INTO cache_entries (
			id, text_hash, voice_model_id, output_path, duration_ms, hit_count
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (text_hash, voice_model_id) DO UPDATE SET
			output_path = EXCLUDED.output_path,
			duration_ms = EXCLUDED.duration_ms
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		entry.ID, entry.TextHash, entry.VoiceModelID,
		entry.OutputPath, entry.DurationMs, entry.HitCount,
	).Scan(&entry.CreatedAt)
}

// TouchCacheEntry bumps the hit counter when a cached output is served.
func (db *DB) TouchCacheEntry(ctx context.Context, cacheID string) error {
	query := `
		UPDATE cache_entries
		SET hit_count = hit_count + 1, last_accessed_at = NOW()
		WHERE id = $1
	`
	_, err := db.ExecContext(ctx, query, cacheID)
	return err
}

// ListSynthesisJobs returns jobs ordered by creation date (newest first).
// Supports optional status filter, limit, and offset for pagination.
func (db *DB) ListSynthesisJobs(ctx context.Context, status string, limit, offset int) ([]models.SynthesisJob, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `SELECT ` + jobColumns + ` FROM synthesis_jobs`

	if status != "" {
		query := baseSelect + ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, status, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list synthesis jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.SynthesisJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan synthesis job: %w", err)
		}
		jobs = append(jobs, *job)
	}

	return jobs, nil
}

// CountSynthesisJobs returns the total number of jobs, optionally filtered by status.
func (db *DB) CountSynthesisJobs(ctx context.Context, status string) (int, error) {
	var count int
	if status != "" {
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synthesis_jobs WHERE status = $1`, status).Scan(&count)
		return count, err
	}
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synthesis_jobs`).Scan(&count)
	return count, err
}

func (db *DB) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	query := `UPDATE synthesis_jobs SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

// UpdateJobParams applies a partial update to a pending job's synthesis
// parameters and stores the recomputed cache key.
func (db *DB) UpdateJobParams(ctx context.Context, job *models.SynthesisJob) error {
	query := `
		UPDATE synthesis_jobs
		SET speed = $1, pitch = $2, volume = $3, output_format = $4,
		    sample_rate = $5, text_content = $6, text_hash = $7, updated_at = NOW()
		WHERE id = $8 AND status = $9
	`

	result, err := db.ExecContext(
		ctx, query,
		job.Speed, job.Pitch, job.Volume, job.OutputFormat,
		job.SampleRate, job.TextContent, job.TextHash,
		job.ID, models.JobStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update synthesis job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrJobNotPending
	}

	return nil
}

// UpdateJobOutput records a completed synthesis: the output file, measured
// duration, and completion time.
func (db *DB) UpdateJobOutput(ctx context.Context, id uuid.UUID, outputPath string, durationMs int) error {
	query := `
		UPDATE synthesis_jobs
		SET status = $1, output_path = $2, duration_ms = $3,
		    completed_at = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := db.ExecContext(ctx, query, models.JobStatusCompleted, outputPath, durationMs, time.Now(), id)
	return err
}

func (db *DB) UpdateJobError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE synthesis_jobs
		SET status = $1, error_message = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.JobStatusFailed, errorMessage, time.Now(), id)
	return err
}

func (db *DB) DeleteSynthesisJob(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM synthesis_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete synthesis job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("synthesis job not found")
	}

	return nil
}
