package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/models"
)

func (db *DB) CreateVoiceSample(ctx context.Context, sample *models.VoiceSample) error {
	query := `
		INSERT INTO voice_samples (
			id, user_id, name, format, sample_rate, duration_ms,
			byte_size, file_path, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		sample.ID, sample.UserID, sample.Name, sample.Format,
		sample.SampleRate, sample.DurationMs, sample.ByteSize,
		sample.FilePath, sample.Status,
	).Scan(&sample.CreatedAt, &sample.UpdatedAt)
}

func (db *DB) GetVoiceSample(ctx context.Context, id uuid.UUID) (*models.VoiceSample, error) {
	query := `
		SELECT
			id, user_id, name, format, sample_rate, duration_ms,
			byte_size, file_path, transcript, status, error_message,
			created_at, updated_at
		FROM voice_samples
		WHERE id = $1
	`

	sample := &models.VoiceSample{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&sample.ID, &sample.UserID, &sample.Name, &sample.Format,
		&sample.SampleRate, &sample.DurationMs, &sample.ByteSize,
		&sample.FilePath, &sample.Transcript, &sample.Status,
		&sample.ErrorMessage, &sample.CreatedAt, &sample.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("voice sample not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voice sample: %w", err)
	}

	return sample, nil
}

// ListVoiceSamples returns samples ordered by creation date (newest first),
// optionally filtered to a single user.
func (db *DB) ListVoiceSamples(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.VoiceSample, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT
			id, user_id, name, format, sample_rate, duration_ms,
			byte_size, file_path, transcript, status, error_message,
			created_at, updated_at
		FROM voice_samples
	`

	if userID != nil {
		query := baseSelect + ` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, *userID, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list voice samples: %w", err)
	}
	defer rows.Close()

	var samples []models.VoiceSample
	for rows.Next() {
		var s models.VoiceSample
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.Format,
			&s.SampleRate, &s.DurationMs, &s.ByteSize,
			&s.FilePath, &s.Transcript, &s.Status,
			&s.ErrorMessage, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan voice sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func (db *DB) UpdateSampleTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	query := `
		UPDATE voice_samples
		SET transcript = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, transcript, models.SampleStatusReady, id)
	return err
}

func (db *DB) UpdateSampleStatus(ctx context.Context, id uuid.UUID, status models.SampleStatus) error {
	query := `UPDATE voice_samples SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

func (db *DB) UpdateSampleError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE voice_samples
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, models.SampleStatusFailed, errorMessage, id)
	return err
}

func (db *DB) DeleteVoiceSample(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM voice_samples WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voice sample: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("voice sample not found")
	}

	return nil
}
