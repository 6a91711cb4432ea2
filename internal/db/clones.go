package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/models"
)

func (db *DB) CreateVoiceClone(ctx context.Context, clone *models.VoiceClone) error {
	query := `
		INSERT INTO voice_clones (
			id, user_id, name, ref_sample_id, language, status, is_selected
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		clone.ID, clone.UserID, clone.Name, clone.RefSampleID,
		clone.Language, clone.Status, clone.IsSelected,
	).Scan(&clone.CreatedAt, &clone.UpdatedAt)
}

func (db *DB) GetVoiceClone(ctx context.Context, id uuid.UUID) (*models.VoiceClone, error) {
	query := `
		SELECT
			id, user_id, name, ref_sample_id, ref_text, language,
			status, is_selected, error_message, created_at, updated_at
		FROM voice_clones
		WHERE id = $1
	`

	clone := &models.VoiceClone{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&clone.ID, &clone.UserID, &clone.Name, &clone.RefSampleID,
		&clone.RefText, &clone.Language, &clone.Status,
		&clone.IsSelected, &clone.ErrorMessage,
		&clone.CreatedAt, &clone.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("voice clone not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voice clone: %w", err)
	}

	return clone, nil
}

// ListVoiceClones returns clones ordered by creation date (newest first),
// optionally filtered to a single user.
func (db *DB) ListVoiceClones(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.VoiceClone, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT
			id, user_id, name, ref_sample_id, ref_text, language,
			status, is_selected, error_message, created_at, updated_at
		FROM voice_clones
	`

	if userID != nil {
		query := baseSelect + ` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, query, *userID, limit, offset)
	} else {
		query := baseSelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list voice clones: %w", err)
	}
	defer rows.Close()

	var clones []models.VoiceClone
	for rows.Next() {
		var c models.VoiceClone
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.RefSampleID,
			&c.RefText, &c.Language, &c.Status,
			&c.IsSelected, &c.ErrorMessage,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan voice clone: %w", err)
		}
		clones = append(clones, c)
	}

	return clones, nil
}

// UpdateCloneReady marks a clone as ready to synthesize with, storing the
// reference transcript the engines need alongside the reference audio.
func (db *DB) UpdateCloneReady(ctx context.Context, id uuid.UUID, refText string) error {
	query := `
		UPDATE voice_clones
		SET status = $1, ref_text = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, models.CloneStatusReady, refText, id)
	return err
}

func (db *DB) UpdateCloneError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE voice_clones
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.ExecContext(ctx, query, models.CloneStatusFailed, errorMessage, id)
	return err
}

// SelectVoiceClone marks one clone as the user's active voice and clears the
// flag on their other clones, in one transaction.
func (db *DB) SelectVoiceClone(ctx context.Context, userID, cloneID uuid.UUID) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE voice_clones SET is_selected = FALSE, updated_at = NOW() WHERE user_id = $1`,
		userID,
	); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE voice_clones SET is_selected = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		cloneID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to select clone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("voice clone not found")
	}

	return tx.Commit()
}

func (db *DB) DeleteVoiceClone(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM voice_clones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voice clone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("voice clone not found")
	}

	return nil
}
