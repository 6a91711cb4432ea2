package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/models"
)

// Voice embeddings live in a pgvector column (vector(256)); similarity is
// L2 distance via the <-> operator. The encoder service produces the vectors,
// this layer only stores and searches them.

// UpsertVoiceEmbedding stores (or replaces) the embedding for a clone.
func (db *DB) UpsertVoiceEmbedding(ctx context.Context, cloneID uuid.UUID, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding")
	}

	query := `
		INSERT INTO voice_embeddings (clone_id, embedding)
		VALUES ($1, $2::vector)
		ON CONFLICT (clone_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`
	_, err := db.ExecContext(ctx, query, cloneID, vectorLiteral(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert voice embedding: %w", err)
	}

	return nil
}

// SimilarVoices returns the ready clones closest in embedding space to the
// given clone, nearest first.
func (db *DB) SimilarVoices(ctx context.Context, cloneID uuid.UUID, limit int) ([]models.SimilarVoice, error) {
	query := `
		SELECT c.id, c.name,
		       e.embedding <-> (SELECT embedding FROM voice_embeddings WHERE clone_id = $1) AS distance
		FROM voice_embeddings e
		JOIN voice_clones c ON c.id = e.clone_id
		WHERE e.clone_id != $1 AND c.status = $2
		ORDER BY distance
		LIMIT $3
	`

	rows, err := db.QueryContext(ctx, query, cloneID, models.CloneStatusReady, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar voices: %w", err)
	}
	defer rows.Close()

	var voices []models.SimilarVoice
	for rows.Next() {
		var v models.SimilarVoice
		if err := rows.Scan(&v.CloneID, &v.Name, &v.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan similar voice: %w", err)
		}
		voices = append(voices, v)
	}

	return voices, nil
}

// vectorLiteral renders a float slice in pgvector's input syntax: [1,2,3].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
