package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Enums
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

type SampleStatus string

const (
	SampleStatusUploaded   SampleStatus = "uploaded"
	SampleStatusProcessing SampleStatus = "processing"
	SampleStatusReady      SampleStatus = "ready"
	SampleStatusFailed     SampleStatus = "failed"
)

type CloneStatus string

const (
	CloneStatusTraining CloneStatus = "training"
	CloneStatusReady    CloneStatus = "ready"
	CloneStatusFailed   CloneStatus = "failed"
)

// Supported synthesis output formats and sample rates.
// The validator in internal/synthesis enforces these on incoming requests.
var (
	OutputFormats = []string{"wav", "mp3", "flac", "ogg"}
	SampleRates   = []int{8000, 16000, 22050, 44100, 48000}
)

const (
	DefaultOutputFormat = "wav"
	DefaultSampleRate   = 22050
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Models

type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	Plan        *string   `json:"plan,omitempty"` // "free", "pro", "enterprise"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VoiceSample struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	Name         string       `json:"name"`
	Format       string       `json:"format"`
	SampleRate   *int         `json:"sample_rate,omitempty"`
	DurationMs   *int         `json:"duration_ms,omitempty"`
	ByteSize     *int64       `json:"byte_size,omitempty"`
	FilePath     string       `json:"file_path"`
	Transcript   *string      `json:"transcript,omitempty"` // Whisper reference text for F5-TTS
	Status       SampleStatus `json:"status"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type VoiceClone struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Name         string      `json:"name"`
	RefSampleID  uuid.UUID   `json:"ref_sample_id"`
	RefText      *string     `json:"ref_text,omitempty"` // Transcript of the reference sample
	Language     *string     `json:"language,omitempty"` // ISO 639-1: "en", "es", "zh", etc.
	Status       CloneStatus `json:"status"`
	IsSelected   bool        `json:"is_selected"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// SynthesisJob is a single text-to-speech request and its lifecycle.
// TextHash is the canonical cache key computed from text_content plus the
// synthesis configuration (see internal/synthesis.CacheKey).
type SynthesisJob struct {
	ID             uuid.UUID  `json:"id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	VoiceModelID   string     `json:"voice_model_id"`
	TextContent    string     `json:"text_content"`
	TextHash       string     `json:"text_hash"`
	Speed          float64    `json:"speed"`
	Pitch          float64    `json:"pitch"`
	Volume         float64    `json:"volume"`
	OutputFormat   string     `json:"output_format"`
	SampleRate     int        `json:"sample_rate"`
	Status         JobStatus  `json:"status"`
	CacheHit       bool       `json:"cache_hit"`
	CachedResultID *string    `json:"cached_result_id,omitempty"`
	OutputPath     *string    `json:"output_path,omitempty"`
	DurationMs     *int       `json:"duration_ms,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// CacheEntry records a previously synthesized output so identical
// (text, config, voice) requests can be served without re-synthesis.
type CacheEntry struct {
	ID             string     `json:"id"`
	TextHash       string     `json:"text_hash"`
	VoiceModelID   string     `json:"voice_model_id"`
	OutputPath     string     `json:"output_path"`
	DurationMs     *int       `json:"duration_ms,omitempty"`
	HitCount       int        `json:"hit_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SynthesisConfig returns the job's synthesis parameters as the mapping the
// cache-key hasher expects. Key names match the request schema.
func (j *SynthesisJob) SynthesisConfig() map[string]interface{} {
	return map[string]interface{}{
		"voice_model_id": j.VoiceModelID,
		"speed":          j.Speed,
		"pitch":          j.Pitch,
		"volume":         j.Volume,
		"output_format":  j.OutputFormat,
		"sample_rate":    j.SampleRate,
	}
}

// DTOs for API requests/responses

type CreateUserRequest struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name,omitempty"`
	Plan        *string `json:"plan,omitempty"`
}

type CreateCloneRequest struct {
	Name        string     `json:"name"`
	RefSampleID uuid.UUID  `json:"ref_sample_id"`
	Language    *string    `json:"language,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
}

// SimilarVoice pairs a clone with its embedding distance from a query voice.
type SimilarVoice struct {
	CloneID  uuid.UUID `json:"clone_id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}

// JobSummary is a lightweight DTO for the job list endpoint — no text body,
// just lifecycle fields the dashboard needs.
type JobSummary struct {
	ID           uuid.UUID `json:"id"`
	VoiceModelID string    `json:"voice_model_id"`
	Status       JobStatus `json:"status"`
	OutputFormat string    `json:"output_format"`
	CacheHit     bool      `json:"cache_hit"`
	DurationMs   *int      `json:"duration_ms,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListJobsResponse struct {
	Jobs   []JobSummary `json:"jobs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type CreateJobResponse struct {
	JobID    uuid.UUID `json:"job_id"`
	Status   JobStatus `json:"status"`
	CacheHit bool      `json:"cache_hit"`
	TextHash string    `json:"text_hash"`
}
