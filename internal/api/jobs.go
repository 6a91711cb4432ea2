package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/db"
	"github.com/montagy/voxify/internal/models"
	"github.com/montagy/voxify/internal/synthesis"
)

// CreateJob handles POST /v1/jobs.
//
// The request body is decoded as a generic mapping so the validator can
// report per-field errors on whatever the client sent, including wrong
// types. On a cache hit for the same (text, config, voice) the job is
// created already completed, pointing at the cached output; otherwise it
// is enqueued for the synthesis worker.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if ok, fieldErrors := synthesis.Validate(req, false); !ok {
		respondValidationErrors(w, fieldErrors)
		return
	}

	job := newJobFromRequest(req)

	if raw, ok := stringValue(req["user_id"]); ok && raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user_id")
			return
		}
		job.UserID = &userID
	}

	entry, err := h.db.FindCacheEntryByKey(r.Context(), job.TextHash, job.VoiceModelID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check synthesis cache")
		return
	}
	if entry != nil {
		now := time.Now()
		job.Status = models.JobStatusCompleted
		job.CacheHit = true
		job.CachedResultID = &entry.ID
		job.DurationMs = entry.DurationMs
		job.CompletedAt = &now
	}

	if err := h.db.CreateSynthesisJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create synthesis job")
		return
	}

	if !job.CacheHit {
		if err := h.queue.EnqueueSynthesize(r.Context(), job.ID); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to enqueue synthesis job")
			return
		}
	}

	respondSuccess(w, http.StatusCreated, models.CreateJobResponse{
		JobID:    job.ID,
		Status:   job.Status,
		CacheHit: job.CacheHit,
		TextHash: job.TextHash,
	}, "")
}

// ListJobs handles GET /v1/jobs
// Query params:
//   - status: filter by job status (pending, processing, completed, failed, cancelled)
//   - limit:  max results per page (default 20, max 100)
//   - offset: number of results to skip (default 0)
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.JobStatus(statusFilter) {
		case models.JobStatusPending, models.JobStatusProcessing,
			models.JobStatusCompleted, models.JobStatusFailed,
			models.JobStatusCancelled:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter. Allowed: pending, processing, completed, failed, cancelled")
			return
		}
	}

	limit, offset := parsePagination(r)

	total, err := h.db.CountSynthesisJobs(r.Context(), statusFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count synthesis jobs")
		return
	}

	jobs, err := h.db.ListSynthesisJobs(r.Context(), statusFilter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list synthesis jobs")
		return
	}

	summaries := make([]models.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, models.JobSummary{
			ID:           job.ID,
			VoiceModelID: job.VoiceModelID,
			Status:       job.Status,
			OutputFormat: job.OutputFormat,
			CacheHit:     job.CacheHit,
			DurationMs:   job.DurationMs,
			ErrorMessage: job.ErrorMessage,
			CreatedAt:    job.CreatedAt,
			UpdatedAt:    job.UpdatedAt,
		})
	}

	respondSuccess(w, http.StatusOK, models.ListJobsResponse{
		Jobs:   summaries,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, "")
}

// GetJob handles GET /v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.db.FindJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get synthesis job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Synthesis job not found")
		return
	}

	respondSuccess(w, http.StatusOK, job, "")
}

// UpdateJob handles PATCH /v1/jobs/{id}.
// Only pending jobs can be modified: once a worker picks a job up its
// parameters are frozen. Changing text or config recomputes the cache key.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.db.FindJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get synthesis job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Synthesis job not found")
		return
	}
	if job.Status != models.JobStatusPending {
		respondError(w, http.StatusConflict, "Only pending jobs can be modified")
		return
	}

	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if ok, fieldErrors := synthesis.Validate(req, true); !ok {
		respondValidationErrors(w, fieldErrors)
		return
	}

	applyJobUpdate(job, req)

	if err := h.db.UpdateJobParams(r.Context(), job); err != nil {
		// The job may have been picked up between the status check and the update
		if errors.Is(err, db.ErrJobNotPending) {
			respondError(w, http.StatusConflict, "Only pending jobs can be modified")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update synthesis job")
		return
	}

	respondSuccess(w, http.StatusOK, job, "")
}

// DeleteJob handles DELETE /v1/jobs/{id}.
// Removes the job's direct output file if one exists; cached outputs stay
// because other jobs may reference them.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.db.FindJob(r.Context(), id.String())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get synthesis job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Synthesis job not found")
		return
	}

	if err := h.db.DeleteSynthesisJob(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete synthesis job")
		return
	}
	if job.OutputPath != nil {
		if err := h.storage.Remove(*job.OutputPath); err != nil {
			log.Printf("[Jobs] Failed to remove output for job %s: %v", job.ID, err)
		}
	}

	respondSuccess(w, http.StatusOK, nil, "Synthesis job deleted")
}

// DownloadJobOutput handles GET /v1/jobs/{id}/download.
// Resolves the job's output through the cache-aware resolver and streams
// the audio file. Served cache entries get their hit counter bumped.
func (h *Handler) DownloadJobOutput(w http.ResponseWriter, r *http.Request) {
	resolver := synthesis.NewResolver(h.db)

	out, err := resolver.ResolveOutputFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to resolve output file")
		return
	}
	if out == nil {
		respondError(w, http.StatusNotFound, "Output file not available")
		return
	}

	if out.CacheEntryID != "" {
		// Non-fatal if this fails: only the hit counter goes stale
		_ = h.db.TouchCacheEntry(r.Context(), out.CacheEntryID)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	http.ServeFile(w, r, out.Path)
}

// ---------------------------------------------------------------------------
// Request field extraction
// The validator accepts numbers in several JSON encodings (floats, ints,
// numeric strings); these helpers mirror that coercion when reading the
// already-validated values. Field names here must match the ones the
// validator checks (text_content, voice_model_id, ...).
// ---------------------------------------------------------------------------

// newJobFromRequest builds a pending job from a validated create request,
// filling defaults for absent optional fields and computing the cache key.
func newJobFromRequest(req map[string]interface{}) *models.SynthesisJob {
	text, _ := stringValue(req["text_content"])
	voiceModelID, _ := stringValue(req["voice_model_id"])

	job := &models.SynthesisJob{
		ID:           uuid.New(),
		VoiceModelID: voiceModelID,
		TextContent:  text,
		Speed:        numberOrDefault(req["speed"], 1.0),
		Pitch:        numberOrDefault(req["pitch"], 1.0),
		Volume:       numberOrDefault(req["volume"], 1.0),
		OutputFormat: stringOrDefault(req["output_format"], models.DefaultOutputFormat),
		SampleRate:   intOrDefault(req["sample_rate"], models.DefaultSampleRate),
		Status:       models.JobStatusPending,
	}
	job.TextHash = synthesis.CacheKey(job.TextContent, job.SynthesisConfig())

	return job
}

// applyJobUpdate patches the fields present in a validated partial-update
// request onto the job and recomputes the cache key.
func applyJobUpdate(job *models.SynthesisJob, req map[string]interface{}) {
	if v, ok := stringValue(req["text_content"]); ok {
		job.TextContent = v
	}
	if v, ok := numberValue(req["speed"]); ok {
		job.Speed = v
	}
	if v, ok := numberValue(req["pitch"]); ok {
		job.Pitch = v
	}
	if v, ok := numberValue(req["volume"]); ok {
		job.Volume = v
	}
	if v, ok := stringValue(req["output_format"]); ok {
		job.OutputFormat = v
	}
	if v, ok := intValue(req["sample_rate"]); ok {
		job.SampleRate = v
	}

	job.TextHash = synthesis.CacheKey(job.TextContent, job.SynthesisConfig())
}

func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func stringOrDefault(v interface{}, def string) string {
	if s, ok := stringValue(v); ok && s != "" {
		return s
	}
	return def
}

func numberValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func numberOrDefault(v interface{}, def float64) float64 {
	if f, ok := numberValue(v); ok {
		return f
	}
	return def
}

func intValue(v interface{}) (int, bool) {
	f, ok := numberValue(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func intOrDefault(v interface{}, def int) int {
	if i, ok := intValue(v); ok {
		return i
	}
	return def
}
