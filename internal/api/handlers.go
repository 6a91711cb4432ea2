package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/db"
	"github.com/montagy/voxify/internal/models"
	"github.com/montagy/voxify/internal/queue"
	"github.com/montagy/voxify/internal/storage"
	"github.com/montagy/voxify/internal/synthesis"
)

// maxSampleUploadBytes caps voice sample uploads at 25MB — enough for a
// couple of minutes of WAV reference audio.
const maxSampleUploadBytes = 25 << 20

type Handler struct {
	db      *db.DB
	queue   *queue.Queue
	storage *storage.Storage
}

func NewHandler(database *db.DB, q *queue.Queue, stor *storage.Storage) *Handler {
	return &Handler{
		db:      database,
		queue:   q,
		storage: stor,
	}
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser handles POST /v1/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if existing, err := h.db.GetUserByEmail(r.Context(), req.Email); err == nil && existing != nil {
		respondError(w, http.StatusConflict, "A user with this email already exists")
		return
	}

	user := &models.User{
		ID:          uuid.New(),
		Email:       strings.TrimSpace(req.Email),
		DisplayName: req.DisplayName,
		Plan:        req.Plan,
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respondSuccess(w, http.StatusCreated, user, "")
}

// GetUser handles GET /v1/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.db.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondSuccess(w, http.StatusOK, user, "")
}

// ---------------------------------------------------------------------------
// Voice samples
// ---------------------------------------------------------------------------

// UploadVoiceSample handles POST /v1/voices/samples (multipart form).
// Expected fields: "audio" (file), "name", "user_id", optional "sample_rate".
func (h *Handler) UploadVoiceSample(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSampleUploadBytes)
	if err := r.ParseMultipartForm(maxSampleUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	userID, err := uuid.Parse(r.FormValue("user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user_id")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "Sample name is required")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Audio file is required (field: audio)")
		return
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !isSupportedFormat(format) {
		respondError(w, http.StatusBadRequest, "Audio format must be one of: wav, mp3, flac, ogg")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read audio file")
		return
	}

	sampleID := uuid.New()
	path := h.storage.SamplePath(sampleID, format)
	if err := h.storage.Save(path, data); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store audio file")
		return
	}

	byteSize := int64(len(data))
	sample := &models.VoiceSample{
		ID:       sampleID,
		UserID:   userID,
		Name:     name,
		Format:   format,
		ByteSize: &byteSize,
		FilePath: path,
		Status:   models.SampleStatusUploaded,
	}
	if sr := r.FormValue("sample_rate"); sr != "" {
		if parsed, err := strconv.Atoi(sr); err == nil {
			sample.SampleRate = &parsed
		}
	}

	if err := h.db.CreateVoiceSample(r.Context(), sample); err != nil {
		if rmErr := h.storage.Remove(path); rmErr != nil {
			log.Printf("[Samples] Failed to clean up audio for sample %s: %v", sampleID, rmErr)
		}
		respondError(w, http.StatusInternalServerError, "Failed to create voice sample")
		return
	}

	respondSuccess(w, http.StatusCreated, sample, "")
}

// ListVoiceSamples handles GET /v1/voices/samples
// Query params: user_id (optional filter), limit, offset.
func (h *Handler) ListVoiceSamples(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user_id filter")
			return
		}
		userID = &id
	}

	limit, offset := parsePagination(r)

	samples, err := h.db.ListVoiceSamples(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list voice samples")
		return
	}
	if samples == nil {
		samples = []models.VoiceSample{}
	}

	respondSuccess(w, http.StatusOK, samples, "")
}

// GetVoiceSample handles GET /v1/voices/samples/{id}
func (h *Handler) GetVoiceSample(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sample ID")
		return
	}

	sample, err := h.db.GetVoiceSample(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Voice sample not found")
		return
	}

	respondSuccess(w, http.StatusOK, sample, "")
}

// DeleteVoiceSample handles DELETE /v1/voices/samples/{id}.
// Removes the stored audio file along with the database row.
func (h *Handler) DeleteVoiceSample(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sample ID")
		return
	}

	sample, err := h.db.GetVoiceSample(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Voice sample not found")
		return
	}

	if err := h.db.DeleteVoiceSample(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete voice sample")
		return
	}
	if err := h.storage.Remove(sample.FilePath); err != nil {
		log.Printf("[Samples] Failed to remove audio for sample %s: %v", id, err)
	}

	respondSuccess(w, http.StatusOK, nil, "Voice sample deleted")
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func isSupportedFormat(format string) bool {
	for _, f := range models.OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// parsePagination reads limit/offset query params with the usual caps
// (default 20, max 100).
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset = 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondSuccess wraps data in the standard success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	respondJSON(w, status, synthesis.SuccessEnvelope(data, message))
}

// respondError wraps the message in the standard error envelope with a
// derived error code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, synthesis.ErrorEnvelope(message, "", status))
}

// respondValidationErrors reports field-level validation failures as a 400
// with the field→message map attached.
func respondValidationErrors(w http.ResponseWriter, fieldErrors map[string]string) {
	envelope := synthesis.ErrorEnvelope("Validation failed", "", http.StatusBadRequest)
	envelope["errors"] = fieldErrors
	respondJSON(w, http.StatusBadRequest, envelope)
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
