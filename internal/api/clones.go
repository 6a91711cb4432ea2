package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/models"
)

// CreateVoiceClone handles POST /v1/voices/clones.
// Creates the clone in "training" status and enqueues the clone pipeline
// (transcription + embedding). The worker flips it to "ready" or "failed".
func (h *Handler) CreateVoiceClone(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Clone name is required")
		return
	}
	if req.RefSampleID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "Reference sample ID is required")
		return
	}

	sample, err := h.db.GetVoiceSample(r.Context(), req.RefSampleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Reference sample not found")
		return
	}
	if sample.Status == models.SampleStatusFailed {
		respondError(w, http.StatusConflict, "Reference sample failed processing and cannot be cloned")
		return
	}

	userID := sample.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}

	clone := &models.VoiceClone{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		RefSampleID: req.RefSampleID,
		Language:    req.Language,
		Status:      models.CloneStatusTraining,
	}

	if err := h.db.CreateVoiceClone(r.Context(), clone); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create voice clone")
		return
	}

	if err := h.queue.EnqueueCloneVoice(r.Context(), clone.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue clone job")
		return
	}

	respondSuccess(w, http.StatusCreated, clone, "")
}

// ListVoiceClones handles GET /v1/voices/clones
// Query params: user_id (optional filter), limit, offset.
func (h *Handler) ListVoiceClones(w http.ResponseWriter, r *http.Request) {
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

	clones, err := h.db.ListVoiceClones(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list voice clones")
		return
	}
	if clones == nil {
		clones = []models.VoiceClone{}
	}

	respondSuccess(w, http.StatusOK, clones, "")
}

// GetVoiceClone handles GET /v1/voices/clones/{id}
func (h *Handler) GetVoiceClone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clone ID")
		return
	}

	clone, err := h.db.GetVoiceClone(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Voice clone not found")
		return
	}

	respondSuccess(w, http.StatusOK, clone, "")
}

// DeleteVoiceClone handles DELETE /v1/voices/clones/{id}
func (h *Handler) DeleteVoiceClone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clone ID")
		return
	}

	if err := h.db.DeleteVoiceClone(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, "Voice clone not found")
		return
	}

	respondSuccess(w, http.StatusOK, nil, "Voice clone deleted")
}

// SelectVoiceClone handles POST /v1/voices/clones/{id}/select.
// Marks the clone as the user's active voice; deselects any other clone
// belonging to the same user.
func (h *Handler) SelectVoiceClone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clone ID")
		return
	}

	clone, err := h.db.GetVoiceClone(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Voice clone not found")
		return
	}
	if clone.Status != models.CloneStatusReady {
		respondError(w, http.StatusConflict, "Only ready clones can be selected")
		return
	}

	if err := h.db.SelectVoiceClone(r.Context(), clone.UserID, clone.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to select voice clone")
		return
	}

	respondSuccess(w, http.StatusOK, nil, "Voice clone selected")
}

// SimilarVoices handles GET /v1/voices/clones/{id}/similar.
// Returns the nearest clones by speaker-embedding distance.
func (h *Handler) SimilarVoices(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clone ID")
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	voices, err := h.db.SimilarVoices(r.Context(), id, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to search similar voices")
		return
	}
	if voices == nil {
		voices = []models.SimilarVoice{}
	}

	respondSuccess(w, http.StatusOK, voices, "")
}
