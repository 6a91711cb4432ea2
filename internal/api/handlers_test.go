package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/montagy/voxify/internal/models"
	"github.com/montagy/voxify/internal/synthesis"
)

func TestAPIKeyAuth(t *testing.T) {
	const key = "secret-key"

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := APIKeyAuth(key)(next)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key in X-API-Key", "X-API-Key", "nope", http.StatusForbidden},
		{"correct key in X-API-Key", "X-API-Key", key, http.StatusNoContent},
		{"correct key as bearer token", "Authorization", "Bearer " + key, http.StatusNoContent},
		{"wrong bearer token", "Authorization", "Bearer nope", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/jobs", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAPIKeyAuthErrorEnvelope(t *testing.T) {
	protected := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/v1/jobs", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("error field missing or wrong type: %v", body["error"])
	}
	if errObj["code"] != "ERROR_401" {
		t.Errorf("code = %v, want ERROR_401", errObj["code"])
	}
}

func TestCreateJobValidationFailure(t *testing.T) {
	// Validation failures are rejected before any database or queue access,
	// so a bare handler is enough here.
	h := NewHandler(nil, nil, nil)

	body := `{"text_content": "", "speed": 99}`
	req := httptest.NewRequest("POST", "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}

	fieldErrors, ok := resp["errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("errors field missing or wrong type: %v", resp["errors"])
	}
	if fieldErrors["text_content"] != "Text content is required" {
		t.Errorf("text_content error = %v, want %q", fieldErrors["text_content"], "Text content is required")
	}
	if fieldErrors["voice_model_id"] != "Voice model ID is required" {
		t.Errorf("voice_model_id error = %v, want %q", fieldErrors["voice_model_id"], "Voice model ID is required")
	}
	if fieldErrors["speed"] != "Speed must be between 0.1 and 3.0" {
		t.Errorf("speed error = %v, want %q", fieldErrors["speed"], "Speed must be between 0.1 and 3.0")
	}
}

func TestNewJobFromRequest(t *testing.T) {
	// Decode the body exactly the way CreateJob does, so the field names
	// the handler reads are exercised against the ones the validator checks.
	body := `{"text_content": "Hello world", "voice_model_id": "voice-1", "speed": 1.5}`
	var req map[string]interface{}
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if ok, fieldErrors := synthesis.Validate(req, false); !ok {
		t.Fatalf("request unexpectedly invalid: %v", fieldErrors)
	}

	job := newJobFromRequest(req)

	if job.TextContent != "Hello world" {
		t.Errorf("TextContent = %q, want %q", job.TextContent, "Hello world")
	}
	if job.VoiceModelID != "voice-1" {
		t.Errorf("VoiceModelID = %q, want %q", job.VoiceModelID, "voice-1")
	}
	if job.Speed != 1.5 {
		t.Errorf("Speed = %v, want 1.5", job.Speed)
	}
	if job.OutputFormat != "wav" || job.SampleRate != 22050 {
		t.Errorf("defaults = (%q, %d), want (wav, 22050)", job.OutputFormat, job.SampleRate)
	}
	if job.TextHash != synthesis.CacheKey("Hello world", job.SynthesisConfig()) {
		t.Errorf("TextHash not computed over the request text")
	}

	// The hash must cover the text: an empty-text job with the same config
	// must not collide with this one.
	empty := job.SynthesisConfig()
	if job.TextHash == synthesis.CacheKey("", empty) {
		t.Errorf("TextHash collides with the empty-text hash")
	}
}

func TestApplyJobUpdate(t *testing.T) {
	var req map[string]interface{}
	if err := json.Unmarshal([]byte(`{"text_content": "New text", "pitch": 0.8}`), &req); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if ok, fieldErrors := synthesis.Validate(req, true); !ok {
		t.Fatalf("request unexpectedly invalid: %v", fieldErrors)
	}

	job := &models.SynthesisJob{
		VoiceModelID: "voice-1",
		TextContent:  "Old text",
		Speed:        1.0,
		Pitch:        1.0,
		Volume:       1.0,
		OutputFormat: "wav",
		SampleRate:   22050,
	}
	job.TextHash = synthesis.CacheKey(job.TextContent, job.SynthesisConfig())
	oldHash := job.TextHash

	applyJobUpdate(job, req)

	if job.TextContent != "New text" {
		t.Errorf("TextContent = %q, want %q", job.TextContent, "New text")
	}
	if job.Pitch != 0.8 {
		t.Errorf("Pitch = %v, want 0.8", job.Pitch)
	}
	if job.Speed != 1.0 {
		t.Errorf("Speed = %v, want 1.0 (untouched)", job.Speed)
	}
	if job.TextHash == oldHash {
		t.Errorf("TextHash unchanged after text update")
	}
	if job.TextHash != synthesis.CacheKey("New text", job.SynthesisConfig()) {
		t.Errorf("TextHash not recomputed over the updated text")
	}
}

func TestCreateJobMalformedBody(t *testing.T) {
	h := NewHandler(nil, nil, nil)

	req := httptest.NewRequest("POST", "/v1/jobs", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
