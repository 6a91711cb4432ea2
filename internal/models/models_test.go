package models

import (
	"encoding/json"
	"testing"
)

func TestJSONBMarshal(t *testing.T) {
	j := JSONB{
		"speed":         1.25,
		"output_format": "mp3",
	}

	data, err := j.Value()
	if err != nil {
		t.Fatalf("failed to marshal JSONB: %v", err)
	}

	if data == nil {
		t.Fatal("expected non-nil data")
	}

	// Verify it's valid JSON
	var result map[string]interface{}
	if err := json.Unmarshal(data.([]byte), &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if result["output_format"] != "mp3" {
		t.Errorf("expected output_format=mp3, got %v", result["output_format"])
	}
}

func TestJSONBScan(t *testing.T) {
	jsonData := []byte(`{"speed": 1.5, "sample_rate": 22050}`)

	var j JSONB
	if err := j.Scan(jsonData); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}

	if j["speed"].(float64) != 1.5 {
		t.Errorf("expected speed=1.5, got %v", j["speed"])
	}

	if j["sample_rate"].(float64) != 22050 {
		t.Errorf("expected sample_rate=22050, got %v", j["sample_rate"])
	}
}

func TestJobStatus(t *testing.T) {
	statuses := []JobStatus{
		JobStatusPending,
		JobStatusProcessing,
		JobStatusCompleted,
		JobStatusFailed,
		JobStatusCancelled,
	}

	for _, status := range statuses {
		if status == "" {
			t.Errorf("empty status found")
		}
	}
}

func TestCloneStatus(t *testing.T) {
	statuses := []CloneStatus{
		CloneStatusTraining,
		CloneStatusReady,
		CloneStatusFailed,
	}

	for _, status := range statuses {
		if status == "" {
			t.Errorf("empty status found")
		}
	}
}

func TestSynthesisConfigKeys(t *testing.T) {
	job := &SynthesisJob{
		VoiceModelID: "voice-1",
		Speed:        1.0,
		Pitch:        1.0,
		Volume:       1.0,
		OutputFormat: DefaultOutputFormat,
		SampleRate:   DefaultSampleRate,
	}

	cfg := job.SynthesisConfig()
	for _, key := range []string{"voice_model_id", "speed", "pitch", "volume", "output_format", "sample_rate"} {
		if _, ok := cfg[key]; !ok {
			t.Errorf("missing config key %q", key)
		}
	}
}
