package synthesis

import "testing"

func TestValidateValidRequest(t *testing.T) {
	req := map[string]interface{}{
		"text_content":   "Hello world",
		"voice_model_id": "voice-1",
		"speed":          1.5,
		"pitch":          0.9,
		"volume":         1.0,
		"output_format":  "mp3",
		"sample_rate":    float64(44100), // JSON numbers decode as float64
	}

	ok, errs := Validate(req, false)
	if !ok {
		t.Fatalf("expected valid request, got errors: %v", errs)
	}
	if len(errs) != 0 {
		t.Errorf("expected empty error map, got %v", errs)
	}
}

func TestValidateMinimalRequest(t *testing.T) {
	// Only the two required fields — defaults cover the rest.
	req := map[string]interface{}{
		"text_content":   "Hello",
		"voice_model_id": "voice-1",
	}

	if ok, errs := Validate(req, false); !ok {
		t.Fatalf("expected valid request, got errors: %v", errs)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		req     map[string]interface{}
		field   string
		message string
	}{
		{
			name:    "missing text_content",
			req:     map[string]interface{}{"voice_model_id": "voice-1"},
			field:   "text_content",
			message: "Text content is required",
		},
		{
			name:    "empty text_content",
			req:     map[string]interface{}{"text_content": "", "voice_model_id": "voice-1"},
			field:   "text_content",
			message: "Text content is required",
		},
		{
			name:    "missing voice_model_id",
			req:     map[string]interface{}{"text_content": "Hello"},
			field:   "voice_model_id",
			message: "Voice model ID is required",
		},
		{
			name:    "null voice_model_id",
			req:     map[string]interface{}{"text_content": "Hello", "voice_model_id": nil},
			field:   "voice_model_id",
			message: "Voice model ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, errs := Validate(tt.req, false)
			if ok {
				t.Fatal("expected invalid request")
			}
			if errs[tt.field] != tt.message {
				t.Errorf("expected %q for %s, got %q", tt.message, tt.field, errs[tt.field])
			}
		})
	}
}

func TestValidateUpdateSkipsRequiredFields(t *testing.T) {
	// Partial update: neither required field present, only speed changed.
	req := map[string]interface{}{"speed": 2.0}

	ok, errs := Validate(req, true)
	if !ok {
		t.Fatalf("expected valid partial update, got errors: %v", errs)
	}

	// Field validations still apply in update mode when present.
	req["speed"] = 5.0
	ok, errs = Validate(req, true)
	if ok {
		t.Fatal("expected out-of-range speed to fail in update mode")
	}
	if errs["speed"] != "Speed must be between 0.1 and 3.0" {
		t.Errorf("unexpected message: %q", errs["speed"])
	}
}

func TestValidateNumericRanges(t *testing.T) {
	tests := []struct {
		field   string
		value   interface{}
		message string
	}{
		{"speed", 0.05, "Speed must be between 0.1 and 3.0"},
		{"speed", 3.01, "Speed must be between 0.1 and 3.0"},
		{"speed", "fast", "Speed must be a valid number"},
		{"pitch", -1.0, "Pitch must be between 0.1 and 3.0"},
		{"pitch", map[string]interface{}{}, "Pitch must be a valid number"},
		{"volume", 2.5, "Volume must be between 0.0 and 2.0"},
		{"volume", "loud", "Volume must be a valid number"},
	}

	for _, tt := range tests {
		req := map[string]interface{}{
			"text_content":   "Hello",
			"voice_model_id": "voice-1",
			tt.field:         tt.value,
		}

		ok, errs := Validate(req, false)
		if ok {
			t.Errorf("%s=%v: expected invalid", tt.field, tt.value)
			continue
		}
		if errs[tt.field] != tt.message {
			t.Errorf("%s=%v: expected %q, got %q", tt.field, tt.value, tt.message, errs[tt.field])
		}
	}
}

func TestValidateRangeBoundsInclusive(t *testing.T) {
	for _, v := range []float64{0.1, 3.0} {
		req := map[string]interface{}{
			"text_content":   "Hello",
			"voice_model_id": "voice-1",
			"speed":          v,
			"pitch":          v,
		}
		if ok, errs := Validate(req, false); !ok {
			t.Errorf("boundary %v should be valid, got %v", v, errs)
		}
	}

	for _, v := range []float64{0.0, 2.0} {
		req := map[string]interface{}{
			"text_content":   "Hello",
			"voice_model_id": "voice-1",
			"volume":         v,
		}
		if ok, errs := Validate(req, false); !ok {
			t.Errorf("volume boundary %v should be valid, got %v", v, errs)
		}
	}
}

func TestValidateNumericStringsCoerce(t *testing.T) {
	req := map[string]interface{}{
		"text_content":   "Hello",
		"voice_model_id": "voice-1",
		"speed":          "1.5",
		"sample_rate":    "22050",
	}

	if ok, errs := Validate(req, false); !ok {
		t.Fatalf("numeric strings should coerce, got errors: %v", errs)
	}
}

func TestValidateSampleRate(t *testing.T) {
	// Every enumerated rate is valid.
	for _, rate := range []float64{8000, 16000, 22050, 44100, 48000} {
		req := map[string]interface{}{
			"text_content":   "Hello",
			"voice_model_id": "voice-1",
			"sample_rate":    rate,
		}
		if ok, errs := Validate(req, false); !ok {
			t.Errorf("sample_rate=%v should be valid, got %v", rate, errs)
		}
	}

	// Numeric but not enumerated: range-style message.
	req := map[string]interface{}{
		"text_content":   "Hello",
		"voice_model_id": "voice-1",
		"sample_rate":    float64(44101),
	}
	ok, errs := Validate(req, false)
	if ok {
		t.Fatal("expected 44101 to be rejected")
	}
	if errs["sample_rate"] != "Sample rate must be one of: 8000, 16000, 22050, 44100, 48000" {
		t.Errorf("unexpected message: %q", errs["sample_rate"])
	}

	// Non-numeric: distinct coercion message.
	req["sample_rate"] = "cd-quality"
	ok, errs = Validate(req, false)
	if ok {
		t.Fatal("expected non-numeric sample_rate to be rejected")
	}
	if errs["sample_rate"] != "Sample rate must be a valid integer" {
		t.Errorf("unexpected message: %q", errs["sample_rate"])
	}

	// Fractional values cannot coerce to an integer.
	req["sample_rate"] = 22050.5
	ok, errs = Validate(req, false)
	if ok {
		t.Fatal("expected fractional sample_rate to be rejected")
	}
	if errs["sample_rate"] != "Sample rate must be a valid integer" {
		t.Errorf("unexpected message: %q", errs["sample_rate"])
	}
}

func TestValidateOutputFormat(t *testing.T) {
	for _, format := range []string{"wav", "mp3", "flac", "ogg"} {
		req := map[string]interface{}{
			"text_content":   "Hello",
			"voice_model_id": "voice-1",
			"output_format":  format,
		}
		if ok, errs := Validate(req, false); !ok {
			t.Errorf("output_format=%q should be valid, got %v", format, errs)
		}
	}

	for _, bad := range []interface{}{"aac", "WAV", 7} {
		req := map[string]interface{}{
			"text_content":   "Hello",
			"voice_model_id": "voice-1",
			"output_format":  bad,
		}
		ok, errs := Validate(req, false)
		if ok {
			t.Errorf("output_format=%v should be rejected", bad)
			continue
		}
		if errs["output_format"] != "Output format must be one of: wav, mp3, flac, ogg" {
			t.Errorf("unexpected message: %q", errs["output_format"])
		}
	}
}

func TestValidateCollectsAllFieldErrors(t *testing.T) {
	req := map[string]interface{}{
		"speed":       "fast",
		"volume":      9.0,
		"sample_rate": 123,
	}

	ok, errs := Validate(req, false)
	if ok {
		t.Fatal("expected invalid request")
	}

	// Two required + three field failures, one message each.
	if len(errs) != 5 {
		t.Errorf("expected 5 field errors, got %d: %v", len(errs), errs)
	}
}
