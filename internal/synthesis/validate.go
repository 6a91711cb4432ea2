// Package synthesis holds the synthesis-job core: request validation,
// canonical cache-key hashing, and output file resolution. Everything here is
// side-effect free; persistence is reached only through the Store interface
// passed into the Resolver.
package synthesis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	minSpeed  = 0.1
	maxSpeed  = 3.0
	minPitch  = 0.1
	maxPitch  = 3.0
	minVolume = 0.0
	maxVolume = 2.0
)

var validOutputFormats = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"flac": true,
	"ogg":  true,
}

var validSampleRates = map[int]bool{
	8000:  true,
	16000: true,
	22050: true,
	44100: true,
	48000: true,
}

// Validate checks a synthesis request body (a decoded JSON object) against
// the field constraints. In creation mode text_content and voice_model_id are
// required; in update mode (partial update) required-field checks are skipped
// but every field that is present is still validated.
//
// Returns true with an empty map when the request is valid, otherwise false
// with one message per failing field. Type-coercion failures keep their
// distinct "...must be a valid number/integer" messages so clients can tell
// them apart from range errors.
func Validate(req map[string]interface{}, isUpdate bool) (bool, map[string]string) {
	errors := map[string]string{}

	if !isUpdate {
		if isBlank(req["text_content"]) {
			errors["text_content"] = "Text content is required"
		}
		if isBlank(req["voice_model_id"]) {
			errors["voice_model_id"] = "Voice model ID is required"
		}
	}

	validateRange(req, errors, "speed", "Speed", minSpeed, maxSpeed)
	validateRange(req, errors, "pitch", "Pitch", minPitch, maxPitch)
	validateRange(req, errors, "volume", "Volume", minVolume, maxVolume)

	if v, ok := req["sample_rate"]; ok {
		rate, convertible := toInt(v)
		if !convertible {
			errors["sample_rate"] = "Sample rate must be a valid integer"
		} else if !validSampleRates[rate] {
			errors["sample_rate"] = "Sample rate must be one of: 8000, 16000, 22050, 44100, 48000"
		}
	}

	if v, ok := req["output_format"]; ok {
		format, isString := v.(string)
		if !isString || !validOutputFormats[format] {
			errors["output_format"] = "Output format must be one of: wav, mp3, flac, ogg"
		}
	}

	return len(errors) == 0, errors
}

func validateRange(req map[string]interface{}, errors map[string]string, field, label string, min, max float64) {
	v, ok := req[field]
	if !ok {
		return
	}

	f, convertible := toFloat(v)
	if !convertible {
		errors[field] = label + " must be a valid number"
		return
	}
	if f < min || f > max {
		errors[field] = label + " must be between " + formatBound(min) + " and " + formatBound(max)
	}
}

// isBlank reports whether a required field is effectively absent:
// missing key, JSON null, or an empty/whitespace string.
func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// toFloat coerces the numeric representations a JSON body can carry.
func toFloat(v interface{}) (float64, bool) {
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
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toInt coerces integer inputs. Fractional floats (e.g. 22050.5) are a
// coercion failure, not a rounding opportunity.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

// formatBound renders range bounds the way the API documents them
// (0.0, 0.1, 2.0, 3.0 — always one decimal).
func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
