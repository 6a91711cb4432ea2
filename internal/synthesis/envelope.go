package synthesis

import (
	"fmt"
	"time"
)

// ErrorEnvelope wraps an error into the uniform API response body. When code
// is empty it is derived from the HTTP status ("ERROR_404", "ERROR_500", ...).
func ErrorEnvelope(message, code string, httpStatus int) map[string]interface{} {
	if code == "" {
		code = fmt.Sprintf("ERROR_%d", httpStatus)
	}
	return map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"message":   message,
			"code":      code,
			"timestamp": timestamp(),
		},
	}
}

// SuccessEnvelope wraps a result into the uniform API response body.
// The data and message keys are present only when non-nil/non-empty.
func SuccessEnvelope(data interface{}, message string) map[string]interface{} {
	env := map[string]interface{}{
		"success":   true,
		"timestamp": timestamp(),
	}
	if data != nil {
		env["data"] = data
	}
	if message != "" {
		env["message"] = message
	}
	return env
}

// timestamp returns the current time in ISO-8601 UTC.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
