package synthesis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// CacheKey computes the deterministic cache key for a synthesis request:
// a 64-character hex SHA-256 digest over the text and the canonicalized
// configuration. Key order in config never affects the result, and a nil
// config hashes identically to an empty one.
func CacheKey(text string, config map[string]interface{}) string {
	sum := sha256.Sum256([]byte(text + ":" + canonicalObject(config)))
	return hex.EncodeToString(sum[:])
}

// canonicalObject serializes a decoded-JSON object with sorted keys and
// stable scalar formatting, so semantically equal configs always produce the
// same byte sequence regardless of insertion order or process.
func canonicalObject(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(canonicalValue(k))
		b.WriteByte(':')
		b.WriteString(canonicalValue(m[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func canonicalValue(v interface{}) string {
	switch t := v.(type) {
	case map[string]interface{}:
		return canonicalObject(t)
	case []interface{}:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(canonicalValue(e))
		}
		b.WriteByte(']')
		return b.String()
	default:
		// Scalars: encoding/json formats strings, bools, and numbers
		// deterministically (shortest round-trip form for floats).
		data, err := json.Marshal(t)
		if err != nil {
			return "null"
		}
		return string(data)
	}
}
