package synthesis

import "testing"

func TestCacheKeyShape(t *testing.T) {
	key := CacheKey("Hello world", map[string]interface{}{"speed": 1.0})

	if len(key) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(key))
	}
	for _, c := range key {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("non-hex character %q in key %s", c, key)
		}
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	config := map[string]interface{}{
		"speed":         1.5,
		"pitch":         0.9,
		"output_format": "mp3",
	}

	first := CacheKey("Hello", config)
	for i := 0; i < 10; i++ {
		if got := CacheKey("Hello", config); got != first {
			t.Fatalf("non-deterministic key: %s vs %s", first, got)
		}
	}
}

func TestCacheKeyIgnoresKeyOrder(t *testing.T) {
	// Maps in Go iterate in randomized order, so repeated hashing of the
	// same map already exercises order independence. Build two maps with
	// different insertion orders as well.
	a := map[string]interface{}{}
	a["speed"] = 1.5
	a["pitch"] = 0.9
	a["volume"] = 1.0
	a["sample_rate"] = float64(22050)

	b := map[string]interface{}{}
	b["sample_rate"] = float64(22050)
	b["volume"] = 1.0
	b["pitch"] = 0.9
	b["speed"] = 1.5

	if CacheKey("Hello", a) != CacheKey("Hello", b) {
		t.Error("insertion order changed the cache key")
	}
}

func TestCacheKeyNilEqualsEmpty(t *testing.T) {
	nilKey := CacheKey("Hello", nil)
	emptyKey := CacheKey("Hello", map[string]interface{}{})

	if nilKey != emptyKey {
		t.Errorf("nil and empty config must hash identically: %s vs %s", nilKey, emptyKey)
	}

	nonEmpty := CacheKey("Hello", map[string]interface{}{"a": 1.0})
	if nonEmpty == nilKey {
		t.Error("non-empty config must hash differently from empty")
	}
}

func TestCacheKeyTextSensitivity(t *testing.T) {
	config := map[string]interface{}{"speed": 1.0}

	base := CacheKey("Hello world", config)
	if CacheKey("Hello world!", config) == base {
		t.Error("single-character change did not change the key")
	}
	if CacheKey("hello world", config) == base {
		t.Error("case change did not change the key")
	}
}

func TestCacheKeyConfigSensitivity(t *testing.T) {
	base := CacheKey("Hello", map[string]interface{}{"speed": 1.0})
	changed := CacheKey("Hello", map[string]interface{}{"speed": 1.1})

	if base == changed {
		t.Error("config value change did not change the key")
	}
}

func TestCacheKeyNestedConfig(t *testing.T) {
	a := map[string]interface{}{
		"voice": map[string]interface{}{"id": "v1", "lang": "en"},
		"tags":  []interface{}{"a", "b"},
	}
	b := map[string]interface{}{
		"tags":  []interface{}{"a", "b"},
		"voice": map[string]interface{}{"lang": "en", "id": "v1"},
	}

	if CacheKey("Hello", a) != CacheKey("Hello", b) {
		t.Error("nested maps must canonicalize independent of key order")
	}

	// Slice order is significant.
	c := map[string]interface{}{
		"voice": map[string]interface{}{"id": "v1", "lang": "en"},
		"tags":  []interface{}{"b", "a"},
	}
	if CacheKey("Hello", a) == CacheKey("Hello", c) {
		t.Error("slice element order should affect the key")
	}
}
