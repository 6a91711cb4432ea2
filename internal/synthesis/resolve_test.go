package synthesis

import (
	"context"
	"errors"
	"testing"

	"github.com/montagy/voxify/internal/models"
)

// mockStore is an in-memory Store with optional injected failures.
type mockStore struct {
	jobs    map[string]*models.SynthesisJob
	entries map[string]*models.CacheEntry

	jobErr   error
	entryErr error

	jobLookups   int
	entryLookups int
}

func (m *mockStore) FindJob(_ context.Context, jobID string) (*models.SynthesisJob, error) {
	m.jobLookups++
	if m.jobErr != nil {
		return nil, m.jobErr
	}
	return m.jobs[jobID], nil
}

func (m *mockStore) FindCacheEntry(_ context.Context, cacheID string) (*models.CacheEntry, error) {
	m.entryLookups++
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	return m.entries[cacheID], nil
}

func strPtr(s string) *string { return &s }

func TestResolveUnknownJob(t *testing.T) {
	store := &mockStore{jobs: map[string]*models.SynthesisJob{}}
	r := NewResolver(store)

	out, err := r.ResolveOutputFile(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil output for unknown job, got %+v", out)
	}
	if store.entryLookups != 0 {
		t.Error("no cache lookup should happen for an unknown job")
	}
}

func TestResolveCacheHit(t *testing.T) {
	store := &mockStore{
		jobs: map[string]*models.SynthesisJob{
			"job-1": {
				CacheHit:       true,
				CachedResultID: strPtr("cache-123"),
			},
		},
		entries: map[string]*models.CacheEntry{
			"cache-123": {ID: "cache-123", OutputPath: "/path/to/cached/file.wav"},
		},
	}
	r := NewResolver(store)

	out, err := r.ResolveOutputFile(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatal("expected an output file")
	}
	if out.Path != "/path/to/cached/file.wav" {
		t.Errorf("unexpected path %q", out.Path)
	}
	if out.Filename != "file.wav" {
		t.Errorf("unexpected filename %q", out.Filename)
	}
	if out.CacheEntryID != "cache-123" {
		t.Errorf("unexpected cache entry id %q", out.CacheEntryID)
	}
	if store.jobLookups != 1 || store.entryLookups != 1 {
		t.Errorf("expected exactly 1 job + 1 cache lookup, got %d + %d",
			store.jobLookups, store.entryLookups)
	}
}

func TestResolveDirectOutput(t *testing.T) {
	store := &mockStore{
		jobs: map[string]*models.SynthesisJob{
			"job-1": {
				CacheHit:   false,
				OutputPath: strPtr("/path/to/direct/output.wav"),
			},
		},
	}
	r := NewResolver(store)

	out, err := r.ResolveOutputFile(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatal("expected an output file")
	}
	if out.Path != "/path/to/direct/output.wav" || out.Filename != "output.wav" {
		t.Errorf("unexpected result %+v", out)
	}
	if out.CacheEntryID != "" {
		t.Errorf("direct output must not carry a cache entry id, got %q", out.CacheEntryID)
	}
	if store.entryLookups != 0 {
		t.Error("no cache lookup should happen when cache is not claimed")
	}
}

func TestResolveEvictedCacheFallsBackToDirect(t *testing.T) {
	store := &mockStore{
		jobs: map[string]*models.SynthesisJob{
			"job-1": {
				CacheHit:       true,
				CachedResultID: strPtr("cache-123"),
				OutputPath:     strPtr("/path/to/direct/output.wav"),
			},
		},
		entries: map[string]*models.CacheEntry{}, // entry evicted
	}
	r := NewResolver(store)

	out, err := r.ResolveOutputFile(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatal("expected fallback to the direct output")
	}
	if out.Path != "/path/to/direct/output.wav" || out.Filename != "output.wav" {
		t.Errorf("unexpected result %+v", out)
	}
	if out.CacheEntryID != "" {
		t.Errorf("fallback must not report a cache entry id, got %q", out.CacheEntryID)
	}
}

func TestResolveEvictedCacheNoDirectOutput(t *testing.T) {
	store := &mockStore{
		jobs: map[string]*models.SynthesisJob{
			"job-1": {
				CacheHit:       true,
				CachedResultID: strPtr("cache-123"),
			},
		},
		entries: map[string]*models.CacheEntry{},
	}
	r := NewResolver(store)

	out, err := r.ResolveOutputFile(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil output, got %+v", out)
	}
}

func TestResolveJobWithoutOutput(t *testing.T) {
	store := &mockStore{
		jobs: map[string]*models.SynthesisJob{
			"job-1": {Status: models.JobStatusPending},
		},
	}
	r := NewResolver(store)

	out, err := r.ResolveOutputFile(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Errorf("pending job has nothing to serve, got %+v", out)
	}
}

func TestResolvePropagatesStoreFailures(t *testing.T) {
	connErr := errors.New("connection refused")

	store := &mockStore{jobErr: connErr}
	r := NewResolver(store)
	if _, err := r.ResolveOutputFile(context.Background(), "job-1"); !errors.Is(err, connErr) {
		t.Errorf("job lookup failure must propagate, got %v", err)
	}

	store = &mockStore{
		jobs: map[string]*models.SynthesisJob{
			"job-1": {CacheHit: true, CachedResultID: strPtr("cache-123")},
		},
		entryErr: connErr,
	}
	r = NewResolver(store)
	if _, err := r.ResolveOutputFile(context.Background(), "job-1"); !errors.Is(err, connErr) {
		t.Errorf("cache lookup failure must propagate, got %v", err)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/path/to/file.wav", "file.wav"},
		{"file.wav", "file.wav"},
		{"", ""},
		{"/path/with/trailing/", ""},
		{"/file.wav", "file.wav"},
	}

	for _, tt := range tests {
		if got := baseName(tt.path); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
