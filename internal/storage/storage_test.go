package storage

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestSaveReadRemove(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	jobID := uuid.New()
	path := s.OutputPath(jobID, "wav")

	if err := s.Save(path, []byte("audio-bytes")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !s.Exists(path) {
		t.Error("expected file to exist after save")
	}

	data, err := s.Read(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("unexpected content %q", data)
	}

	if err := s.Remove(path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if s.Exists(path) {
		t.Error("expected file to be gone after remove")
	}

	// Removing again is idempotent.
	if err := s.Remove(path); err != nil {
		t.Errorf("second remove should succeed: %v", err)
	}
}

func TestPathLayout(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	jobID := uuid.New()
	if got := s.OutputPath(jobID, "mp3"); filepath.Base(got) != jobID.String()+".mp3" {
		t.Errorf("unexpected output filename %q", filepath.Base(got))
	}
	if got := s.CachePath("cache-123", "wav"); filepath.Base(got) != "cache-123.wav" {
		t.Errorf("unexpected cache filename %q", filepath.Base(got))
	}
	if !filepath.IsAbs(s.OutputPath(jobID, "wav")) {
		t.Error("output paths should be absolute")
	}
}

func TestRejectsPathsOutsideRoot(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := s.Save("/etc/voxify-test", []byte("x")); err == nil {
		t.Error("expected save outside root to fail")
	}
	if _, err := s.Read(filepath.Join(s.Root(), "..", "escape.wav")); err == nil {
		t.Error("expected read outside root to fail")
	}
}
