package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage is the local audio file store. Synthesized outputs, cached
// results, and uploaded voice samples all live under one root:
//
//	<root>/samples/<sample_id>.<format>
//	<root>/outputs/<job_id>.<format>
//	<root>/cache/<cache_id>.<format>
//
// Paths recorded in the database are absolute so the download handler can
// serve them directly.
type Storage struct {
	root string
}

func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}

	for _, dir := range []string{"samples", "outputs", "cache"} {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
		}
	}

	return &Storage{root: abs}, nil
}

func (s *Storage) Root() string {
	return s.root
}

// SamplePath returns the storage path for an uploaded voice sample.
func (s *Storage) SamplePath(sampleID uuid.UUID, format string) string {
	return filepath.Join(s.root, "samples", sampleID.String()+"."+format)
}

// OutputPath returns the storage path for a job's direct synthesis output.
func (s *Storage) OutputPath(jobID uuid.UUID, format string) string {
	return filepath.Join(s.root, "outputs", jobID.String()+"."+format)
}

// CachePath returns the storage path for a shared cached result.
func (s *Storage) CachePath(cacheID, format string) string {
	return filepath.Join(s.root, "cache", cacheID+"."+format)
}

// Save writes audio data to a path inside the store.
func (s *Storage) Save(path string, data []byte) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Read loads a stored file.
func (s *Storage) Read(path string) ([]byte, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Remove deletes a stored file. A missing file is not an error — delete is
// idempotent so record cleanup never fails on an already-gone file.
func (s *Storage) Remove(path string) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a stored file is present on disk.
func (s *Storage) Exists(path string) bool {
	if err := s.checkPath(path); err != nil {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// checkPath rejects paths outside the storage root.
func (s *Storage) checkPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid storage path %s: %w", path, err)
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside the storage root", path)
	}
	return nil
}
