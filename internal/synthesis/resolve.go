package synthesis

import (
	"context"
	"strings"

	"github.com/montagy/voxify/internal/models"
)

// Store is the persistence accessor the Resolver reads through. Absence of a
// record is NOT an error: implementations return (nil, nil) for an unknown
// ID and reserve the error for genuine persistence failures (which the
// Resolver propagates unchanged).
type Store interface {
	FindJob(ctx context.Context, jobID string) (*models.SynthesisJob, error)
	FindCacheEntry(ctx context.Context, cacheID string) (*models.CacheEntry, error)
}

// OutputFile identifies the physical file backing a job's result.
// CacheEntryID is empty when the file is the job's own direct output.
type OutputFile struct {
	Path         string
	Filename     string
	CacheEntryID string
}

// Resolver determines which file backs a synthesis job's output: the shared
// cached result when the job was a cache hit, otherwise the job's own output,
// with fallback to the direct output when a claimed cache entry has been
// evicted. It performs at most two store reads and never mutates anything.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveOutputFile looks up a job and returns the file serving its result.
// A nil OutputFile (with nil error) means there is nothing to serve: unknown
// job, or a job with neither a live cache entry nor a direct output.
func (r *Resolver) ResolveOutputFile(ctx context.Context, jobID string) (*OutputFile, error) {
	job, err := r.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	if job.CacheHit && job.CachedResultID != nil && *job.CachedResultID != "" {
		entry, err := r.store.FindCacheEntry(ctx, *job.CachedResultID)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return &OutputFile{
				Path:         entry.OutputPath,
				Filename:     baseName(entry.OutputPath),
				CacheEntryID: entry.ID,
			}, nil
		}
		// Cache entry evicted since the job was recorded — fall back to the
		// job's direct output if it has one.
	}

	if job.OutputPath != nil && *job.OutputPath != "" {
		return &OutputFile{
			Path:     *job.OutputPath,
			Filename: baseName(*job.OutputPath),
		}, nil
	}

	return nil, nil
}

// baseName extracts the last path segment. A path with no separator is its
// own filename; an empty path (or trailing separator) yields "".
func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
