// Package diff implements IncrementalDiff (C7): classifying discovered
// files against the store's recorded hashes into new/unchanged/modified/
// deleted buckets, and applying the resulting plan.
//
// Grounded on the teacher's internal/indexer/change_detector.go
// mtime-fast-path/hash-compare algorithm, generalized to a pure hash
// comparison since the Store abstraction here is not assumed to persist
// mtimes.
package diff

import (
	"context"
)

// Bucket classifies a single file's disk-vs-store status.
type Bucket string

const (
	BucketNew       Bucket = "new"
	BucketUnchanged Bucket = "unchanged"
	BucketModified  Bucket = "modified"
	BucketDeleted   Bucket = "deleted"
)

// HashLookup is the store collaborator: {file_path -> file_hash} for one
// repo, per spec.md C7.
type HashLookup interface {
	FileHashes(ctx context.Context, repoPath string) (map[string]string, error)
}

// Deleter removes all rows keyed by (repo_path, file_path), cascading to
// files/chunks/symbols, per spec.md C7 apply().
type Deleter interface {
	DeleteFile(ctx context.Context, repoPath, filePath string) error
}

// Discovered is the minimal shape IncrementalDiff needs from a discovered
// file.
type Discovered struct {
	FilePath string
	FileHash string
}

// Plan is the classify() return value, per spec.md C7.
type Plan struct {
	ToProcess []string // new ∪ modified
	ToDelete  []string
}

// Stats exposes per-bucket counts and a skip rate.
type Stats struct {
	New       int
	Unchanged int
	Modified  int
	Deleted   int
}

func (s Stats) Total() int { return s.New + s.Unchanged + s.Modified + s.Deleted }

// SkipRate is the fraction of files that needed no reprocessing.
func (s Stats) SkipRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Unchanged) / float64(total)
}

// Differ implements C7.
type Differ struct {
	store HashLookup
}

func New(store HashLookup) *Differ {
	return &Differ{store: store}
}

// Classify implements classify(repo_path, discovered[]) -> (plan, stats).
func (d *Differ) Classify(ctx context.Context, repoPath string, discovered []Discovered) (Plan, Stats, error) {
	stored, err := d.store.FileHashes(ctx, repoPath)
	if err != nil {
		return Plan{}, Stats{}, err
	}

	var plan Plan
	var stats Stats
	seen := make(map[string]bool, len(discovered))

	for _, f := range discovered {
		seen[f.FilePath] = true
		storedHash, existed := stored[f.FilePath]
		switch {
		case !existed:
			stats.New++
			plan.ToProcess = append(plan.ToProcess, f.FilePath)
		case storedHash == f.FileHash:
			stats.Unchanged++
		default:
			stats.Modified++
			plan.ToProcess = append(plan.ToProcess, f.FilePath)
		}
	}

	for filePath := range stored {
		if !seen[filePath] {
			stats.Deleted++
			plan.ToDelete = append(plan.ToDelete, filePath)
		}
	}

	return plan, stats, nil
}

// Apply implements apply(plan) -> (), deleting all rows for every deleted
// or modified file before the orchestrator re-inserts fresh rows for the
// modified set.
func (d *Differ) Apply(ctx context.Context, deleter Deleter, repoPath string, plan Plan, modified []string) error {
	for _, filePath := range plan.ToDelete {
		if err := deleter.DeleteFile(ctx, repoPath, filePath); err != nil {
			return err
		}
	}
	for _, filePath := range modified {
		if err := deleter.DeleteFile(ctx, repoPath, filePath); err != nil {
			return err
		}
	}
	return nil
}
