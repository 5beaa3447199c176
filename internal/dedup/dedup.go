// Package dedup implements the Deduplicator (C15): it drops near-duplicate
// chunks from a retrieval result, in base mode (single repo, similarity
// only) or priority mode (multi-repo, repo-type-weighted), per
// SPEC_FULL.md's Open Question decision to keep one Deduplicator with a
// Mode switch rather than two separate types.
//
// There is no direct teacher analogue; the sort-then-greedy-keep shape is
// built fresh from spec.md C15's description, in the teacher's small
// pure-function style (see internal/dedup's siblings internal/apienrich,
// internal/assembler).
package dedup

import (
	"math"
	"sort"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// Mode selects between C15's two documented dedup strategies.
type Mode string

const (
	// ModeBase applies when every candidate chunk belongs to one repo.
	ModeBase Mode = "base"
	// ModePriority applies across repos, weighting by repo-type priority.
	ModePriority Mode = "priority"
)

// DefaultThreshold is spec.md C15's default dedup_threshold.
const DefaultThreshold = 0.92

// Candidate is one chunk entering dedup, carrying the similarity score it
// was retrieved with and the repo_type needed for priority-mode weighting.
type Candidate struct {
	Chunk      model.CodeChunk
	Similarity float64
	RepoType   model.RepoType
}

// Result is C15's output: the surviving candidates plus the
// dropped -> kept duplicate map spec.md names.
type Result struct {
	Kept         []Candidate
	DuplicateMap map[string]string // dropped chunk_id -> kept chunk_id
}

// Deduplicate runs base or priority mode depending on how many distinct
// repos the candidates span, unless mode is forced.
func Deduplicate(candidates []Candidate, mode Mode, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if mode == "" {
		mode = inferMode(candidates)
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sortKey := func(c Candidate) float64 {
		if mode == ModePriority {
			return c.Similarity * priorityOf(c.RepoType)
		}
		return c.Similarity
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) > sortKey(sorted[j])
	})

	var kept []Candidate
	dupMap := make(map[string]string)
	for _, cand := range sorted {
		matchIdx := -1
		for i, k := range kept {
			if cosineSimilarity(cand.Chunk.Embedding, k.Chunk.Embedding) > threshold {
				matchIdx = i
				break
			}
		}
		if matchIdx == -1 {
			kept = append(kept, cand)
			continue
		}

		matched := kept[matchIdx]
		// Priority mode's repo-type-crossing override: a reference result
		// never outlives a non-reference near-duplicate, even if it sorted
		// first on similarity x priority alone.
		if mode == ModePriority && matched.RepoType == model.RepoTypeReference && cand.RepoType != model.RepoTypeReference {
			dupMap[matched.Chunk.ChunkID] = cand.Chunk.ChunkID
			kept[matchIdx] = cand
			continue
		}
		dupMap[cand.Chunk.ChunkID] = matched.Chunk.ChunkID
	}

	return Result{Kept: kept, DuplicateMap: dupMap}
}

func inferMode(candidates []Candidate) Mode {
	repos := make(map[string]bool)
	for _, c := range candidates {
		repos[c.Chunk.RepoPath] = true
	}
	if len(repos) > 1 {
		return ModePriority
	}
	return ModeBase
}

func priorityOf(t model.RepoType) float64 {
	if t == "" {
		return 1.0
	}
	return t.DedupPriority()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
