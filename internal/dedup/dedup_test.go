package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
)

func TestDeduplicateBaseModeDropsNearDuplicate(t *testing.T) {
	candidates := []Candidate{
		{Chunk: model.CodeChunk{ChunkID: "a", RepoPath: "r", Embedding: []float32{1, 0, 0, 0}}, Similarity: 0.9},
		{Chunk: model.CodeChunk{ChunkID: "b", RepoPath: "r", Embedding: []float32{1, 0, 0, 0}}, Similarity: 0.8},
		{Chunk: model.CodeChunk{ChunkID: "c", RepoPath: "r", Embedding: []float32{0, 1, 0, 0}}, Similarity: 0.7},
	}
	result := Deduplicate(candidates, ModeBase, 0.92)
	require.Len(t, result.Kept, 2)
	require.Equal(t, "a", result.DuplicateMap["b"])
}

func TestDeduplicateKeepsDistinctChunks(t *testing.T) {
	candidates := []Candidate{
		{Chunk: model.CodeChunk{ChunkID: "a", RepoPath: "r", Embedding: []float32{1, 0, 0, 0}}, Similarity: 0.9},
		{Chunk: model.CodeChunk{ChunkID: "c", RepoPath: "r", Embedding: []float32{0, 1, 0, 0}}, Similarity: 0.7},
	}
	result := Deduplicate(candidates, ModeBase, 0.92)
	require.Len(t, result.Kept, 2)
	require.Empty(t, result.DuplicateMap)
}

func TestDeduplicatePriorityModeNonReferenceReplacesReference(t *testing.T) {
	candidates := []Candidate{
		{Chunk: model.CodeChunk{ChunkID: "ref", RepoPath: "libA", Embedding: []float32{1, 0, 0, 0}}, Similarity: 0.95, RepoType: model.RepoTypeReference},
		{Chunk: model.CodeChunk{ChunkID: "real", RepoPath: "appB", Embedding: []float32{1, 0, 0, 0}}, Similarity: 0.5, RepoType: model.RepoTypeMonolithic},
	}
	result := Deduplicate(candidates, ModePriority, 0.92)
	require.Len(t, result.Kept, 1)
	require.Equal(t, "real", result.Kept[0].Chunk.ChunkID)
	require.Equal(t, "real", result.DuplicateMap["ref"])
}

func TestDeduplicateInfersPriorityModeAcrossMultipleRepos(t *testing.T) {
	candidates := []Candidate{
		{Chunk: model.CodeChunk{ChunkID: "a", RepoPath: "repo1", Embedding: []float32{1, 0}}, Similarity: 0.9, RepoType: model.RepoTypeMonolithic},
		{Chunk: model.CodeChunk{ChunkID: "b", RepoPath: "repo2", Embedding: []float32{1, 0}}, Similarity: 0.9, RepoType: model.RepoTypeLibrary},
	}
	result := Deduplicate(candidates, "", 0.92)
	require.Len(t, result.Kept, 1)
}
