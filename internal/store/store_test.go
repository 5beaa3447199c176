package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
)

func init() {
	InitVectorExtension()
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", 8)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchemaAndHealthchecks(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Healthcheck(context.Background()))
}

func TestWriteAndReadFileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	file := model.CodeFile{
		RepoPath: "repo", FilePath: "main.go", Language: "go", LineCount: 10,
		FileHash: "abc123", Summary: "entry point",
	}
	require.NoError(t, s.WriteFile(ctx, file, "package main\n"))

	hashes, err := s.FileHashes(ctx, "repo")
	require.NoError(t, err)
	require.Equal(t, "abc123", hashes["main.go"])
}

func TestDeleteFileCascadesToChunksAndSymbols(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	file := model.CodeFile{RepoPath: "repo", FilePath: "main.go", Language: "go", FileHash: "h1"}
	require.NoError(t, s.WriteFile(ctx, file, "package main\n"))

	chunk := model.CodeChunk{
		ChunkID: "chunk-1", RepoPath: "repo", FilePath: "main.go",
		ChunkType: model.ChunkFunction, Content: "func main() {}", TokenCount: 4,
		Embedding: []float32{1, 2, 3, 4, 5, 6, 7, 8},
	}
	require.NoError(t, s.WriteChunksBatch(ctx, []model.CodeChunk{chunk}))

	sym := model.CodeSymbol{
		RepoPath: "repo", FilePath: "main.go", SymbolName: "main", SymbolType: "function",
		Scope: model.ScopeExported, Embedding: []float32{1, 2, 3, 4, 5, 6, 7, 8},
	}
	require.NoError(t, s.WriteSymbolsBatch(ctx, []model.CodeSymbol{sym}))

	require.NoError(t, s.DeleteFile(ctx, "repo", "main.go"))

	hashes, err := s.FileHashes(ctx, "repo")
	require.NoError(t, err)
	require.Empty(t, hashes)

	chunks, err := s.ChunksByIDs(ctx, []string{"chunk-1"})
	require.NoError(t, err)
	require.Empty(t, chunks)

	syms, err := s.SymbolsByName(ctx, "main", "")
	require.NoError(t, err)
	require.Empty(t, syms)
}

func TestChunkVectorSimilaritySearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks := []model.CodeChunk{
		{ChunkID: "a", RepoPath: "r", FilePath: "a.go", ChunkType: model.ChunkFunction, Content: "a", TokenCount: 1, Embedding: []float32{1, 0, 0, 0, 0, 0, 0, 0}},
		{ChunkID: "b", RepoPath: "r", FilePath: "b.go", ChunkType: model.ChunkFunction, Content: "b", TokenCount: 1, Embedding: []float32{0, 1, 0, 0, 0, 0, 0, 0}},
	}
	require.NoError(t, s.WriteChunksBatch(ctx, chunks))

	matches, err := QueryChunkSimilarity(s.DB(), []float32{1, 0, 0, 0, 0, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a", matches[0].ID)
}

func TestFileVectorSimilaritySearchAndHydration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	files := []model.CodeFile{
		{RepoPath: "r", FilePath: "a.go", Language: "go", Summary: "file a", SummaryEmbedding: []float32{1, 0, 0, 0, 0, 0, 0, 0}},
		{RepoPath: "r", FilePath: "b.go", Language: "go", Summary: "file b", SummaryEmbedding: []float32{0, 1, 0, 0, 0, 0, 0, 0}},
	}
	for _, f := range files {
		require.NoError(t, s.WriteFile(ctx, f, "package main"))
	}

	matches, err := QueryFileSimilarity(s.DB(), []float32{1, 0, 0, 0, 0, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	hydrated, err := s.FilesByIDs(ctx, []string{matches[0].ID})
	require.NoError(t, err)
	require.Len(t, hydrated, 1)
	require.Equal(t, "a.go", hydrated[0].FilePath)
}

func TestRepositoryLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	repo := model.Repository{RepoID: "r1", RepoName: "demo", RepoPath: "/tmp/demo", RepoType: model.RepoTypeLibrary}
	require.NoError(t, s.UpsertRepository(ctx, repo))

	list, err := s.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.RepoTypeLibrary, list[0].RepoType)

	require.NoError(t, s.DeleteRepository(ctx, "r1"))
	list, err = s.ListRepositories(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
