package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
)

func TestIndexChunksAndSearchMatches(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.IndexChunks(ctx, []model.CodeChunk{
		{ChunkID: "c1", FilePath: "auth.go", Language: "go", Content: "func Login(user string) error"},
		{ChunkID: "c2", FilePath: "billing.go", Language: "go", Content: "func ChargeCard(amount int) error"},
	}))

	results, err := idx.Search(ctx, "Login", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "c1", results[0].ID)
}

func TestIndexEndpointsAndSearchAPIContracts(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.IndexEndpoints(ctx, []model.APIEndpoint{
		{ServiceID: "billing", Method: "POST", Path: "/v1/charges"},
	}))

	results, err := idx.Search(ctx, "charges", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchFiltersByLanguage(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.IndexChunks(ctx, []model.CodeChunk{
		{ChunkID: "c1", FilePath: "a.go", Language: "go", Content: "parseToken"},
		{ChunkID: "c2", FilePath: "a.ts", Language: "typescript", Content: "parseToken"},
	}))

	results, err := idx.Search(ctx, "parseToken", Options{Language: "go"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "c1", results[0].ID)
}

func TestUpdateIncrementalDeletesAndUpserts(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.IndexChunks(ctx, []model.CodeChunk{
		{ChunkID: "c1", FilePath: "a.go", Language: "go", Content: "oldContent"},
	}))

	require.NoError(t, idx.UpdateIncremental(ctx, []Document{
		{ID: "c2", Text: "newContent", FilePath: "b.go", Language: "go", Kind: "chunk"},
	}, []string{"c1"}))

	results, err := idx.Search(ctx, "oldContent", Options{})
	require.NoError(t, err)
	require.Empty(t, results)

	results, err = idx.Search(ctx, "newContent", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
}
