package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/store"
)

type fakeFileStore struct {
	matches []store.VectorMatch
	files   map[string]model.CodeFile
}

func (f *fakeFileStore) QueryFileSimilarity(queryEmb []float32, limit int) ([]store.VectorMatch, error) {
	return f.matches, nil
}

func (f *fakeFileStore) FilesByIDs(ctx context.Context, keys []string) ([]model.CodeFile, error) {
	var out []model.CodeFile
	for _, k := range keys {
		if file, ok := f.files[k]; ok {
			out = append(out, file)
		}
	}
	return out, nil
}

func TestFileRetrieverFiltersByThreshold(t *testing.T) {
	fs := &fakeFileStore{
		matches: []store.VectorMatch{
			{ID: "r::a.go", Distance: 0.1}, // similarity 0.9
			{ID: "r::b.go", Distance: 0.9}, // similarity 0.1
		},
		files: map[string]model.CodeFile{
			"r::a.go": {RepoPath: "r", FilePath: "a.go"},
			"r::b.go": {RepoPath: "r", FilePath: "b.go"},
		},
	}
	r := NewFileRetriever(fs, nil)
	matches, err := r.Search(context.Background(), []float32{1, 0}, 0.3, 15, Filters{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a.go", matches[0].File.FilePath)
}

func TestFileRetrieverExcludesReferenceReposByDefault(t *testing.T) {
	fs := &fakeFileStore{
		matches: []store.VectorMatch{{ID: "r::a.go", Distance: 0.0}},
		files:   map[string]model.CodeFile{"r::a.go": {RepoPath: "r", FilePath: "a.go", RepoID: "repo1"}},
	}
	lookup := func(repoID string) model.RepoType { return model.RepoTypeReference }
	r := NewFileRetriever(fs, lookup)
	matches, err := r.Search(context.Background(), []float32{1, 0}, 0, 15, Filters{IncludeReferences: false})
	require.NoError(t, err)
	require.Empty(t, matches)

	matches, err = r.Search(context.Background(), []float32{1, 0}, 0, 15, Filters{IncludeReferences: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestFileRetrieverAppliesWorkspaceIncludeFilter(t *testing.T) {
	fs := &fakeFileStore{
		matches: []store.VectorMatch{{ID: "r::a.go", Distance: 0.0}, {ID: "r::b.go", Distance: 0.0}},
		files: map[string]model.CodeFile{
			"r::a.go": {RepoPath: "r", FilePath: "a.go", WorkspaceID: "ws1"},
			"r::b.go": {RepoPath: "r", FilePath: "b.go", WorkspaceID: "ws2"},
		},
	}
	r := NewFileRetriever(fs, nil)
	matches, err := r.Search(context.Background(), []float32{1, 0}, 0, 15, Filters{WorkspaceInclude: []string{"ws1"}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a.go", matches[0].File.FilePath)
}

type fakeChunkStore struct {
	matches   []store.VectorMatch
	chunks    map[string]model.CodeChunk
	lastQuery []float32
}

func (f *fakeChunkStore) QueryChunkSimilarity(queryEmb []float32, limit int) ([]store.VectorMatch, error) {
	f.lastQuery = queryEmb
	return f.matches, nil
}

func (f *fakeChunkStore) ChunksByIDs(ctx context.Context, chunkIDs []string) ([]model.CodeChunk, error) {
	var out []model.CodeChunk
	for _, id := range chunkIDs {
		if c, ok := f.chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestChunkRetrieverPrefersEnhancedVectorWhenPresent(t *testing.T) {
	cs := &fakeChunkStore{
		matches: []store.VectorMatch{{ID: "c1", Distance: 0.0}},
		chunks:  map[string]model.CodeChunk{"c1": {ChunkID: "c1", FilePath: "a.go"}},
	}
	r := NewChunkRetriever(cs, nil)
	matches, err := r.Search(context.Background(), []float32{1, 0}, []float32{0, 1}, 0, 25, Filters{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, []float32{0, 1}, cs.lastQuery)
}

func TestChunkRetrieverTieBreaksByFilePathThenStartLine(t *testing.T) {
	cs := &fakeChunkStore{
		matches: []store.VectorMatch{
			{ID: "c1", Distance: 0.1},
			{ID: "c2", Distance: 0.1},
			{ID: "c3", Distance: 0.1},
		},
		chunks: map[string]model.CodeChunk{
			"c1": {ChunkID: "c1", FilePath: "b.go", StartLine: 1},
			"c2": {ChunkID: "c2", FilePath: "a.go", StartLine: 10},
			"c3": {ChunkID: "c3", FilePath: "a.go", StartLine: 2},
		},
	}
	r := NewChunkRetriever(cs, nil)
	matches, err := r.Search(context.Background(), []float32{1, 0}, nil, 0, 25, Filters{})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "c3", matches[0].Chunk.ChunkID)
	require.Equal(t, "c2", matches[1].Chunk.ChunkID)
	require.Equal(t, "c1", matches[2].Chunk.ChunkID)
}

type fakeSymbolStore struct {
	byName map[string][]model.CodeSymbol
}

func (f *fakeSymbolStore) SymbolsByName(ctx context.Context, name string, scope model.SymbolScope) ([]model.CodeSymbol, error) {
	return f.byName[name], nil
}

func TestSymbolResolverTokenizesAndDeduplicates(t *testing.T) {
	ss := &fakeSymbolStore{byName: map[string][]model.CodeSymbol{
		"Hello": {{RepoPath: "r", FilePath: "a.go", SymbolName: "Hello", Definition: "func Hello()"}},
	}}
	r := NewSymbolResolver(ss)
	resolved, err := r.Resolve(context.Background(), "where is Hello Hello defined?", "", 50)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
}

func TestSymbolResolverCapsAtMaxUsages(t *testing.T) {
	ss := &fakeSymbolStore{byName: map[string][]model.CodeSymbol{
		"Alpha": {
			{RepoPath: "r", FilePath: "a.go", SymbolName: "Alpha", Definition: "def 1"},
			{RepoPath: "r", FilePath: "b.go", SymbolName: "Alpha", Definition: "def 2"},
		},
	}}
	r := NewSymbolResolver(ss)
	resolved, err := r.Resolve(context.Background(), "Alpha", "", 1)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
}
