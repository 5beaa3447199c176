package graphindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
)

type fakeFiles struct {
	byKey map[string]model.CodeFile
}

func (f *fakeFiles) FilesByIDs(ctx context.Context, keys []string) ([]model.CodeFile, error) {
	var out []model.CodeFile
	for _, k := range keys {
		if file, ok := f.byKey[k]; ok {
			out = append(out, file)
		}
	}
	return out, nil
}

type fakeAliases struct {
	byRepo map[string][]model.WorkspaceAlias
}

func (f *fakeAliases) AliasesForRepo(ctx context.Context, repoID string) ([]model.WorkspaceAlias, error) {
	return f.byRepo[repoID], nil
}

func newExpander(t *testing.T, files map[string]model.CodeFile, aliases map[string][]model.WorkspaceAlias) *ImportExpander {
	t.Helper()
	e, err := New(&fakeFiles{byKey: files}, &fakeAliases{byRepo: aliases})
	require.NoError(t, err)
	return e
}

func TestExpandFollowsRelativeImportChain(t *testing.T) {
	files := map[string]model.CodeFile{
		"r::a.go": {RepoPath: "r", FilePath: "a.go", Language: "go", Imports: []model.ImportRef{{Source: "./b"}}},
		"r::b.go": {RepoPath: "r", FilePath: "b.go", Language: "go", Exports: []string{"B"}},
	}
	e := newExpander(t, files, nil)

	chains, err := e.Expand(context.Background(), "r", []string{"a.go"}, Options{Depth: 3})
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.Equal(t, "b.go", chains[0].FilePath)
	require.Equal(t, "a.go", chains[0].ImportedFrom)
	require.Equal(t, 1, chains[0].Depth)
	require.False(t, chains[0].Truncated)
	require.Equal(t, []string{"B"}, chains[0].Exports)
}

func TestExpandResolvesWorkspaceAlias(t *testing.T) {
	files := map[string]model.CodeFile{
		"r::src/a.ts": {RepoPath: "r", FilePath: "src/a.ts", Language: "typescript", RepoID: "repo1", Imports: []model.ImportRef{{Source: "@app/util"}}},
		"r::lib/util.ts": {RepoPath: "r", FilePath: "lib/util.ts", Language: "typescript"},
	}
	aliases := map[string][]model.WorkspaceAlias{
		"repo1": {{RepoID: "repo1", AliasPattern: "@app/", ResolvedPath: "lib/"}},
	}
	e := newExpander(t, files, aliases)

	chains, err := e.Expand(context.Background(), "r", []string{"src/a.ts"}, Options{Depth: 3})
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.Equal(t, "lib/util.ts", chains[0].FilePath)
}

func TestExpandMarksUnresolvableImportAsExternal(t *testing.T) {
	files := map[string]model.CodeFile{
		"r::a.go": {RepoPath: "r", FilePath: "a.go", Language: "go", Imports: []model.ImportRef{{Source: "fmt"}}},
	}
	e := newExpander(t, files, nil)

	chains, err := e.Expand(context.Background(), "r", []string{"a.go"}, Options{Depth: 3})
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.True(t, chains[0].Truncated)
	require.Equal(t, "external_dependency", chains[0].TruncationReason)
}

func TestExpandTruncatesAtDepthLimit(t *testing.T) {
	files := map[string]model.CodeFile{
		"r::a.go": {RepoPath: "r", FilePath: "a.go", Language: "go", Imports: []model.ImportRef{{Source: "./b"}}},
		"r::b.go": {RepoPath: "r", FilePath: "b.go", Language: "go", Imports: []model.ImportRef{{Source: "./c"}}},
		"r::c.go": {RepoPath: "r", FilePath: "c.go", Language: "go"},
	}
	e := newExpander(t, files, nil)

	chains, err := e.Expand(context.Background(), "r", []string{"a.go"}, Options{Depth: 1})
	require.NoError(t, err)
	require.Len(t, chains, 2)

	byPath := map[string]ImportChain{}
	for _, c := range chains {
		byPath[c.FilePath] = c
	}
	require.False(t, byPath["b.go"].Truncated)
	require.True(t, byPath["c.go"].Truncated)
	require.Equal(t, "depth_limit", byPath["c.go"].TruncationReason)
}

func TestExpandMarksCircularImportWithoutReexpanding(t *testing.T) {
	files := map[string]model.CodeFile{
		"r::a.go": {RepoPath: "r", FilePath: "a.go", Language: "go", Imports: []model.ImportRef{{Source: "./b"}}},
		"r::b.go": {RepoPath: "r", FilePath: "b.go", Language: "go", Imports: []model.ImportRef{{Source: "./a"}}},
	}
	e := newExpander(t, files, nil)

	chains, err := e.Expand(context.Background(), "r", []string{"a.go"}, Options{Depth: 3})
	require.NoError(t, err)
	require.Len(t, chains, 2)

	byPath := map[string]ImportChain{}
	for _, c := range chains {
		byPath[c.FilePath] = c
	}
	require.False(t, byPath["b.go"].Circular)
	require.True(t, byPath["a.go"].Circular)
}

func TestExpandTruncatesOnStrictWorkspaceBoundary(t *testing.T) {
	files := map[string]model.CodeFile{
		"r::a.go": {RepoPath: "r", FilePath: "a.go", Language: "go", WorkspaceID: "ws1", Imports: []model.ImportRef{{Source: "./b"}}},
		"r::b.go": {RepoPath: "r", FilePath: "b.go", Language: "go", WorkspaceID: "ws2"},
	}
	e := newExpander(t, files, nil)

	chains, err := e.Expand(context.Background(), "r", []string{"a.go"}, Options{Depth: 3, WorkspaceScope: ScopeStrict})
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.True(t, chains[0].Truncated)
	require.Equal(t, "boundary_crossed", chains[0].TruncationReason)
	require.True(t, chains[0].CrossWorkspace)
}
