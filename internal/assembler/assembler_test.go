package assembler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
)

func TestAssembleComputesTokenCount(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{
		Query: "q",
		Files: []model.CodeFile{{FilePath: "a.go"}},
		Chunks: []model.CodeChunk{
			{ChunkID: "c1", FilePath: "a.go", TokenCount: 100},
			{ChunkID: "c2", FilePath: "a.go", TokenCount: 50},
		},
		Symbols: []model.CodeSymbol{{SymbolName: "Foo"}},
		Imports: []ImportChain{{FilePath: "b.go", ImportedFrom: "a.go"}},
	})
	require.Equal(t, 100+50+50+30, ctx.TokenCount)
}

func TestAssembleWarnsOnContextSizeThreshold(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{
		Files:             []model.CodeFile{{FilePath: "a.go"}},
		Chunks:            []model.CodeChunk{{ChunkID: "c1", FilePath: "a.go", TokenCount: 200}},
		WarnContextTokens: 100,
	})
	require.Contains(t, codes(ctx.Warnings), WarningContextSize)
}

func TestAssembleWarnsPartialResultsWhenNoFiles(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{})
	require.Contains(t, codes(ctx.Warnings), WarningPartialResults)
}

func TestAssembleWarnsPartialResultsWhenFilesButNoChunks(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{Files: []model.CodeFile{{FilePath: "a.go"}}})
	require.Contains(t, codes(ctx.Warnings), WarningPartialResults)
}

func TestAssembleWarnsOnBoundaryCrossedImport(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{
		Files:  []model.CodeFile{{FilePath: "a.go"}},
		Chunks: []model.CodeChunk{{ChunkID: "c1", FilePath: "a.go", TokenCount: 1}},
		Imports: []ImportChain{
			{FilePath: "b.go", ImportedFrom: "a.go", CrossWorkspace: true},
		},
	})
	require.Contains(t, codes(ctx.Warnings), WarningBoundaryCrossed)
}

func TestAssembleWarnsOnOutdatedReference(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{
		Files:  []model.CodeFile{{FilePath: "a.go"}},
		Chunks: []model.CodeChunk{{ChunkID: "c1", FilePath: "a.go", TokenCount: 1}},
		ReferenceRepoLastIndexed: map[string]time.Time{
			"ref1": time.Now().Add(-100 * 24 * time.Hour),
		},
	})
	require.Contains(t, codes(ctx.Warnings), WarningOutdatedRef)
}

func TestAssembleGroupsByWorkspaceServiceRepo(t *testing.T) {
	a := New()
	ctx := a.Assemble(Input{
		Files: []model.CodeFile{
			{FilePath: "a.go", WorkspaceID: "ws1", ServiceID: "svc1", RepoID: "repo1"},
		},
		Chunks: []model.CodeChunk{
			{ChunkID: "c1", FilePath: "a.go", WorkspaceID: "ws1", ServiceID: "svc1", RepoID: "repo1", TokenCount: 1},
		},
	})
	require.Len(t, ctx.ByWorkspace["ws1"].Files, 1)
	require.Len(t, ctx.ByService["svc1"].Chunks, 1)
	require.Len(t, ctx.ByRepo["repo1"].Files, 1)
}

func codes(warnings []Warning) []string {
	var out []string
	for _, w := range warnings {
		out = append(out, w.Code)
	}
	return out
}
