package symbols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/embedding"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
)

func TestExtractEmitsOneSymbolPerRecognizedNode(t *testing.T) {
	parse := parser.Result{
		Nodes: []parser.Node{
			{Kind: parser.KindFunction, Name: "Hello", StartLine: 3, RawText: "func Hello() {}", Visibility: "exported"},
			{Kind: parser.KindVariable, Name: "unused", StartLine: 1, Visibility: "internal"},
		},
	}
	e := New(nil, DefaultConfig())
	got, err := e.Extract(context.Background(), model.CodeFile{RepoPath: "r", FilePath: "f.go"}, parse)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Hello", got[0].SymbolName)
	assert.Equal(t, model.ScopeExported, got[0].Scope)
	assert.Equal(t, model.ScopeInternal, got[1].Scope)
}

func TestExtractRecursesIntoClassChildren(t *testing.T) {
	parse := parser.Result{
		Nodes: []parser.Node{
			{
				Kind: parser.KindClass, Name: "Widget", StartLine: 1, Visibility: "exported",
				Children: []parser.Node{
					{Kind: parser.KindMethod, Name: "Render", StartLine: 2, Visibility: "exported"},
				},
			},
		},
	}
	e := New(nil, DefaultConfig())
	got, err := e.Extract(context.Background(), model.CodeFile{}, parse)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Widget", got[0].SymbolName)
	assert.Equal(t, "Render", got[1].SymbolName)
}

func TestExtractMarksExportedViaExportList(t *testing.T) {
	parse := parser.Result{
		Nodes: []parser.Node{
			{Kind: parser.KindFunction, Name: "helper", StartLine: 1, Visibility: "internal"},
		},
		Exports: []parser.Export{{Symbols: []string{"helper"}}},
	}
	e := New(nil, DefaultConfig())
	got, err := e.Extract(context.Background(), model.CodeFile{}, parse)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ScopeExported, got[0].Scope)
}

func TestExtractPopulatesEmbeddingsWhenEmbedderProvided(t *testing.T) {
	embedder, err := embedding.New(embedding.NewMockProvider(8), embedding.DefaultConfig(), nil)
	require.NoError(t, err)
	defer embedder.Close()

	e := New(embedder, DefaultConfig())
	parse := parser.Result{Nodes: []parser.Node{
		{Kind: parser.KindFunction, Name: "Hello", StartLine: 1, RawText: "func Hello() {}"},
	}}
	got, err := e.Extract(context.Background(), model.CodeFile{}, parse)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Embedding, 8)
}

func TestTruncateLongDefinition(t *testing.T) {
	cfg := Config{MaxDefinitionChars: 5}
	e := New(nil, cfg)
	parse := parser.Result{Nodes: []parser.Node{
		{Kind: parser.KindFunction, Name: "f", RawText: "0123456789"},
	}}
	got, err := e.Extract(context.Background(), model.CodeFile{}, parse)
	require.NoError(t, err)
	assert.True(t, len(got[0].Definition) < 10)
}
