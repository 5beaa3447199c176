package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
)

func TestChunkEmitsFileSummaryAndImportBlock(t *testing.T) {
	content := "package demo\n\nimport (\n\t\"fmt\"\n)\n\nfunc Hello() {\n\tfmt.Println(\"hi\")\n}\n"
	f := parser.NewFacade()
	f.Register(parser.NewGoParser())
	result := f.Parse([]byte(content), "demo.go")

	c := New(DefaultConfig())
	out := c.Chunk(model.CodeFile{RepoPath: "r", FilePath: "demo.go", Language: "go"}, result, content)

	require.NotEmpty(t, out.Chunks)
	assert.Equal(t, model.ChunkFileSummary, out.Chunks[0].ChunkType)

	var sawImport, sawFunc bool
	for _, chunk := range out.Chunks {
		switch chunk.ChunkType {
		case model.ChunkImportBlock:
			sawImport = true
		case model.ChunkFunction:
			sawFunc = true
			assert.Equal(t, "Hello", chunk.Metadata["function_names"].([]string)[0])
		}
		assert.NotEmpty(t, chunk.ChunkID)
		assert.GreaterOrEqual(t, chunk.TokenCount, 1)
	}
	assert.True(t, sawImport)
	assert.True(t, sawFunc)
}

func TestChunkMergesSmallFunctionsIntoBlock(t *testing.T) {
	content := "package demo\n\nfunc A() {}\n\nfunc B() {}\n\nfunc C() {}\n"
	f := parser.NewFacade()
	f.Register(parser.NewGoParser())
	result := f.Parse([]byte(content), "demo.go")

	cfg := DefaultConfig()
	cfg.ChunkSizeMin = 5 // force these 1-line funcs to be "small"
	c := New(cfg)
	out := c.Chunk(model.CodeFile{RepoPath: "r", FilePath: "demo.go", Language: "go"}, result, content)

	var blockCount, funcCount int
	for _, chunk := range out.Chunks {
		if chunk.ChunkType == model.ChunkBlock {
			blockCount++
		}
		if chunk.ChunkType == model.ChunkFunction {
			funcCount++
		}
	}
	assert.Zero(t, funcCount)
	assert.Equal(t, 1, blockCount)
}

func TestChunkUsesFallbackWindowsWhenNoStructuralNodes(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("some unrecognized content line\n")
	}
	content := b.String()

	result := parser.Result{Success: true, UsedFallback: true}
	c := New(DefaultConfig())
	out := c.Chunk(model.CodeFile{RepoPath: "r", FilePath: "notes.txt", Language: "text"}, result, content)

	require.NotEmpty(t, out.Chunks)
	// first chunk is always file_summary, rest should be fallback windows
	for _, chunk := range out.Chunks[1:] {
		assert.Equal(t, model.ChunkFallback, chunk.ChunkType)
	}
}

func TestChunkEmitsStructureOnlyForLargeFiles(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("line\n")
	}
	content := b.String()

	cfg := DefaultConfig()
	cfg.LargeFileThreshold = 5
	c := New(cfg)

	result := parser.Result{Success: true, Nodes: []parser.Node{{Kind: parser.KindFunction, Name: "Foo", StartLine: 1, EndLine: 2}}}
	out := c.Chunk(model.CodeFile{RepoPath: "r", FilePath: "big.go", Language: "go"}, result, content)

	require.Len(t, out.Chunks, 1)
	assert.Equal(t, model.ChunkStructureOnly, out.Chunks[0].ChunkType)
}
