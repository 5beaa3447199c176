package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacadeUsesRegisteredGoParser(t *testing.T) {
	f := NewFacade()
	f.Register(NewGoParser())

	src := []byte("package demo\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")
	result := f.Parse(src, "demo.go")

	require.True(t, result.Success)
	require.False(t, result.UsedFallback)
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, "Hello", result.Nodes[0].Name)
	assert.Equal(t, KindFunction, result.Nodes[0].Kind)
	assert.Equal(t, "exported", result.Nodes[0].Visibility)
}

func TestFacadeFallsBackForUnregisteredLanguage(t *testing.T) {
	f := NewFacade()

	src := []byte("export function add(a, b) {\n  return a + b\n}\n")
	result := f.Parse(src, "math.js")

	require.True(t, result.Success)
	require.True(t, result.UsedFallback)
	require.NotEmpty(t, result.Nodes)
}

func TestParseResultLineInvariant(t *testing.T) {
	f := NewFacade()
	f.Register(NewGoParser())
	src := []byte("package demo\n\nfunc A() {}\n\nfunc B() {}\n")
	result := f.Parse(src, "demo.go")
	for _, n := range result.Nodes {
		assert.LessOrEqual(t, n.StartLine, n.EndLine)
	}
}
