package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
)

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) ModelName() string { return "stub-model" }
func (s *stubClient) Summarize(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func TestSummarizeUsesLLMWhenAvailable(t *testing.T) {
	g := New(&stubClient{text: "a helpful paragraph"}, DefaultConfig())
	result := g.Summarize(context.Background(), model.CodeFile{Language: "go"}, "package demo\n", parser.Result{})

	assert.Equal(t, MethodLLM, result.Method)
	assert.Equal(t, "a helpful paragraph", result.Text)
	assert.Equal(t, "stub-model", result.ModelName)
}

func TestSummarizeFallsBackOnLLMError(t *testing.T) {
	g := New(&stubClient{err: errors.New("boom")}, DefaultConfig())
	parse := parser.Result{Nodes: []parser.Node{
		{Kind: parser.KindFunction, Name: "Hello"},
	}}
	result := g.Summarize(context.Background(), model.CodeFile{Language: "go"}, "package demo\n", parse)

	require.Equal(t, MethodRuleBased, result.Method)
	assert.Contains(t, result.Text, "Hello")
	assert.Empty(t, result.ModelName)
}

func TestSummarizeRuleBasedIsDeterministic(t *testing.T) {
	g := New(nil, DefaultConfig())
	file := model.CodeFile{Language: "go"}
	parse := parser.Result{
		Nodes: []parser.Node{
			{Kind: parser.KindClass, Name: "Widget"},
			{Kind: parser.KindFunction, Name: "NewWidget"},
		},
		Imports: []parser.Import{{Source: "fmt"}},
	}

	first := g.Summarize(context.Background(), file, "package demo\n", parse)
	second := g.Summarize(context.Background(), file, "package demo\n", parse)

	assert.Equal(t, MethodRuleBased, first.Method)
	assert.Equal(t, first.Text, second.Text)
	assert.Contains(t, first.Text, "Widget")
	assert.Contains(t, first.Text, "NewWidget")
	assert.Contains(t, first.Text, "1 package(s)")
}

func TestSummarizeHandlesNoDeclarations(t *testing.T) {
	g := New(nil, DefaultConfig())
	result := g.Summarize(context.Background(), model.CodeFile{Language: "text"}, "hello\n", parser.Result{})
	assert.Contains(t, result.Text, "no top-level declarations")
}
