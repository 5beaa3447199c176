package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/embedding"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	e, err := embedding.New(embedding.NewMockProvider(8), embedding.DefaultConfig(), nil)
	require.NoError(t, err)
	return New(e)
}

func TestClassifyDetectsCodeSnippetByKeywordCount(t *testing.T) {
	require.Equal(t, TypeCodeSnippet, classify("export async function"))
}

func TestClassifyDetectsCodeSnippetBySymbol(t *testing.T) {
	require.Equal(t, TypeCodeSnippet, classify("x === y"))
}

func TestClassifyDetectsCodeSnippetByStructuralDensity(t *testing.T) {
	require.Equal(t, TypeCodeSnippet, classify("{a:1}"))
}

func TestClassifyDetectsNaturalLanguage(t *testing.T) {
	require.Equal(t, TypeNaturalLanguage, classify("how does authentication work?"))
}

func TestPreprocessStripsTrailingPunctuationForNaturalLanguage(t *testing.T) {
	got := preprocess("  how   does this work?  ", TypeNaturalLanguage)
	require.Equal(t, "how does this work", got)
}

func TestPreprocessKeepsPunctuationForCodeSnippet(t *testing.T) {
	got := preprocess("foo() === bar()", TypeCodeSnippet)
	require.Equal(t, "foo() === bar()", got)
}

func TestEnhancementAppendixIsDeterministic(t *testing.T) {
	a := enhancementAppendix("how does auth cache work")
	b := enhancementAppendix("how does auth cache work")
	require.Equal(t, a, b)
	require.Contains(t, a, "token")
	require.Contains(t, a, "lru")
}

func TestEnhancementAppendixEmptyWhenNoConceptMatches(t *testing.T) {
	require.Empty(t, enhancementAppendix("xyzzy plugh"))
}

func TestProcessReturnsRawAndEnhancedEmbeddings(t *testing.T) {
	p := newTestProcessor(t)
	result, err := p.Process(context.Background(), "how does the auth token work?")
	require.NoError(t, err)
	require.Equal(t, TypeNaturalLanguage, result.QueryType)
	require.NotEmpty(t, result.Vector)
	require.NotEmpty(t, result.EnhancedVector)
}

func TestProcessSkipsEnhancedEmbeddingWhenAppendixEmpty(t *testing.T) {
	p := newTestProcessor(t)
	result, err := p.Process(context.Background(), "xyzzy plugh")
	require.NoError(t, err)
	require.Empty(t, result.EnhancedVector)
}
