package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTextCacheHitIsBitIdentical(t *testing.T) {
	provider := NewMockProvider(8)
	e, err := New(provider, DefaultConfig(), nil)
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	first := e.EmbedText(ctx, ModeQuery, "how to cache database results")
	second := e.EmbedText(ctx, ModeQuery, "how to cache database results")

	require.Len(t, first, 8)
	assert.Equal(t, first, second)
}

func TestEmbedBatchPreservesOrderAndUsesCache(t *testing.T) {
	provider := NewMockProvider(4)
	e, err := New(provider, DefaultConfig(), nil)
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	texts := []string{"alpha", "beta", "gamma"}

	first, err := e.EmbedBatch(ctx, texts, ModePassage)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := e.EmbedBatch(ctx, texts, ModePassage)
	require.NoError(t, err)

	for i := range texts {
		assert.Equal(t, first[i], second[i])
	}
}

type failingProvider struct{ dim int }

func (f *failingProvider) Embed(context.Context, []string, Mode) ([][]float32, error) {
	return nil, assertErr
}
func (f *failingProvider) Dimensions() int { return f.dim }
func (f *failingProvider) Close() error     { return nil }

var assertErr = errPersistent{}

type errPersistent struct{}

func (errPersistent) Error() string { return "backend unavailable" }

func TestEmbedTextReturnsEmptyVectorOnPersistentFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	e, err := New(&failingProvider{dim: 4}, cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	vec := e.EmbedText(context.Background(), ModeQuery, "anything")
	assert.Len(t, vec, 0)
}
