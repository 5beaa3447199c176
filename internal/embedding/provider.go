// Package embedding implements the Embedder facade (C5) and its
// process-local cache (C17): bounded-batch embedding generation with
// caching and retry over a pluggable backend Provider.
package embedding

import "context"

// Mode specifies the purpose an embedding is generated for. Some backends
// produce asymmetric embeddings optimized differently for queries versus
// the passages they are matched against.
type Mode string

const (
	ModeQuery   Mode = "query"
	ModePassage Mode = "passage"
)

// Provider is the external embedding backend. spec.md places the
// embedding/LLM backend out of scope; this interface is its contract.
type Provider interface {
	// Embed converts texts into their vector representations.
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Dimensions returns D, the configured embedding dimension.
	Dimensions() int

	// Close releases resources held by the provider.
	Close() error
}
