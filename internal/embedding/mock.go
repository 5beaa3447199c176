package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockProvider produces deterministic unit vectors derived from a text's
// hash. Used by tests and by `codegraph index --dry-run` style flows where
// no real embedding backend is configured.
type MockProvider struct {
	dimensions int
}

func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &MockProvider{dimensions: dimensions}
}

func (m *MockProvider) Embed(_ context.Context, texts []string, _ Mode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = deterministicVector(t, m.dimensions)
	}
	return out, nil
}

func (m *MockProvider) Dimensions() int { return m.dimensions }

func (m *MockProvider) Close() error { return nil }

// deterministicVector derives a unit-length vector from text so the same
// text always yields the bit-identical vector (property 4 in spec.md §8).
func deterministicVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	h := fnv.New64a()
	seed := uint64(1)
	for i := range vec {
		h.Reset()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(i), byte(i >> 8), byte(seed)})
		v := h.Sum64()
		seed = v
		vec[i] = float32(int64(v%2000)-1000) / 1000.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
