package embedding

import (
	"context"
	"log/slog"
	"time"
)

// Config controls the Embedder facade's batching, caching, and retry
// behavior (C5/C17 in spec.md §4).
type Config struct {
	BatchSize    int
	MaxRetries   int
	RetryBaseDelay time.Duration
	CacheEntries int
	CacheTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:      64,
		MaxRetries:     3,
		RetryBaseDelay: 200 * time.Millisecond,
		CacheEntries:   10000,
		CacheTTL:       30 * time.Minute,
	}
}

// Embedder is the C5 facade: embed_text and embed_batch over a cached,
// retrying backend Provider.
type Embedder struct {
	provider Provider
	cache    *entryCache
	cfg      Config
	log      *slog.Logger
}

func New(provider Provider, cfg Config, log *slog.Logger) (*Embedder, error) {
	cache, err := newEntryCache(cfg.CacheEntries, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Embedder{provider: provider, cache: cache, cfg: cfg, log: log}, nil
}

func (e *Embedder) Dimensions() int { return e.provider.Dimensions() }

func (e *Embedder) Close() error {
	e.cache.close()
	return e.provider.Close()
}

// EmbedText is embed_text(text, purpose) -> vec[D]. A persistent backend
// failure returns a zero-length vector rather than an error, which
// downstream code treats as a non-match (spec.md C5 invariant).
func (e *Embedder) EmbedText(ctx context.Context, purpose Mode, text string) []float32 {
	if vec, ok := e.cache.get(string(purpose), text); ok {
		return vec
	}
	vecs, err := e.embedWithRetry(ctx, []string{text}, purpose)
	if err != nil || len(vecs) == 0 {
		e.log.Warn("embed text failed after retries", "purpose", purpose, "error", err)
		return nil
	}
	e.cache.set(string(purpose), text, vecs[0])
	return vecs[0]
}

// EmbedBatch is embed_batch(texts, batch_size, context?) -> vec[D][],
// splitting into bounded batches and checking the cache per entry first.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, purpose Mode) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		if vec, ok := e.cache.get(string(purpose), t); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}

	for start := 0; start < len(missTexts); start += batchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		end := start + batchSize
		if end > len(missTexts) {
			end = len(missTexts)
		}
		batch := missTexts[start:end]
		vecs, err := e.embedWithRetry(ctx, batch, purpose)
		if err != nil {
			e.log.Warn("embed batch failed after retries", "purpose", purpose, "size", len(batch), "error", err)
			for j := start; j < end; j++ {
				results[missIdx[j]] = nil
			}
			continue
		}
		for j, vec := range vecs {
			idx := missIdx[start+j]
			results[idx] = vec
			e.cache.set(string(purpose), missTexts[start+j], vec)
		}
	}

	return results, nil
}

// embedWithRetry retries transient backend errors up to cfg.MaxRetries
// times with exponential backoff, per spec.md C5.
func (e *Embedder) embedWithRetry(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	var lastErr error
	delay := e.cfg.RetryBaseDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	attempts := e.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		vecs, err := e.provider.Embed(ctx, texts, mode)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, lastErr
}
