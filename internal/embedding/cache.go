package embedding

import (
	"time"

	"github.com/maypok86/otter"
)

// cacheKey is the (purpose, text) compound key named in spec.md C17.
type cacheKey struct {
	purpose string
	text    string
}

// entryCache is a process-local bounded time-window cache keyed by
// (purpose, text) -> vector. Grounded on the weight-based otter.Cache
// construction in the teacher's graph searcher, generalized from a file-line
// cache to an embedding-vector cache with a TTL instead of a byte budget,
// matching the "bounded time-window" wording of spec.md C17.
type entryCache struct {
	cache otter.Cache[cacheKey, []float32]
}

func newEntryCache(maxEntries int, ttl time.Duration) (*entryCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c, err := otter.MustBuilder[cacheKey, []float32](maxEntries).
		CollectStats().
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}
	return &entryCache{cache: c}, nil
}

func (c *entryCache) get(purpose, text string) ([]float32, bool) {
	return c.cache.Get(cacheKey{purpose: purpose, text: text})
}

// set overwrites on conflict, matching the "writers overwrite on conflict"
// synchronization rule in spec.md §5.
func (c *entryCache) set(purpose, text string, vec []float32) {
	c.cache.Set(cacheKey{purpose: purpose, text: text}, vec)
}

func (c *entryCache) close() {
	c.cache.Close()
}
