// Package storage provides the page file layer for the KavakDB index engine.
package storage

import (
	"github.com/dgraph-io/ristretto/v2"
)

// DefaultCacheBytes is the default read-cache budget.
const DefaultCacheBytes = 32 << 20 // 32MB

// pageCache is a read cache over whole pages, keyed by page ID. Costs are
// page sizes, so the configured budget is a byte budget. A nil pageCache is
// valid and caches nothing.
type pageCache struct {
	cache *ristretto.Cache[uint64, []byte]
}

// newPageCache creates a page cache with the given byte budget. A budget of
// zero or less disables caching.
func newPageCache(maxBytes int64, pageSize int) (*pageCache, error) {
	if maxBytes <= 0 {
		return nil, nil
	}

	// Ristretto wants roughly 10x the expected item count in counters for
	// its admission policy to work well.
	counters := maxBytes / int64(pageSize) * 10
	if counters < 64 {
		counters = 64
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &pageCache{cache: cache}, nil
}

// get returns the cached copy of a page, or nil.
func (pc *pageCache) get(id PageID) []byte {
	if pc == nil {
		return nil
	}
	buf, ok := pc.cache.Get(uint64(id))
	if !ok {
		return nil
	}
	return buf
}

// put stores a copy of a page.
func (pc *pageCache) put(id PageID, buf []byte) {
	if pc == nil {
		return
	}
	stored := make([]byte, len(buf))
	copy(stored, buf)
	pc.cache.Set(uint64(id), stored, int64(len(stored)))
}

// drop invalidates a page after a write.
func (pc *pageCache) drop(id PageID) {
	if pc == nil {
		return
	}
	pc.cache.Del(uint64(id))
}

// close releases the cache's goroutines.
func (pc *pageCache) close() {
	if pc == nil {
		return
	}
	pc.cache.Close()
}
