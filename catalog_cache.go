package spdxer

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/afero"
)

// CatalogCacheSize is the fixed capacity of the catalog cache. Beyond it the
// least-recently-used entry is evicted.
const CatalogCacheSize = 8

// defaultCatalogKey keys the bundled catalog, which has no on-disk path.
const defaultCatalogKey = "<bundled>"

// CatalogCache memoizes parsed catalogs by resolved source path. It is the
// only mutable state shared across file transactions: reads may run
// concurrently, while Invalidate is serialized against them so no reader
// observes a half-cleared cache. Invalidation is explicit, not time-based;
// the external catalog-refresh collaborator must call Invalidate after
// rewriting a source, or stale data is served for the process lifetime.
type CatalogCache struct {
	fs afero.Fs

	mu  sync.RWMutex
	lru *lru.Cache

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCatalogCache returns an empty cache reading catalog sources from fs.
func NewCatalogCache(fs afero.Fs) *CatalogCache {
	cache, err := lru.New(CatalogCacheSize)
	if err != nil {
		panic(err.Error()) // Only errors on size <= 0.
	}
	return &CatalogCache{fs: fs, lru: cache}
}

// Load returns the catalog for sourcePath, parsing it on first use and
// serving the memoized result afterwards. The key is the path's resolved
// absolute form, so relative spellings of the same source share one entry.
// An empty path loads the bundled default catalog.
func (c *CatalogCache) Load(sourcePath string) (*Catalog, error) {
	key := defaultCatalogKey
	if sourcePath != "" {
		key = AbsPath(sourcePath)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v.(*Catalog), nil
	}
	c.misses.Add(1)

	catalog, err := LoadCatalog(c.fs, sourcePath)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, catalog)
	return catalog, nil
}

// Invalidate clears every entry. The write lock excludes in-flight readers
// for the duration of the purge.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Hits reports how many loads were served from memory.
func (c *CatalogCache) Hits() uint64 { return c.hits.Load() }

// Misses reports how many loads required a parse.
func (c *CatalogCache) Misses() uint64 { return c.misses.Load() }

// Len reports the number of cached catalogs.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
