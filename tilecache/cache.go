package tilecache

import (
	"iter"
	"log/slog"
	"sync"

	"github.com/vebgen/olts-sub002/tilecoord"
)

// Tile is the cache's view of a tile: enough to address, prune and
// release it. *tile.Tile and its variants satisfy it.
type Tile interface {
	Coord() tilecoord.Coord
	Release()
}

// Cache owns the authoritative tile instances of one source. Eviction is
// strict LRU gated by the renderer's per-frame used set; evicted tiles
// are released. The cache may transiently exceed its capacity during a
// frame, so tiles about to be reused are not evicted mid-frame.
//
// Cache is safe for concurrent use. Tiles are released outside the
// cache's lock.
type Cache struct {
	mu     sync.Mutex
	lru    *LRU[Tile]
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for eviction debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a Cache with the given initial capacity.
func New(highWaterMark int, opts ...Option) *Cache {
	c := &Cache{
		lru:    NewLRU[Tile](highWaterMark),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Count returns the number of cached tiles.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Count()
}

// HighWaterMark returns the target capacity.
func (c *Cache) HighWaterMark() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.HighWaterMark()
}

// UpdateCacheSize is called by the renderer once per frame with the
// viewport's tile demand. The capacity grows to fit larger working sets
// and never shrinks for the rest of the session.
func (c *Cache) UpdateCacheSize(tileCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.GrowHighWaterMark(tileCount)
}

// CanExpireCache reports whether the tile count exceeds the capacity.
func (c *Cache) CanExpireCache() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.CanExpireCache()
}

// ContainsKey reports whether a tile is cached under key.
func (c *Cache) ContainsKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.ContainsKey(key)
}

// Set caches the tile under key as most recently used.
func (c *Cache) Set(key string, t Tile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Set(key, t)
}

// Get returns the cached tile and promotes it to most recently used.
func (c *Cache) Get(key string) (Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

// Peek returns the cached tile without promoting it.
func (c *Cache) Peek(key string) (Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Peek(key)
}

// Replace swaps the tile cached under key without touching its position
// in the use order. The previous tile is not released.
func (c *Cache) Replace(key string, t Tile) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Replace(key, t)
}

// Remove drops the tile cached under key without releasing it and
// returns it.
func (c *Cache) Remove(key string) (Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// ExpireCache pops and releases least-recently-used tiles while the
// cache is over capacity, stopping at the first tile whose key is in
// usedKeys. A still-wanted tile at the tail blocks everything behind it
// until the next frame changes the used set; that is the price of O(1)
// amortized eviction over a full scan.
func (c *Cache) ExpireCache(usedKeys map[string]struct{}) {
	c.mu.Lock()
	var victims []Tile
	for c.lru.CanExpireCache() {
		key, ok := c.lru.PeekLastKey()
		if !ok {
			break
		}
		if _, used := usedKeys[key]; used {
			break
		}
		t, _ := c.lru.Pop()
		victims = append(victims, t)
	}
	c.mu.Unlock()

	if len(victims) > 0 {
		c.logger.Debug("tilecache: expired tiles", "count", len(victims))
	}
	for _, t := range victims {
		t.Release()
	}
}

// PruneExceptNewestZ releases every cached tile whose zoom level differs
// from the most recently inserted tile's. Used when a source's
// addressing changes and other-zoom entries become meaningless.
func (c *Cache) PruneExceptNewestZ() {
	c.mu.Lock()
	newestKey, ok := c.lru.PeekFirstKey()
	if !ok {
		c.mu.Unlock()
		return
	}
	newest, _ := c.lru.Peek(newestKey)
	keepZ := newest.Coord().Z

	var staleKeys []string
	for key, t := range c.lru.All() {
		if t.Coord().Z != keepZ {
			staleKeys = append(staleKeys, key)
		}
	}
	victims := make([]Tile, 0, len(staleKeys))
	for _, key := range staleKeys {
		if t, ok := c.lru.Remove(key); ok {
			victims = append(victims, t)
		}
	}
	c.mu.Unlock()

	for _, t := range victims {
		t.Release()
	}
}

// Clear pops and releases every cached tile.
func (c *Cache) Clear() {
	c.mu.Lock()
	victims := make([]Tile, 0, c.lru.Count())
	for {
		t, ok := c.lru.Pop()
		if !ok {
			break
		}
		victims = append(victims, t)
	}
	c.mu.Unlock()

	for _, t := range victims {
		t.Release()
	}
}

// All iterates a snapshot of the entries from most to least recently
// used. The snapshot is taken when iteration starts.
func (c *Cache) All() iter.Seq2[string, Tile] {
	return func(yield func(string, Tile) bool) {
		c.mu.Lock()
		keys := make([]string, 0, c.lru.Count())
		tiles := make([]Tile, 0, c.lru.Count())
		for key, t := range c.lru.All() {
			keys = append(keys, key)
			tiles = append(tiles, t)
		}
		c.mu.Unlock()

		for i := range keys {
			if !yield(keys[i], tiles[i]) {
				return
			}
		}
	}
}
