package tile

import (
	"github.com/fogleman/gg"

	"github.com/vebgen/olts-sub002/tilecoord"
)

// RenderTile aggregates the source vector tiles contributing to one
// rendered tile (several source tiles may be needed at a reprojected or
// coarser zoom) and owns the per-layer drawing contexts for it.
//
// The aggregate resolves all-or-nothing: it becomes Loaded only once
// every source tile resolved without error, and Error as soon as the
// last outstanding source tile resolves with at least one failure
// recorded. Partial rendering of a partially failed aggregate is not
// supported.
type RenderTile struct {
	Tile
	pool *CanvasPool

	contexts    map[string]*gg.Context
	sourceTiles []*VectorTile

	loadingSourceTiles int
	errorTileKeys      map[string]struct{}
	resolved           map[string]struct{}
	unsubscribe        []func()
}

// NewRenderTile creates an Idle render tile drawing through pool.
func NewRenderTile(coord tilecoord.Coord, key string, pool *CanvasPool, opts ...Option) *RenderTile {
	t := &RenderTile{
		pool:          pool,
		errorTileKeys: make(map[string]struct{}),
		resolved:      make(map[string]struct{}),
	}
	opts = append(opts, withReleaseHook(t.releaseResources))
	t.Tile = *New(KindRenderAggregate, coord, key, opts...)
	return t
}

// SetSourceTiles hands the aggregate its constituent source tiles and
// starts loading them. An empty set resolves the tile as Empty.
func (t *RenderTile) SetSourceTiles(tiles []*VectorTile) {
	t.mu.Lock()
	t.sourceTiles = tiles
	t.mu.Unlock()

	if len(tiles) == 0 {
		t.SetState(Empty)
		return
	}
	t.SetState(Loading)

	// Count every source tile before loading any of them, so a source
	// tile resolving synchronously cannot resolve the aggregate early.
	t.mu.Lock()
	t.loadingSourceTiles = len(tiles)
	for _, st := range tiles {
		t.unsubscribe = append(t.unsubscribe, st.OnChange(func() {
			t.sourceTileResolved(st)
		}))
	}
	t.mu.Unlock()

	for _, st := range tiles {
		st.Load()
		// Tiles that were already (or synchronously became) terminal
		// fire no further change events.
		t.sourceTileResolved(st)
	}
}

func (t *RenderTile) sourceTileResolved(st *VectorTile) {
	state := st.State()
	if state != Loaded && state != Error && state != Empty {
		return
	}
	key := st.Coord().Key()

	t.mu.Lock()
	if _, done := t.resolved[key]; done {
		t.mu.Unlock()
		return
	}
	t.resolved[key] = struct{}{}
	t.loadingSourceTiles--
	if state == Error {
		t.errorTileKeys[key] = struct{}{}
	}
	remaining := t.loadingSourceTiles
	failed := len(t.errorTileKeys)
	t.mu.Unlock()

	if remaining > 0 {
		return
	}
	if failed > 0 {
		t.SetState(Error)
	} else {
		t.SetState(Loaded)
	}
}

// SourceTiles returns the constituent source tiles.
func (t *RenderTile) SourceTiles() []*VectorTile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sourceTiles
}

// LoadingSourceTiles returns the number of source tiles still unresolved.
func (t *RenderTile) LoadingSourceTiles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadingSourceTiles
}

// ErrorTileKeys returns the coordinate keys of failed source tiles.
func (t *RenderTile) ErrorTileKeys() map[string]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make(map[string]struct{}, len(t.errorTileKeys))
	for k := range t.errorTileKeys {
		keys[k] = struct{}{}
	}
	return keys
}

// Context returns the drawing context for a layer, creating it from the
// pool on first use. Pooled contexts keep their previous pixels; draw the
// full tile before reading.
func (t *RenderTile) Context(layerID string, width, height int) *gg.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.contexts == nil {
		t.contexts = make(map[string]*gg.Context)
	}
	if dc, ok := t.contexts[layerID]; ok {
		return dc
	}
	dc := t.pool.Get(width, height)
	t.contexts[layerID] = dc
	return dc
}

// HasContext reports whether a context was already created for the layer.
func (t *RenderTile) HasContext(layerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.contexts[layerID]
	return ok
}

// releaseResources returns the drawing contexts to the pool and drops the
// source tile subscriptions; a still-loading source tile's eventual
// completion is simply ignored.
func (t *RenderTile) releaseResources() {
	t.mu.Lock()
	contexts := t.contexts
	t.contexts = nil
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.sourceTiles = nil
	t.mu.Unlock()

	for _, unsub := range unsubscribe {
		unsub()
	}
	for _, dc := range contexts {
		t.pool.Put(dc)
	}
}
