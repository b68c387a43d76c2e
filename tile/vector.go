package tile

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tilecoord"
)

// VectorLoadFunc arranges for a vector tile to be filled: it must
// eventually call SetFeatures or Fail, synchronously or not.
type VectorLoadFunc func(t *VectorTile, url string)

// FeatureLoader is the optional second loading callback for sources that
// need spatial context (extent, resolution, projection) to decode or
// filter features.
type FeatureLoader func(extent orb.Bound, resolution float64, projection *proj.Projection)

// VectorTile is a single source tile holding decoded vector features.
type VectorTile struct {
	Tile
	url           string
	loadFn        VectorLoadFunc
	featureLoader FeatureLoader
	features      []*geojson.Feature
}

// NewVectorTile creates an Idle vector tile fetched from url by loadFn.
func NewVectorTile(coord tilecoord.Coord, key, url string, loadFn VectorLoadFunc, opts ...Option) *VectorTile {
	t := &VectorTile{url: url, loadFn: loadFn}
	t.Tile = *New(KindVector, coord, key, opts...)
	return t
}

// URL returns the tile's source URL.
func (t *VectorTile) URL() string { return t.url }

// Load starts loading. It is idempotent for every state but Idle.
func (t *VectorTile) Load() {
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return
	}
	fire := t.setStateLocked(Loading)
	loadFn := t.loadFn
	t.mu.Unlock()
	for _, l := range fire {
		l.fn()
	}

	if loadFn != nil {
		loadFn(t, t.url)
	}
}

// SetFeatureLoader installs the context-aware loading callback.
func (t *VectorTile) SetFeatureLoader(fn FeatureLoader) {
	t.mu.Lock()
	t.featureLoader = fn
	t.mu.Unlock()
}

// LoadFeatures invokes the feature loader, if any, with the tile's
// spatial context.
func (t *VectorTile) LoadFeatures(extent orb.Bound, resolution float64, projection *proj.Projection) {
	t.mu.Lock()
	fn := t.featureLoader
	t.mu.Unlock()
	if fn != nil {
		fn(extent, resolution, projection)
	}
}

// SetFeatures stores the decoded features and marks the tile Loaded.
func (t *VectorTile) SetFeatures(features []*geojson.Feature) {
	t.mu.Lock()
	t.features = features
	t.mu.Unlock()
	t.SetState(Loaded)
}

// Fail marks the load as failed. Failure is a state, not an error value;
// it propagates through the change notification.
func (t *VectorTile) Fail() {
	t.SetState(Error)
}

// Features returns the decoded features, nil before the tile is Loaded.
func (t *VectorTile) Features() []*geojson.Feature {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.features
}
