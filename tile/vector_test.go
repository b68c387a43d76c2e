package tile_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tile"
	"github.com/vebgen/olts-sub002/tilecoord"
)

func pointFeature(x, y float64) *geojson.Feature {
	return geojson.NewFeature(orb.Point{x, y})
}

func TestVectorTileLoad(t *testing.T) {
	loads := 0
	vt := tile.NewVectorTile(tilecoord.New(2, 1, 1), "rev1", "tiles/2/1/1.json",
		func(vt *tile.VectorTile, url string) {
			loads++
			if url != "tiles/2/1/1.json" {
				t.Errorf("load function got url %q", url)
			}
			vt.SetFeatures([]*geojson.Feature{pointFeature(1, 2)})
		})

	vt.Load()
	if got := vt.State(); got != tile.Loaded {
		t.Fatalf("state after load = %v, want loaded", got)
	}
	if got := len(vt.Features()); got != 1 {
		t.Errorf("features = %v, want 1", got)
	}

	// Load is idempotent for every non-idle state.
	vt.Load()
	vt.Load()
	if loads != 1 {
		t.Errorf("load function ran %v times, want 1", loads)
	}
}

func TestVectorTileFail(t *testing.T) {
	vt := tile.NewVectorTile(tilecoord.New(2, 1, 1), "rev1", "",
		func(vt *tile.VectorTile, _ string) { vt.Fail() })

	vt.Load()
	if got := vt.State(); got != tile.Error {
		t.Errorf("state after failed load = %v, want error", got)
	}
}

func TestVectorTileFeatureLoader(t *testing.T) {
	vt := tile.NewVectorTile(tilecoord.New(2, 1, 1), "rev1", "", nil)

	var gotExtent orb.Bound
	var gotResolution float64
	var gotProjection *proj.Projection
	vt.SetFeatureLoader(func(extent orb.Bound, resolution float64, projection *proj.Projection) {
		gotExtent = extent
		gotResolution = resolution
		gotProjection = projection
	})

	extent := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	vt.LoadFeatures(extent, 2.5, proj.WebMercator)

	if gotExtent != extent || gotResolution != 2.5 || gotProjection != proj.WebMercator {
		t.Errorf("feature loader got (%v, %v, %v)", gotExtent, gotResolution, gotProjection)
	}
}

func loadedSourceTile(coord tilecoord.Coord) *tile.VectorTile {
	return tile.NewVectorTile(coord, "rev1", "", func(vt *tile.VectorTile, _ string) {
		vt.SetFeatures([]*geojson.Feature{pointFeature(0, 0)})
	})
}

func failingSourceTile(coord tilecoord.Coord) *tile.VectorTile {
	return tile.NewVectorTile(coord, "rev1", "", func(vt *tile.VectorTile, _ string) {
		vt.Fail()
	})
}

func TestRenderTileAllSourcesLoaded(t *testing.T) {
	pool := tile.NewCanvasPool()
	rt := tile.NewRenderTile(tilecoord.New(1, 0, 0), "rev1", pool)

	rt.SetSourceTiles([]*tile.VectorTile{
		loadedSourceTile(tilecoord.New(2, 0, 0)),
		loadedSourceTile(tilecoord.New(2, 1, 0)),
		loadedSourceTile(tilecoord.New(2, 0, 1)),
	})

	if got := rt.State(); got != tile.Loaded {
		t.Errorf("state = %v, want loaded", got)
	}
	if got := rt.LoadingSourceTiles(); got != 0 {
		t.Errorf("loading source tiles = %v, want 0", got)
	}
}

func TestRenderTileAllOrNothing(t *testing.T) {
	pool := tile.NewCanvasPool()
	rt := tile.NewRenderTile(tilecoord.New(1, 0, 0), "rev1", pool)

	rt.SetSourceTiles([]*tile.VectorTile{
		loadedSourceTile(tilecoord.New(2, 0, 0)),
		failingSourceTile(tilecoord.New(2, 1, 0)),
	})

	// One failed source tile fails the whole aggregate even though the
	// other source data is available.
	if got := rt.State(); got != tile.Error {
		t.Errorf("state = %v, want error", got)
	}
	if _, ok := rt.ErrorTileKeys()["2/1/0"]; !ok {
		t.Errorf("ErrorTileKeys = %v, want to contain 2/1/0", rt.ErrorTileKeys())
	}
}

func TestRenderTileDeferredResolution(t *testing.T) {
	pool := tile.NewCanvasPool()
	rt := tile.NewRenderTile(tilecoord.New(1, 0, 0), "rev1", pool)

	// Loaders that do nothing: the source tiles stay Loading until
	// resolved from the outside, as with network completions.
	st1 := tile.NewVectorTile(tilecoord.New(2, 0, 0), "rev1", "", func(*tile.VectorTile, string) {})
	st2 := tile.NewVectorTile(tilecoord.New(2, 1, 0), "rev1", "", func(*tile.VectorTile, string) {})
	rt.SetSourceTiles([]*tile.VectorTile{st1, st2})

	if got := rt.State(); got != tile.Loading {
		t.Fatalf("state with outstanding sources = %v, want loading", got)
	}
	if got := rt.LoadingSourceTiles(); got != 2 {
		t.Fatalf("loading source tiles = %v, want 2", got)
	}

	st1.SetFeatures(nil)
	if got := rt.State(); got != tile.Loading {
		t.Fatalf("state with one outstanding source = %v, want loading", got)
	}

	st2.SetFeatures(nil)
	if got := rt.State(); got != tile.Loaded {
		t.Errorf("state after final source = %v, want loaded", got)
	}
}

func TestRenderTileNoSources(t *testing.T) {
	pool := tile.NewCanvasPool()
	rt := tile.NewRenderTile(tilecoord.New(1, 0, 0), "rev1", pool)

	rt.SetSourceTiles(nil)
	if got := rt.State(); got != tile.Empty {
		t.Errorf("state with no source tiles = %v, want empty", got)
	}
}

func TestRenderTileContexts(t *testing.T) {
	pool := tile.NewCanvasPool()
	rt := tile.NewRenderTile(tilecoord.New(1, 0, 0), "rev1", pool)

	dc := rt.Context("layer-1", 256, 256)
	if dc == nil {
		t.Fatal("Context returned nil")
	}
	if dc.Width() != 256 || dc.Height() != 256 {
		t.Fatalf("context size = %vx%v, want 256x256", dc.Width(), dc.Height())
	}
	if got := rt.Context("layer-1", 256, 256); got != dc {
		t.Error("Context allocated a second context for the same layer")
	}
	if got := rt.Context("layer-2", 512, 512); got == dc {
		t.Error("distinct layers must get distinct contexts")
	}
	if !rt.HasContext("layer-1") || rt.HasContext("layer-3") {
		t.Error("HasContext bookkeeping wrong")
	}

	rt.Release()
	if rt.HasContext("layer-1") {
		t.Error("contexts must be returned to the pool on release")
	}
}
