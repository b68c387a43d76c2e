package tilegrid

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tilecoord"
)

// WrapX translates the tile's column by whole world-widths so that its
// center falls inside the projection's canonical extent. Non-global
// projections and tiles that are already canonical are returned unchanged.
func (g *Grid) WrapX(c tilecoord.Coord, p *proj.Projection) tilecoord.Coord {
	if !p.Global {
		return c
	}
	center := g.TileCoordCenter(c)
	if p.Extent.Min[0] <= center[0] && center[0] <= p.Extent.Max[0] {
		return c
	}

	worldWidth := p.WorldWidth()
	worldsAway := math.Ceil((p.Extent.Min[0] - center[0]) / worldWidth)
	center[0] += worldWidth * worldsAway
	return g.TileCoordForCoordAndZ(center, c.Z)
}

// WithinExtentAndZ reports whether the tile lies inside the grid's zoom
// range and, when the grid is bounded, inside the full tile range of its
// level. Sources use it to reject tiles before requesting a URL.
func (g *Grid) WithinExtentAndZ(c tilecoord.Coord) bool {
	if c.Z < g.minZoom || c.Z > g.maxZoom {
		return false
	}
	fullRange := g.FullTileRange(c.Z)
	if fullRange == nil {
		return true
	}
	return fullRange.ContainsXY(c.X, c.Y)
}

// ForProjection creates the standard XYZ grid for a projection: the
// top-left corner of the validity extent as shared origin, square tiles
// of tileSize pixels and resolutions halving per level so that level 0
// covers the extent with a single tile.
func ForProjection(p *proj.Projection, maxZoom int, tileSize float64) *Grid {
	extent := p.Extent
	width := extent.Max[0] - extent.Min[0]
	height := extent.Max[1] - extent.Min[1]
	maxResolution := math.Max(width, height) / tileSize

	resolutions := make([]float64, maxZoom+1)
	for z := range resolutions {
		resolutions[z] = maxResolution / math.Pow(2, float64(z))
	}

	grid, err := New(resolutions,
		WithOrigin(orb.Point{extent.Min[0], extent.Max[1]}),
		WithTileSize(Size{tileSize, tileSize}),
		WithExtent(extent),
	)
	if err != nil {
		// Inputs are fully derived; construction cannot fail.
		panic(err)
	}
	return grid
}
