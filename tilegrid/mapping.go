package tilegrid

import (
	"github.com/paulmach/orb"

	"github.com/vebgen/olts-sub002/tilecoord"
	"github.com/vebgen/olts-sub002/tilerange"
)

// ZForResolution returns the zoom level nearest to resolution, clamped to
// [MinZoom, MaxZoom]. direction 0 picks the nearest level by absolute
// distance, direction > 0 prefers the next lower zoom (coarser), and
// direction < 0 prefers the next higher zoom (finer).
func (g *Grid) ZForResolution(resolution float64, direction int) int {
	z := linearFindNearest(g.resolutions, resolution, direction)
	return clampInt(z, g.minZoom, g.maxZoom)
}

// TileCoordForCoordAndZ returns the tile containing the map coordinate at
// zoom level z. A coordinate exactly on a tile boundary belongs to the
// tile starting at that boundary.
func (g *Grid) TileCoordForCoordAndZ(coord orb.Point, z int) tilecoord.Coord {
	return g.tileCoordForXYAndZ(coord[0], coord[1], z, false)
}

// TileCoordForCoordAndResolution returns the tile containing the map
// coordinate at the zoom level nearest to resolution.
func (g *Grid) TileCoordForCoordAndResolution(coord orb.Point, resolution float64) tilecoord.Coord {
	z := g.ZForResolution(resolution, 0)
	return g.tileCoordForXYAndZ(coord[0], coord[1], z, false)
}

// tileCoordForXYAndZ maps a map coordinate to the tile containing it.
//
// With reverseIntersectionPolicy a coordinate exactly on a boundary is
// assigned to the tile before the boundary instead of the one after it.
// The reversed policy is used for the upper corner of an extent so that
// extents aligned with tile boundaries do not pull in an extra row and
// column of tiles. Fractions are rounded at 5 decimal digits before
// flooring or ceiling to absorb floating-point error.
func (g *Grid) tileCoordForXYAndZ(x, y float64, z int, reverseIntersectionPolicy bool) tilecoord.Coord {
	origin := g.Origin(z)
	resolution := g.Resolution(z)
	tileSize := g.TileSize(z)

	tileCoordX := (x - origin[0]) / (resolution * tileSize[0])
	tileCoordY := (origin[1] - y) / (resolution * tileSize[1])

	if reverseIntersectionPolicy {
		return tilecoord.New(z, ceilDec(tileCoordX)-1, ceilDec(tileCoordY)-1)
	}
	return tilecoord.New(z, floorDec(tileCoordX), floorDec(tileCoordY))
}

// TileRangeForExtentAndZ returns the tiles intersecting extent at zoom
// level z. The lower corner uses the regular boundary policy, the upper
// corner the reversed one, so boundary-aligned extents produce the
// minimal covering range. reuse, when non-nil, is updated in place.
func (g *Grid) TileRangeForExtentAndZ(extent orb.Bound, z int, reuse *tilerange.Range) *tilerange.Range {
	minCorner := g.tileCoordForXYAndZ(extent.Min[0], extent.Max[1], z, false)
	maxCorner := g.tileCoordForXYAndZ(extent.Max[0], extent.Min[1], z, true)
	return tilerange.NewOrUpdate(minCorner.X, maxCorner.X, minCorner.Y, maxCorner.Y, reuse)
}

// TileCoordExtent returns the map-unit extent covered by the tile.
func (g *Grid) TileCoordExtent(c tilecoord.Coord) orb.Bound {
	origin := g.Origin(c.Z)
	resolution := g.Resolution(c.Z)
	tileSize := g.TileSize(c.Z)

	minX := origin[0] + float64(c.X)*tileSize[0]*resolution
	maxY := origin[1] - float64(c.Y)*tileSize[1]*resolution

	return orb.Bound{
		Min: orb.Point{minX, maxY - tileSize[1]*resolution},
		Max: orb.Point{minX + tileSize[0]*resolution, maxY},
	}
}

// TileCoordCenter returns the map coordinate at the center of the tile.
func (g *Grid) TileCoordCenter(c tilecoord.Coord) orb.Point {
	origin := g.Origin(c.Z)
	resolution := g.Resolution(c.Z)
	tileSize := g.TileSize(c.Z)

	return orb.Point{
		origin[0] + (float64(c.X)+0.5)*tileSize[0]*resolution,
		origin[1] - (float64(c.Y)+0.5)*tileSize[1]*resolution,
	}
}

// ChildTileRange returns the range of tiles at level z+1 covering the
// tile, or nil when the tile is already at MaxZoom. With a uniform zoom
// factor of 2 the range is computed by integer doubling instead of going
// through extent math.
func (g *Grid) ChildTileRange(c tilecoord.Coord, reuse *tilerange.Range) *tilerange.Range {
	if c.Z >= g.maxZoom {
		return nil
	}
	if g.zoomFactor == 2 {
		minX := c.X * 2
		minY := c.Y * 2
		return tilerange.NewOrUpdate(minX, minX+1, minY, minY+1, reuse)
	}
	return g.TileRangeForExtentAndZ(g.TileCoordExtent(c), c.Z+1, reuse)
}

// ForEachParentTileRange walks the ancestor tile ranges of c from level
// z-1 down to MinZoom, calling fn for each. The walk stops early when fn
// returns true; the return value reports whether that happened. The range
// passed to fn is only valid for the duration of the call.
func (g *Grid) ForEachParentTileRange(c tilecoord.Coord, fn func(z int, r *tilerange.Range) bool) bool {
	var reuse tilerange.Range
	if g.zoomFactor == 2 {
		x, y := c.X, c.Y
		for z := c.Z - 1; z >= g.minZoom; z-- {
			x = floorDiv(x, 2)
			y = floorDiv(y, 2)
			if fn(z, tilerange.NewOrUpdate(x, x, y, y, &reuse)) {
				return true
			}
		}
		return false
	}

	extent := g.TileCoordExtent(c)
	for z := c.Z - 1; z >= g.minZoom; z-- {
		if fn(z, g.TileRangeForExtentAndZ(extent, z, &reuse)) {
			return true
		}
	}
	return false
}

// FullTileRange returns the maximal tile range at zoom level z given the
// configured extent, or nil when the grid is unbounded. Ranges are
// precomputed at construction when per-level tile sizes are set.
func (g *Grid) FullTileRange(z int) *tilerange.Range {
	g.assertZ(z)
	if g.fullTileRanges != nil {
		return g.fullTileRanges[z]
	}
	if g.extent != nil {
		return g.TileRangeForExtentAndZ(*g.extent, z, nil)
	}
	return nil
}
