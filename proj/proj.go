// Package proj provides the minimal projection descriptor the tile core
// needs: a validity extent and whether the projection's x axis wraps
// around the world.
package proj

import "github.com/paulmach/orb"

const (
	// webMercatorHalfSize is half the width of the EPSG:3857 validity
	// extent in meters (PI * 6378137).
	webMercatorHalfSize = 20037508.342789244
)

// Projection describes a coordinate reference system as far as tile
// addressing is concerned. Transform math lives elsewhere; the tile core
// only needs the extent and the periodicity flag.
type Projection struct {
	// Code is the CRS identifier, e.g. "EPSG:3857".
	Code string

	// Extent is the validity extent in projection units.
	Extent orb.Bound

	// Global marks projections whose x axis is periodic: a tile column
	// can be translated by whole world-widths onto the canonical extent.
	Global bool
}

// WebMercator is the spherical mercator projection used by XYZ tile schemes.
var WebMercator = &Projection{
	Code: "EPSG:3857",
	Extent: orb.Bound{
		Min: orb.Point{-webMercatorHalfSize, -webMercatorHalfSize},
		Max: orb.Point{webMercatorHalfSize, webMercatorHalfSize},
	},
	Global: true,
}

// WGS84 is plain geographic longitude/latitude.
var WGS84 = &Projection{
	Code: "EPSG:4326",
	Extent: orb.Bound{
		Min: orb.Point{-180, -90},
		Max: orb.Point{180, 90},
	},
	Global: true,
}

// WorldWidth returns the width of the validity extent in projection units.
func (p *Projection) WorldWidth() float64 {
	return p.Extent.Max[0] - p.Extent.Min[0]
}

// Contains reports whether the point lies inside the validity extent.
func (p *Projection) Contains(point orb.Point) bool {
	return p.Extent.Min[0] <= point[0] && point[0] <= p.Extent.Max[0] &&
		p.Extent.Min[1] <= point[1] && point[1] <= p.Extent.Max[1]
}
