// Package tilegrid defines the per-zoom-level origin, resolution and tile
// size policy that maps map-unit extents to tile coordinates and back.
package tilegrid

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/vebgen/olts-sub002/tilerange"
)

var (
	ErrBadResolutions   = errors.New("tilegrid: resolutions must be strictly decreasing")
	ErrOriginConflict   = errors.New("tilegrid: exactly one of origin or per-level origins must be set")
	ErrTileSizeConflict = errors.New("tilegrid: tile size and per-level tile sizes are mutually exclusive")
	ErrLengthMismatch   = errors.New("tilegrid: per-level array length must match resolutions")
	ErrBadZoomRange     = errors.New("tilegrid: min zoom outside valid range")
)

// DefaultTileSize is used when no tile size option is given.
const DefaultTileSize = 256

// Size is a tile size in pixels, width then height.
type Size [2]float64

// Grid is the immutable tile pyramid policy: one resolution per zoom
// level (strictly decreasing, index = zoom), a shared origin or one per
// level, a shared tile size or one per level, and an optional overall
// extent bounding the addressable tiles.
type Grid struct {
	minZoom     int
	maxZoom     int
	resolutions []float64
	origin      orb.Point
	origins     []orb.Point
	tileSize    Size
	tileSizes   []Size
	extent      *orb.Bound

	// zoomFactor is the uniform ratio between consecutive resolutions,
	// or 0 when the ratios differ or per-level origins are in use. A
	// factor of exactly 2 enables integer shortcuts for parent/child
	// tile range computation.
	zoomFactor float64

	fullTileRanges []*tilerange.Range
}

// Option configures a Grid under construction.
type Option func(*gridConfig)

type gridConfig struct {
	minZoom   int
	origin    *orb.Point
	origins   []orb.Point
	tileSize  *Size
	tileSizes []Size
	extent    *orb.Bound
}

// WithOrigin sets a single origin (top-left corner) shared by all levels.
func WithOrigin(origin orb.Point) Option {
	return func(c *gridConfig) { c.origin = &origin }
}

// WithOrigins sets one origin per zoom level.
func WithOrigins(origins []orb.Point) Option {
	return func(c *gridConfig) { c.origins = origins }
}

// WithTileSize sets a single tile size shared by all levels.
func WithTileSize(size Size) Option {
	return func(c *gridConfig) { c.tileSize = &size }
}

// WithTileSizes sets one tile size per zoom level.
func WithTileSizes(sizes []Size) Option {
	return func(c *gridConfig) { c.tileSizes = sizes }
}

// WithExtent bounds the addressable tiles of every level.
func WithExtent(extent orb.Bound) Option {
	return func(c *gridConfig) { c.extent = &extent }
}

// WithMinZoom sets the lowest usable zoom level.
func WithMinZoom(minZoom int) Option {
	return func(c *gridConfig) { c.minZoom = minZoom }
}

// New creates a Grid for the given resolutions. Configuration errors are
// returned immediately; they indicate a programming error in the caller.
func New(resolutions []float64, opts ...Option) (*Grid, error) {
	config := gridConfig{}
	for _, opt := range opts {
		opt(&config)
	}

	if len(resolutions) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadResolutions)
	}
	for i := 1; i < len(resolutions); i++ {
		if resolutions[i] >= resolutions[i-1] {
			return nil, fmt.Errorf("%w: resolutions[%d]=%v >= resolutions[%d]=%v",
				ErrBadResolutions, i, resolutions[i], i-1, resolutions[i-1])
		}
	}

	if (config.origin == nil) == (config.origins == nil) {
		return nil, ErrOriginConflict
	}
	if config.origins != nil && len(config.origins) != len(resolutions) {
		return nil, fmt.Errorf("%w: %d origins for %d resolutions",
			ErrLengthMismatch, len(config.origins), len(resolutions))
	}

	if config.tileSize != nil && config.tileSizes != nil {
		return nil, ErrTileSizeConflict
	}
	if config.tileSizes != nil && len(config.tileSizes) != len(resolutions) {
		return nil, fmt.Errorf("%w: %d tile sizes for %d resolutions",
			ErrLengthMismatch, len(config.tileSizes), len(resolutions))
	}

	maxZoom := len(resolutions) - 1
	if config.minZoom < 0 || config.minZoom > maxZoom {
		return nil, fmt.Errorf("%w: min zoom %d, max zoom %d",
			ErrBadZoomRange, config.minZoom, maxZoom)
	}

	g := &Grid{
		minZoom:     config.minZoom,
		maxZoom:     maxZoom,
		resolutions: resolutions,
		origins:     config.origins,
		tileSizes:   config.tileSizes,
		extent:      config.extent,
		tileSize:    Size{DefaultTileSize, DefaultTileSize},
	}
	if config.origin != nil {
		g.origin = *config.origin
	}
	if config.tileSize != nil {
		g.tileSize = *config.tileSize
	}

	// The integer shortcut is only meaningful with a shared origin.
	if g.origins == nil {
		g.zoomFactor = uniformZoomFactor(resolutions)
	}

	// With explicit per-level sizes and an extent the full ranges are
	// fixed at construction time; otherwise they are derived lazily.
	if g.extent != nil && g.tileSizes != nil {
		g.fullTileRanges = make([]*tilerange.Range, len(resolutions))
		for z := g.minZoom; z <= g.maxZoom; z++ {
			g.fullTileRanges[z] = g.TileRangeForExtentAndZ(*g.extent, z, nil)
		}
	}

	return g, nil
}

func uniformZoomFactor(resolutions []float64) float64 {
	if len(resolutions) < 2 {
		return 0
	}
	factor := resolutions[0] / resolutions[1]
	for i := 1; i < len(resolutions)-1; i++ {
		ratio := resolutions[i] / resolutions[i+1]
		if diff := ratio - factor; diff > 1e-9 || diff < -1e-9 {
			return 0
		}
	}
	return factor
}

// MinZoom returns the lowest usable zoom level.
func (g *Grid) MinZoom() int { return g.minZoom }

// MaxZoom returns the highest zoom level, resolutions count minus one.
func (g *Grid) MaxZoom() int { return g.maxZoom }

// Resolutions returns the resolution of every level, finest last.
func (g *Grid) Resolutions() []float64 { return g.resolutions }

// Extent returns the configured overall extent, if any.
func (g *Grid) Extent() (orb.Bound, bool) {
	if g.extent == nil {
		return orb.Bound{}, false
	}
	return *g.extent, true
}

// Resolution returns the map units per pixel at zoom level z.
// It panics when z is outside [MinZoom, MaxZoom].
func (g *Grid) Resolution(z int) float64 {
	g.assertZ(z)
	return g.resolutions[z]
}

// Origin returns the grid origin (top-left corner) at zoom level z.
func (g *Grid) Origin(z int) orb.Point {
	g.assertZ(z)
	if g.origins != nil {
		return g.origins[z]
	}
	return g.origin
}

// TileSize returns the tile pixel size at zoom level z.
func (g *Grid) TileSize(z int) Size {
	g.assertZ(z)
	if g.tileSizes != nil {
		return g.tileSizes[z]
	}
	return g.tileSize
}

func (g *Grid) assertZ(z int) {
	if z < g.minZoom || z > g.maxZoom {
		panic(fmt.Sprintf("tilegrid: zoom %d outside [%d, %d]", z, g.minZoom, g.maxZoom))
	}
}
