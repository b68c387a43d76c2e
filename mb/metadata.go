package mb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tilegrid"
)

var ErrBadMetadata = errors.New("mb: bad metadata")

// Metadata is the typed view of the MBTiles metadata table fields the
// tile core cares about. Bounds are in WGS84 longitude/latitude as the
// format prescribes.
type Metadata struct {
	Name    string
	Format  string
	Bounds  orb.Bound
	MinZoom int
	MaxZoom int
}

// ParseMetadata extracts the typed fields from raw metadata rows.
// Missing minzoom/maxzoom default to 0 and 18; missing bounds default to
// the whole world.
func ParseMetadata(raw map[string]string) (Metadata, error) {
	m := Metadata{
		Name:    raw["name"],
		Format:  raw["format"],
		Bounds:  proj.WGS84.Extent,
		MaxZoom: 18,
	}

	var err error
	if v, ok := raw["minzoom"]; ok {
		if m.MinZoom, err = strconv.Atoi(v); err != nil {
			return Metadata{}, fmt.Errorf("%w: minzoom %q", ErrBadMetadata, v)
		}
	}
	if v, ok := raw["maxzoom"]; ok {
		if m.MaxZoom, err = strconv.Atoi(v); err != nil {
			return Metadata{}, fmt.Errorf("%w: maxzoom %q", ErrBadMetadata, v)
		}
	}
	if m.MinZoom < 0 || m.MaxZoom < m.MinZoom {
		return Metadata{}, fmt.Errorf("%w: zoom range [%v, %v]", ErrBadMetadata, m.MinZoom, m.MaxZoom)
	}

	if v, ok := raw["bounds"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) != 4 {
			return Metadata{}, fmt.Errorf("%w: bounds %q", ErrBadMetadata, v)
		}
		var coords [4]float64
		for i, p := range parts {
			if coords[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
				return Metadata{}, fmt.Errorf("%w: bounds %q", ErrBadMetadata, v)
			}
		}
		m.Bounds = orb.Bound{
			Min: orb.Point{coords[0], coords[1]},
			Max: orb.Point{coords[2], coords[3]},
		}
	}

	return m, nil
}

// Grid derives the tile grid the set was cut against: the standard
// web-mercator XYZ pyramid restricted to the metadata's zoom range.
func (m Metadata) Grid(tileSize float64) (*tilegrid.Grid, error) {
	extent := proj.WebMercator.Extent
	maxResolution := (extent.Max[0] - extent.Min[0]) / tileSize

	resolutions := make([]float64, m.MaxZoom+1)
	for z := range resolutions {
		resolutions[z] = maxResolution / float64(int(1)<<z)
	}

	return tilegrid.New(resolutions,
		tilegrid.WithOrigin(orb.Point{extent.Min[0], extent.Max[1]}),
		tilegrid.WithTileSize(tilegrid.Size{tileSize, tileSize}),
		tilegrid.WithExtent(extent),
		tilegrid.WithMinZoom(m.MinZoom),
	)
}
