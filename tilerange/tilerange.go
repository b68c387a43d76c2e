// Package tilerange provides an inclusive rectangle of tile columns and
// rows at a fixed zoom level.
package tilerange

import "github.com/vebgen/olts-sub002/tilecoord"

// Range is an inclusive 2D integer rectangle over tile columns and rows.
// MinX <= MaxX and MinY <= MaxY must hold for any non-degenerate range;
// callers must not construct an inverted range. The range is mutable so
// hot per-frame loops can reuse one instance.
type Range struct {
	MinX int
	MaxX int
	MinY int
	MaxY int
}

// New returns the range [minX..maxX] x [minY..maxY].
func New(minX, maxX, minY, maxY int) *Range {
	return &Range{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
}

// NewOrUpdate updates reuse in place when non-nil, otherwise allocates.
func NewOrUpdate(minX, maxX, minY, maxY int, reuse *Range) *Range {
	if reuse != nil {
		reuse.MinX = minX
		reuse.MaxX = maxX
		reuse.MinY = minY
		reuse.MaxY = maxY
		return reuse
	}
	return New(minX, maxX, minY, maxY)
}

// ContainsXY reports whether the column x and row y lie inside the range.
func (r *Range) ContainsXY(x, y int) bool {
	return r.MinX <= x && x <= r.MaxX && r.MinY <= y && y <= r.MaxY
}

// Contains reports whether the coordinate's column and row lie inside the
// range. The zoom level is not checked.
func (r *Range) Contains(c tilecoord.Coord) bool {
	return r.ContainsXY(c.X, c.Y)
}

// ContainsRange reports whether other lies entirely inside the range.
func (r *Range) ContainsRange(other *Range) bool {
	return r.MinX <= other.MinX && other.MaxX <= r.MaxX &&
		r.MinY <= other.MinY && other.MaxY <= r.MaxY
}

// Intersects reports whether the two ranges overlap. Touching edges count
// as overlap because bounds are inclusive.
func (r *Range) Intersects(other *Range) bool {
	return r.MinX <= other.MaxX && r.MaxX >= other.MinX &&
		r.MinY <= other.MaxY && r.MaxY >= other.MinY
}

// Extend grows the range in place so it also covers other.
func (r *Range) Extend(other *Range) {
	r.MinX = min(r.MinX, other.MinX)
	r.MaxX = max(r.MaxX, other.MaxX)
	r.MinY = min(r.MinY, other.MinY)
	r.MaxY = max(r.MaxY, other.MaxY)
}

// Width returns the number of columns. Bounds are inclusive, hence the +1.
func (r *Range) Width() int {
	return r.MaxX - r.MinX + 1
}

// Height returns the number of rows.
func (r *Range) Height() int {
	return r.MaxY - r.MinY + 1
}

// Equal reports whether both ranges have identical bounds.
func (r *Range) Equal(other *Range) bool {
	return *r == *other
}
