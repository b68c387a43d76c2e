// Package tilecoord provides the tile coordinate value type and its
// key encoding used throughout the tile cache.
package tilecoord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidKey = errors.New("tilecoord: invalid tile coordinate key")

// Coord addresses a single tile: Z is the zoom level, X and Y are the
// tile column and row. X and Y are unbounded in sign; coordinates may
// lie outside grid bounds until clamped or wrapped by the caller.
type Coord struct {
	Z int
	X int
	Y int
}

// New returns the coordinate (z, x, y).
func New(z, x, y int) Coord {
	return Coord{Z: z, X: x, Y: y}
}

// Key returns the canonical "z/x/y" string used as a cache key.
func (c Coord) Key() string {
	return strconv.Itoa(c.Z) + "/" + strconv.Itoa(c.X) + "/" + strconv.Itoa(c.Y)
}

func (c Coord) String() string {
	return c.Key()
}

// Equal reports whether two coordinates address the same tile.
func (c Coord) Equal(other Coord) bool {
	return c == other
}

// ParseKey decodes a "z/x/y" key back into a coordinate.
func ParseKey(key string) (Coord, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Coord{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		nums[i] = n
	}

	return Coord{Z: nums[0], X: nums[1], Y: nums[2]}, nil
}
