package tilecoord

import (
	"github.com/google/hilbert"
)

// Hash returns a 64-bit hash of the coordinate for use in non-string-keyed
// structures. Canonical coordinates (0 <= x,y < 2^z) map to their position
// on the zoom level's Hilbert curve offset by the tile count of all coarser
// levels, so nearby tiles hash to nearby values. Non-canonical coordinates
// fall back to bit mixing.
func Hash(c Coord) uint64 {
	if canonical(c) {
		h, _ := hilbert.NewHilbert(1 << c.Z)
		pos, _ := h.MapInverse(c.X, c.Y)

		tilesBefore := (uint64(1)<<(2*c.Z) - 1) / 3
		return tilesBefore + uint64(pos)
	}
	return mix(uint64(int64(c.Z)), uint64(int64(c.X)), uint64(int64(c.Y)))
}

func canonical(c Coord) bool {
	return c.Z >= 0 && c.Z < 30 &&
		c.X >= 0 && c.X < 1<<c.Z &&
		c.Y >= 0 && c.Y < 1<<c.Z
}

// mix is a splitmix64-style avalanche over the three components.
func mix(z, x, y uint64) uint64 {
	h := z
	for _, v := range [...]uint64{x, y} {
		h ^= v + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
		h *= 0xbf58476d1ce4e5b9
		h ^= h >> 31
	}
	// Keep clear of the canonical range (which never exceeds 2^61).
	return h | 1<<63
}
