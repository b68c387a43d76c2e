// Package xyz reads and writes tilesets stored as one file per tile
// under a "{z}/{x}/{y}" path pattern. Like mb, it feeds tile.DataTile
// loaders.
package xyz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vebgen/olts-sub002/tilecoord"
)

var ErrInvalidPattern = errors.New("xyz: invalid file pattern")

func validatePattern(pattern string) error {
	for _, p := range []string{"{x}", "{y}", "{z}"} {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, c tilecoord.Coord) string {
	result := pattern
	result = strings.ReplaceAll(result, "{x}", strconv.Itoa(c.X))
	result = strings.ReplaceAll(result, "{y}", strconv.Itoa(c.Y))
	result = strings.ReplaceAll(result, "{z}", strconv.Itoa(c.Z))
	return result
}
