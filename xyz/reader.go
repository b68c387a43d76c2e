package xyz

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vebgen/olts-sub002/tile"
	"github.com/vebgen/olts-sub002/tilecoord"
)

// Reader reads tiles laid out on disk under a "{z}/{x}/{y}" file pattern.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// NewReader creates a Reader for the given file pattern
// (e.g. "/home/user/tiles/{z}/{x}/{y}.png").
func NewReader(filePattern string) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}

	regexPattern := filePattern
	regexPattern = strings.ReplaceAll(regexPattern, "{x}", `(?P<x>\d+)`)
	regexPattern = strings.ReplaceAll(regexPattern, "{y}", `(?P<y>\d+)`)
	regexPattern = strings.ReplaceAll(regexPattern, "{z}", `(?P<z>\d+)`)
	pathRegexp, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	// The deepest directory shared by all tile paths is where walks start.
	path0 := formatPattern(filePattern, tilecoord.New(0, 0, 0))
	path1 := formatPattern(filePattern, tilecoord.New(1, 1, 1))
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}
	rootDir := path0

	return &Reader{filePattern, rootDir, pathRegexp}, nil
}

// ReadTile returns the tile file's contents, or an empty (non-nil)
// payload when no file exists for the coordinate.
func (r *Reader) ReadTile(c tilecoord.Coord) ([]byte, error) {
	filePath := formatPattern(r.filePattern, c)
	tileData, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

// Loader adapts the reader to the tile.DataLoader contract; missing
// files resolve their tile as Empty.
func (r *Reader) Loader() tile.DataLoader {
	return r.ReadTile
}

// VisitTiles calls visitor for every file under the pattern's root
// directory whose path matches the pattern, stopping at the first error.
func (r *Reader) VisitTiles(visitor func(tilecoord.Coord, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil // unrelated file in the tile tree
		}

		x, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("x")])
		y, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("y")])
		z, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("z")])

		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(tilecoord.New(z, x, y), tileData)
	})
}
