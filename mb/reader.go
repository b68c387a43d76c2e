// Package mb reads and writes tilesets in the MBTiles format, an sqlite
// database with a tiles table in TMS row order and a metadata table. It
// is the main payload source behind tile.DataTile loaders.
//
// Note: the caller must register the sqlite3 database/sql driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vebgen/olts-sub002/tile"
	"github.com/vebgen/olts-sub002/tilecoord"
)

// Reader reads tiles and metadata from one MBTiles file.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader opens the MBTiles file at filePath read-only.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

// ReadMetadata returns the raw name/value pairs of the metadata table.
// Use ParseMetadata for the typed view.
func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

// ReadTile returns the payload stored for the tile coordinate, or an
// empty (non-nil) payload when the tileset has no such tile. The MBTiles
// row axis points up, so the y coordinate is flipped.
func (r *Reader) ReadTile(c tilecoord.Coord) ([]byte, error) {
	y := (1 << c.Z) - 1 - c.Y // XYZ -> TMS

	var tileData []byte
	if err := r.stmt.QueryRow(c.Z, c.X, y).Scan(&tileData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]byte, 0), nil
		}
		return nil, err
	}

	return tileData, nil
}

// Loader adapts the reader to the tile.DataLoader contract. A coordinate
// missing from the tileset loads as an empty payload, which resolves the
// tile as Empty rather than Error.
func (r *Reader) Loader() tile.DataLoader {
	return r.ReadTile
}

// VisitTiles calls visitor for every tile in the set, stopping at the
// first error.
func (r *Reader) VisitTiles(visitor func(tilecoord.Coord, []byte) error) error {
	rows, err := r.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z int
		var tileData []byte

		if err := rows.Scan(&z, &x, &y, &tileData); err != nil {
			return err
		}

		y = (1 << z) - 1 - y // TMS -> XYZ

		if err := visitor(tilecoord.New(z, x, y), tileData); err != nil {
			return err
		}
	}

	return rows.Err()
}
