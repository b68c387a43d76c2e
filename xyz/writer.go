package xyz

import (
	"os"
	"path/filepath"

	"github.com/vebgen/olts-sub002/tilecoord"
)

// Writer writes tiles as individual files under a "{z}/{x}/{y}" pattern.
type Writer struct {
	filePattern string
}

// NewWriter creates a Writer for the given file pattern
// (e.g. "/home/user/tiles/{z}/{x}/{y}.png").
func NewWriter(filePattern string) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern}, nil
}

// WriteTile stores the payload under the coordinate's path, creating
// intermediate directories as needed.
func (w *Writer) WriteTile(c tilecoord.Coord, tileData []byte) error {
	filePath := formatPattern(w.filePattern, c)

	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, tileData, 0644)
}
