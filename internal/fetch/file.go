package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cecompare/cecompare/schema"
)

// FileSource reads datasets saved as <dir>/<side>/<date>.json.
type FileSource struct {
	Dir string
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// Path returns the file holding the dataset of one engine for a date.
func (s *FileSource) Path(side schema.Side, date string) string {
	return filepath.Join(s.Dir, string(side), date+".json")
}

// Fetch reads and decodes the dataset of one engine for a date.
func (s *FileSource) Fetch(ctx context.Context, side schema.Side, date string) (schema.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return schema.Dataset{}, err
	}
	path := s.Path(side, date)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return schema.Dataset{}, fmt.Errorf("%w: %s has no file %s", ErrNoResults, side, path)
	}
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("read %s: %w", path, err)
	}
	return decodeDataset(side, data)
}
