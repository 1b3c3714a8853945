package source

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads the word list from the local filesystem.
type FileSource struct {
	path     string
	maxBytes int64
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, maxBytes int64) *FileSource {
	return &FileSource{path: path, maxBytes: maxBytes}
}

// Fetch reads the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path) // #nosec G304 -- path comes from the operator's configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	data, err := readLimited(f, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileSource) String() string {
	return "file://" + s.path
}
