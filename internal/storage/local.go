package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSink writes outputs into a directory.
type LocalSink struct {
	dir string
}

// NewLocalSink creates a sink rooted at dir ("." when empty).
func NewLocalSink(dir string) *LocalSink {
	if dir == "" {
		dir = "."
	}
	return &LocalSink{dir: dir}
}

func (s *LocalSink) Backend() string { return BackendLocal }

// Save writes body to dir/name, replacing an existing file.
func (s *LocalSink) Save(_ context.Context, name, _ string, body io.Reader) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

func (s *LocalSink) Open(_ context.Context, location string) (io.ReadCloser, error) {
	return os.Open(location)
}

func (s *LocalSink) Remove(_ context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
