package models

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is an upload source: either a path on disk or an in-memory buffer.
type File struct {
	name string
	size int64
	path string
	data []byte
}

// FileFromPath stats path and returns a [File] that is opened lazily.
func FileFromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{name: filepath.Base(path), size: info.Size(), path: path}, nil
}

// FileFromBytes wraps data as a named in-memory [File].
func FileFromBytes(name string, data []byte) *File {
	return &File{name: name, size: int64(len(data)), data: data}
}

// Name returns the base file name sent in multipart uploads.
func (f *File) Name() string { return f.name }

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

// Path returns the on-disk path, or "" for in-memory files.
func (f *File) Path() string { return f.path }

// Ext returns the lower-cased extension including the dot.
func (f *File) Ext() string { return strings.ToLower(filepath.Ext(f.name)) }

// Stem returns the name without its extension.
func (f *File) Stem() string { return strings.TrimSuffix(f.name, filepath.Ext(f.name)) }

// Open returns a reader over the file contents. The caller closes it.
func (f *File) Open() (io.ReadCloser, error) {
	if f.path == "" {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}
	return os.Open(f.path)
}

// ReadAll returns the full contents.
func (f *File) ReadAll() ([]byte, error) {
	if f.path == "" {
		return f.data, nil
	}
	return os.ReadFile(f.path)
}
