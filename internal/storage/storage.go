package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Sink is a place generated outputs are written to.
type Sink interface {
	// Backend names the sink kind, stored with each artifact.
	Backend() string
	// Save writes body under name and returns where it landed.
	Save(ctx context.Context, name, contentType string, body io.Reader) (location string, err error)
	// Open reads back a location returned by Save.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	// Remove deletes a location returned by Save.
	Remove(ctx context.Context, location string) error
}

// New builds the sink selected by cfg.Backend.
func New(ctx context.Context, cfg shared.StorageConfig) (Sink, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendLocal:
		return NewLocalSink(cfg.OutputDir), nil
	case BackendS3:
		return NewS3Sink(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// Recorder stores artifact history.
type Recorder interface {
	Create(artifact *models.Artifact) error
}

// Archive saves outputs to a [Sink] and records each one.
type Archive struct {
	sink     Sink
	recorder Recorder
}

// NewArchive creates an archive. recorder may be nil when history is disabled.
func NewArchive(sink Sink, recorder Recorder) *Archive {
	return &Archive{sink: sink, recorder: recorder}
}

// Sink returns the underlying sink.
func (a *Archive) Sink() Sink { return a.sink }

// Store saves data as name and records it under feature.
func (a *Archive) Store(ctx context.Context, feature models.Feature, sourceName, name, contentType string, data []byte) (*models.Artifact, error) {
	location, err := a.sink.Save(ctx, name, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	artifact := models.NewArtifact(feature, sourceName, location, a.sink.Backend(), contentType, int64(len(data)))
	if a.recorder != nil {
		if err := a.recorder.Create(artifact); err != nil {
			return artifact, fmt.Errorf("saved %s but failed to record it: %w", location, err)
		}
	}
	return artifact, nil
}

// StoreOutput is [Archive.Store] for a [models.Output].
func (a *Archive) StoreOutput(ctx context.Context, sourceName string, out models.Output) (*models.Artifact, error) {
	return a.Store(ctx, out.Feature, sourceName, out.Filename, out.ContentType, out.Data)
}
