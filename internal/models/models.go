// package models defines the data model for the vmarker client
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the client's local store.
// Implementations include Artifact and VideoSession.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Feature identifies a processing feature offered by the backend.
type Feature string

const (
	FeatureChapterBar  Feature = "chapter-bar"
	FeatureProgressBar Feature = "progress-bar"
	FeatureShowNotes   Feature = "shownotes"
	FeatureSubtitle    Feature = "subtitle"
	FeatureYouTube     Feature = "youtube"
)

// Features lists every feature in display order.
var Features = []Feature{FeatureChapterBar, FeatureProgressBar, FeatureShowNotes, FeatureSubtitle, FeatureYouTube}

// ParseFeature resolves a feature name, accepting a few common spellings.
func ParseFeature(s string) (Feature, bool) {
	switch s {
	case "chapter-bar", "chapterbar", "chapters":
		return FeatureChapterBar, true
	case "progress-bar", "progressbar", "progress":
		return FeatureProgressBar, true
	case "shownotes", "show-notes", "notes":
		return FeatureShowNotes, true
	case "subtitle", "subtitles", "polish":
		return FeatureSubtitle, true
	case "youtube", "yt":
		return FeatureYouTube, true
	}
	return "", false
}

// VideoFormat is the container of a generated overlay video.
type VideoFormat string

const (
	FormatMP4 VideoFormat = "mp4"
	FormatMOV VideoFormat = "mov"
)

// ParseVideoFormat accepts "mp4" or "mov".
func ParseVideoFormat(s string) (VideoFormat, bool) {
	switch VideoFormat(s) {
	case FormatMP4, FormatMOV:
		return VideoFormat(s), true
	}
	return "", false
}

// Position places an overlay on the composed video.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)
