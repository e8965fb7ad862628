// package services defines typed clients for the vmarker backend HTTP API
//
// Chapter bar, progress bar, show notes, subtitle polish, video sessions, YouTube, auth
package services

import (
	"context"

	"github.com/bbruceyuan/vmarker/internal/models"
)

// ChapterBarService covers the chapter bar workflow.
type ChapterBarService interface {
	Themes(ctx context.Context) ([]models.Theme, error)
	Parse(ctx context.Context, file *models.File) (*models.ParseResult, error)
	ExtractAuto(ctx context.Context, file *models.File, interval int) (*models.ChapterList, error)
	ExtractAI(ctx context.Context, file *models.File) (*models.ChapterList, error)
	Validate(ctx context.Context, chapters []models.Chapter, duration float64) (*models.ChapterValidationResult, error)
	Generate(ctx context.Context, req models.ChapterBarRequest) (*models.Blob, error)
}

// ProgressBarService renders standalone progress bar videos.
type ProgressBarService interface {
	Colors(ctx context.Context) ([]models.ProgressBarColor, error)
	Generate(ctx context.Context, cfg models.ProgressBarConfig) (*models.Blob, error)
}

// ShowNotesService produces an AI summary and outline from subtitles.
type ShowNotesService interface {
	Generate(ctx context.Context, file *models.File) (*models.ShowNotesResult, error)
}

// SubtitleService polishes subtitles.
type SubtitleService interface {
	Polish(ctx context.Context, file *models.File) (*models.PolishResult, error)
}

// VideoService drives a server-side video session: upload, transcribe, compose, clean up.
type VideoService interface {
	Upload(ctx context.Context, file *models.File) (*models.VideoUploadResult, error)
	ASR(ctx context.Context, sessionID string) (*models.ASRResult, error)
	SRT(ctx context.Context, sessionID string) (*models.SRTResult, error)
	Compose(ctx context.Context, sessionID string, req models.ComposeRequest) (*models.Blob, error)
	Cleanup(ctx context.Context, sessionID string) error
}

// YouTubeService turns a YouTube link into chapters.
type YouTubeService interface {
	FromURL(ctx context.Context, url string) (*models.YouTubeChaptersResult, error)
}

// AuthService introspects the session as seen by the backend.
type AuthService interface {
	Me(ctx context.Context) (*models.AuthUser, error)
	Check(ctx context.Context) (*models.AuthCheckResponse, error)
}

// Backend bundles every resource client.
type Backend struct {
	ChapterBar  ChapterBarService
	ProgressBar ProgressBarService
	ShowNotes   ShowNotesService
	Subtitle    SubtitleService
	Video       VideoService
	YouTube     YouTubeService
	Auth        AuthService
}

// NewBackend wires every resource client to api.
func NewBackend(api *APIService) *Backend {
	return &Backend{
		ChapterBar:  &ChapterBarClient{api: api},
		ProgressBar: &ProgressBarClient{api: api},
		ShowNotes:   &ShowNotesClient{api: api},
		Subtitle:    &SubtitleClient{api: api},
		Video:       &VideoClient{api: api},
		YouTube:     &YouTubeClient{api: api},
		Auth:        &AuthClient{api: api},
	}
}
