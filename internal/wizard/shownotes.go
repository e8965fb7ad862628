package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// ShowNotes generates a summary and outline from a subtitle file.
type ShowNotes struct {
	svc services.ShowNotesService

	mu         sync.Mutex
	file       *models.File
	result     *models.ShowNotesResult
	timestamps bool
	status     GenerateStatus
	err        error
}

func NewShowNotes(svc services.ShowNotesService) *ShowNotes {
	return &ShowNotes{svc: svc, timestamps: true, status: StatusIdle}
}

// SetFile selects the subtitle file. Only .srt is accepted.
func (s *ShowNotes) SetFile(file *models.File) error {
	if err := shared.ValidateSubtitleFile(file.Name(), file.Size()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = file
	s.result = nil
	s.status = StatusIdle
	s.err = nil
	return nil
}

// Generate asks the backend for show notes. Calling it again regenerates.
func (s *ShowNotes) Generate(ctx context.Context) (*models.ShowNotesResult, error) {
	s.mu.Lock()
	file := s.file
	if file == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no subtitle file", shared.ErrMissingArgument)
	}
	s.status = StatusGenerating
	s.err = nil
	s.mu.Unlock()

	result, err := s.svc.Generate(ctx, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusError
		s.err = err
		return nil, err
	}
	s.status = StatusSuccess
	s.result = result
	return result, nil
}

func (s *ShowNotes) SetTimestamps(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timestamps = on
}

func (s *ShowNotes) Status() GenerateStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *ShowNotes) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ShowNotes) Result() *models.ShowNotesResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Markdown renders the last result, or "" before one exists.
func (s *ShowNotes) Markdown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return ""
	}
	return formatter.ShowNotesMarkdown(s.result, s.timestamps)
}

// Output returns the Markdown as <stem>_shownotes.md.
func (s *ShowNotes) Output() (models.Output, bool) {
	md := s.Markdown()
	if md == "" {
		return models.Output{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Output{
		Feature:     models.FeatureShowNotes,
		Filename:    s.file.Stem() + "_shownotes.md",
		ContentType: "text/markdown; charset=utf-8",
		Data:        []byte(md),
		CreatedAt:   time.Now(),
	}, true
}

// Reset clears the file and result.
func (s *ShowNotes) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
	s.result = nil
	s.status = StatusIdle
	s.err = nil
}
