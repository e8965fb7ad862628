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

// SubtitlePolish sends a subtitle file for AI correction and keeps the result.
type SubtitlePolish struct {
	svc services.SubtitleService

	mu          sync.Mutex
	file        *models.File
	result      *models.PolishResult
	onlyChanged bool
	status      GenerateStatus
	err         error
}

func NewSubtitlePolish(svc services.SubtitleService) *SubtitlePolish {
	return &SubtitlePolish{svc: svc, status: StatusIdle}
}

// SetFile selects the subtitle file. Only .srt is accepted.
func (s *SubtitlePolish) SetFile(file *models.File) error {
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

func (s *SubtitlePolish) Polish(ctx context.Context) (*models.PolishResult, error) {
	s.mu.Lock()
	file := s.file
	if file == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no subtitle file", shared.ErrMissingArgument)
	}
	s.status = StatusGenerating
	s.err = nil
	s.mu.Unlock()

	result, err := s.svc.Polish(ctx, file)

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

// SetOnlyChanged filters [SubtitlePolish.Items] to modified cues.
func (s *SubtitlePolish) SetOnlyChanged(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onlyChanged = on
}

// Items returns the cues to display.
func (s *SubtitlePolish) Items() []models.PolishedSubtitleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	if s.onlyChanged {
		return s.result.Changed()
	}
	return s.result.Subtitles
}

func (s *SubtitlePolish) Status() GenerateStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SubtitlePolish) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *SubtitlePolish) Result() *models.PolishResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Output returns the polished SRT as <stem>_polished.srt.
func (s *SubtitlePolish) Output() (models.Output, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return models.Output{}, false
	}
	return models.Output{
		Feature:     models.FeatureSubtitle,
		Filename:    formatter.PolishedFilename(s.file.Name()),
		ContentType: "application/x-subrip",
		Data:        []byte(s.result.SRTContent),
		CreatedAt:   time.Now(),
	}, true
}

func (s *SubtitlePolish) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
	s.result = nil
	s.status = StatusIdle
	s.err = nil
}
