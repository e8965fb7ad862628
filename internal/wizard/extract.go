package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
)

// ExtractMode selects how chapters are derived from subtitles.
type ExtractMode string

const (
	ModeAI   ExtractMode = "ai"
	ModeAuto ExtractMode = "auto"
)

const (
	MinInterval     = 30
	MaxInterval     = 300
	DefaultInterval = 60
)

// ErrExtractionFailed is returned when both AI and fixed-interval extraction fail.
var ErrExtractionFailed = errors.New("chapter extraction failed, please retry")

// ParseExtractMode accepts "ai" or "auto".
func ParseExtractMode(s string) (ExtractMode, error) {
	switch ExtractMode(strings.ToLower(s)) {
	case ModeAI:
		return ModeAI, nil
	case ModeAuto:
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q (use ai or auto)", s)
}

// Extraction holds the extract step's choices.
type Extraction struct {
	svc      services.ChapterBarService
	mode     ExtractMode
	interval int
}

// NewExtraction defaults to AI mode with a 60 second interval.
func NewExtraction(svc services.ChapterBarService) *Extraction {
	return &Extraction{svc: svc, mode: ModeAI, interval: DefaultInterval}
}

func (e *Extraction) Mode() ExtractMode        { return e.mode }
func (e *Extraction) Interval() int            { return e.interval }
func (e *Extraction) SetMode(mode ExtractMode) { e.mode = mode }

// SetInterval accepts seconds within [MinInterval, MaxInterval] and ignores anything else.
func (e *Extraction) SetInterval(seconds int) bool {
	if seconds < MinInterval || seconds > MaxInterval {
		return false
	}
	e.interval = seconds
	return true
}

// SetIntervalInput parses raw input; unparsable or out of range input is ignored.
func (e *Extraction) SetIntervalInput(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return e.SetInterval(n)
}

// ExtractResult reports which path produced the chapters.
type ExtractResult struct {
	Chapters []models.Chapter
	Duration float64
	Mode     ExtractMode
	// AIError is set when AI extraction failed and fixed intervals were used instead.
	AIError error
}

// FellBack reports whether AI extraction was attempted and abandoned.
func (r ExtractResult) FellBack() bool { return r.AIError != nil }

// Run extracts chapters from file. A failed AI extraction retries with fixed intervals.
func (e *Extraction) Run(ctx context.Context, file *models.File) (*ExtractResult, error) {
	if e.mode == ModeAuto {
		list, err := e.svc.ExtractAuto(ctx, file, e.interval)
		if err != nil {
			return nil, err
		}
		return &ExtractResult{Chapters: list.Chapters, Duration: list.Duration, Mode: ModeAuto}, nil
	}

	list, aiErr := e.svc.ExtractAI(ctx, file)
	if aiErr == nil {
		return &ExtractResult{Chapters: list.Chapters, Duration: list.Duration, Mode: ModeAI}, nil
	}

	list, err := e.svc.ExtractAuto(ctx, file, e.interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, errors.Join(aiErr, err))
	}
	return &ExtractResult{Chapters: list.Chapters, Duration: list.Duration, Mode: ModeAuto, AIError: aiErr}, nil
}
