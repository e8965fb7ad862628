package wizard

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// NewChapterLength is the length given to an added chapter, before clamping to the duration.
const NewChapterLength = 60

// TimeField selects a chapter boundary.
type TimeField int

const (
	StartTime TimeField = iota
	EndTime
)

// EditorSnapshot is a consistent view of a [ChapterEditor].
type EditorSnapshot struct {
	Chapters   []models.Chapter
	Issues     []models.ValidationIssue
	Valid      bool
	Validating bool
}

// CanProceed reports whether the editor may hand its chapters to the next step.
func (s EditorSnapshot) CanProceed() bool { return s.Valid && !s.Validating }

// IssuesFor returns the issues attached to chapter i.
func (s EditorSnapshot) IssuesFor(i int) []models.ValidationIssue {
	var out []models.ValidationIssue
	for _, issue := range s.Issues {
		if issue.ChapterIndex != nil && *issue.ChapterIndex == i {
			out = append(out, issue)
		}
	}
	return out
}

// ChapterEditor edits a chapter list and keeps it validated by the backend.
//
// Every change schedules a validation of the resulting list through a [Debouncer];
// only the last list of a burst of edits is sent. A validation result is applied
// only if no edit happened while it was in flight.
type ChapterEditor struct {
	ctx       context.Context
	svc       services.ChapterBarService
	duration  float64
	debouncer *Debouncer
	onUpdate  func(EditorSnapshot)

	mu         sync.Mutex
	chapters   []models.Chapter
	issues     []models.ValidationIssue
	valid      bool
	validating bool
	version    uint64
	closed     bool
}

// EditorOption configures a [ChapterEditor].
type EditorOption func(*ChapterEditor)

// WithDebounce overrides the validation delay.
func WithDebounce(d time.Duration) EditorOption {
	return func(e *ChapterEditor) { e.debouncer = NewDebouncer(d) }
}

// WithUpdates registers fn to receive a snapshot after every change and validation.
// fn runs on the caller's goroutine for edits and on a timer goroutine for validations.
func WithUpdates(fn func(EditorSnapshot)) EditorOption {
	return func(e *ChapterEditor) { e.onUpdate = fn }
}

// NewChapterEditor starts editing chapters and schedules their first validation.
func NewChapterEditor(ctx context.Context, svc services.ChapterBarService, chapters []models.Chapter, duration float64, opts ...EditorOption) *ChapterEditor {
	e := &ChapterEditor{
		ctx:       ctx,
		svc:       svc,
		duration:  duration,
		debouncer: NewDebouncer(DefaultDebounce),
		chapters:  slices.Clone(chapters),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.mu.Lock()
	e.scheduleLocked()
	e.mu.Unlock()
	return e
}

// Duration is the media duration the chapters must fit in.
func (e *ChapterEditor) Duration() float64 { return e.duration }

// Snapshot returns the current state.
func (e *ChapterEditor) Snapshot() EditorSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *ChapterEditor) snapshotLocked() EditorSnapshot {
	return EditorSnapshot{
		Chapters:   slices.Clone(e.chapters),
		Issues:     slices.Clone(e.issues),
		Valid:      e.valid,
		Validating: e.validating,
	}
}

// Chapters returns a copy of the current list.
func (e *ChapterEditor) Chapters() []models.Chapter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.chapters)
}

// CanProceed is true once the latest list validated without blocking issues.
func (e *ChapterEditor) CanProceed() bool {
	return e.Snapshot().CanProceed()
}

// CanDelete is false when only one chapter remains.
func (e *ChapterEditor) CanDelete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.chapters) > 1
}

// SetTitle renames chapter i.
func (e *ChapterEditor) SetTitle(i int, title string) error {
	return e.edit(func() error {
		if err := e.checkIndexLocked(i); err != nil {
			return err
		}
		e.chapters[i].Title = title
		return nil
	})
}

// SetTime moves a boundary of chapter i to seconds. Negative times are rejected.
func (e *ChapterEditor) SetTime(i int, field TimeField, seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) {
		return fmt.Errorf("%w: time must not be negative", shared.ErrInvalidInput)
	}
	return e.edit(func() error {
		if err := e.checkIndexLocked(i); err != nil {
			return err
		}
		if field == StartTime {
			e.chapters[i].StartTime = seconds
		} else {
			e.chapters[i].EndTime = seconds
		}
		return nil
	})
}

// SetTimeInput parses "m:ss" or plain seconds and applies it. Bad input leaves the chapter unchanged.
func (e *ChapterEditor) SetTimeInput(i int, field TimeField, input string) error {
	seconds, ok := shared.ParseTime(input)
	if !ok {
		return fmt.Errorf("%w: %q is not a time", shared.ErrInvalidInput, input)
	}
	return e.SetTime(i, field, seconds)
}

// Add appends a chapter starting where the last one ends.
func (e *ChapterEditor) Add() {
	_ = e.edit(func() error {
		start := 0.0
		if n := len(e.chapters); n > 0 {
			start = e.chapters[n-1].EndTime
		}
		e.chapters = append(e.chapters, models.Chapter{
			Title:     fmt.Sprintf("Chapter %d", len(e.chapters)+1),
			StartTime: start,
			EndTime:   math.Min(start+NewChapterLength, e.duration),
		})
		return nil
	})
}

// Delete removes chapter i unless it is the last one left.
func (e *ChapterEditor) Delete(i int) error {
	return e.edit(func() error {
		if err := e.checkIndexLocked(i); err != nil {
			return err
		}
		if len(e.chapters) <= 1 {
			return fmt.Errorf("%w: at least one chapter is required", shared.ErrInvalidInput)
		}
		e.chapters = slices.Delete(e.chapters, i, i+1)
		return nil
	})
}

// Close cancels any pending validation. A validation already in flight is discarded.
func (e *ChapterEditor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.debouncer.Stop()
}

func (e *ChapterEditor) checkIndexLocked(i int) error {
	if i < 0 || i >= len(e.chapters) {
		return fmt.Errorf("%w: chapter %d out of range", shared.ErrInvalidArgument, i+1)
	}
	return nil
}

func (e *ChapterEditor) edit(fn func() error) error {
	e.mu.Lock()
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.version++
	e.scheduleLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// scheduleLocked marks the list unvalidated until the scheduled run for this version lands.
func (e *ChapterEditor) scheduleLocked() {
	e.validating = true
	chapters := slices.Clone(e.chapters)
	version := e.version
	e.debouncer.Trigger(func() { e.validate(chapters, version) })
}

func (e *ChapterEditor) validate(chapters []models.Chapter, version uint64) {
	var (
		result *models.ChapterValidationResult
		err    error
	)
	if len(chapters) > 0 {
		result, err = e.svc.Validate(e.ctx, chapters, e.duration)
	}

	e.mu.Lock()
	if e.closed || e.version != version {
		e.mu.Unlock()
		return
	}

	e.validating = false
	switch {
	case len(chapters) == 0, err != nil:
		e.valid = false
		e.issues = nil
	default:
		e.valid = result.Valid && !result.HasBlocking()
		e.issues = result.Issues
		if len(result.Chapters) > 0 && !slices.Equal(result.Chapters, e.chapters) {
			e.chapters = slices.Clone(result.Chapters)
		}
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

func (e *ChapterEditor) notify(snap EditorSnapshot) {
	if e.onUpdate != nil {
		e.onUpdate(snap)
	}
}
