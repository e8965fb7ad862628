package wizard

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// ChapterBarStep is a step of the chapter bar wizard.
type ChapterBarStep string

const (
	StepUpload   ChapterBarStep = "upload"
	StepExtract  ChapterBarStep = "extract"
	StepEdit     ChapterBarStep = "edit"
	StepConfig   ChapterBarStep = "config"
	StepGenerate ChapterBarStep = "generate"
)

// ChapterBarSteps lists the steps in order.
var ChapterBarSteps = []ChapterBarStep{StepUpload, StepExtract, StepEdit, StepConfig, StepGenerate}

// Title is a short label for the step.
func (s ChapterBarStep) Title() string {
	switch s {
	case StepUpload:
		return "Upload subtitles"
	case StepExtract:
		return "Extract chapters"
	case StepEdit:
		return "Edit chapters"
	case StepConfig:
		return "Style"
	case StepGenerate:
		return "Generate video"
	}
	return string(s)
}

// ChapterBarState is everything the wizard has collected so far.
type ChapterBarState struct {
	File        *models.File
	Duration    float64
	Chapters    []models.Chapter
	Style       ThemeConfig
	IsQuickMode bool
}

// QuickKind says which way a quick generate went.
type QuickKind int

const (
	// QuickReady means AI chapters were extracted and the wizard is on the generate step.
	QuickReady QuickKind = iota
	// QuickFallback means extraction failed and the wizard is on the extract step.
	QuickFallback
)

// QuickOutcome is the result of [ChapterBar.QuickGenerate].
type QuickOutcome struct {
	Kind     QuickKind
	Chapters []models.Chapter
	// Err is why quick mode fell back. It is informational; the wizard is still usable.
	Err error
}

// ChapterBar is the chapter bar wizard: upload, extract, edit, config, generate.
//
// Forward moves happen only in the completion handler of the current step
// ([ChapterBar.FileUploaded], [ChapterBar.ChaptersExtracted], [ChapterBar.EditNext],
// [ChapterBar.ConfigNext], or a successful [ChapterBar.QuickGenerate]).
type ChapterBar struct {
	ctx      context.Context
	svc      services.ChapterBarService
	previews Previewer
	editOpts []EditorOption

	mu        sync.Mutex
	steps     *Steps[ChapterBarStep]
	state     ChapterBarState
	editor    *ChapterEditor
	generator *Generator
}

// NewChapterBar starts a wizard on the upload step. ctx bounds background
// validation calls made by the editor. previews may be nil.
func NewChapterBar(ctx context.Context, svc services.ChapterBarService, previews Previewer, editOpts ...EditorOption) *ChapterBar {
	return &ChapterBar{
		ctx:      ctx,
		svc:      svc,
		previews: previews,
		editOpts: editOpts,
		steps:    NewSteps(ChapterBarSteps...),
		state:    ChapterBarState{Style: DefaultThemeConfig()},
	}
}

// Step returns the current step.
func (w *ChapterBar) Step() ChapterBarStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps.Current()
}

// StepIndex returns the current step's position.
func (w *ChapterBar) StepIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps.Index()
}

// State returns a copy of the collected state.
func (w *ChapterBar) State() ChapterBarState {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.state
	s.Chapters = slices.Clone(s.Chapters)
	return s
}

// Editor returns the chapter editor while on the edit step.
func (w *ChapterBar) Editor() *ChapterEditor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editor
}

// Generator returns the generator while on the generate step.
func (w *ChapterBar) Generator() *Generator {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generator
}

// LoadFile checks a subtitle file locally, then asks the backend to parse it.
func (w *ChapterBar) LoadFile(ctx context.Context, file *models.File) (*models.ParseResult, error) {
	if err := shared.ValidateSubtitleFile(file.Name(), file.Size()); err != nil {
		return nil, err
	}
	return w.svc.Parse(ctx, file)
}

func (w *ChapterBar) expectLocked(step ChapterBarStep) error {
	if cur := w.steps.Current(); cur != step {
		return fmt.Errorf("%w: on %s, not %s", shared.ErrStepLocked, cur, step)
	}
	return nil
}

// FileUploaded completes the upload step.
func (w *ChapterBar) FileUploaded(file *models.File, duration float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expectLocked(StepUpload); err != nil {
		return err
	}
	w.state.File = file
	w.state.Duration = duration
	w.state.IsQuickMode = false
	w.enterLocked(StepExtract)
	return nil
}

// QuickGenerate extracts AI chapters and skips straight to generation with default styling.
// When extraction fails the wizard lands on the extract step instead.
func (w *ChapterBar) QuickGenerate(ctx context.Context, file *models.File, duration float64) (QuickOutcome, error) {
	w.mu.Lock()
	err := w.expectLocked(StepUpload)
	w.mu.Unlock()
	if err != nil {
		return QuickOutcome{}, err
	}

	list, extractErr := w.svc.ExtractAI(ctx, file)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.state.File = file
	w.state.Duration = duration

	if extractErr != nil {
		w.state.IsQuickMode = false
		w.enterLocked(StepExtract)
		return QuickOutcome{Kind: QuickFallback, Err: extractErr}, nil
	}

	w.state.Chapters = slices.Clone(list.Chapters)
	w.state.Style = DefaultThemeConfig()
	w.state.IsQuickMode = true
	w.enterLocked(StepGenerate)
	return QuickOutcome{Kind: QuickReady, Chapters: slices.Clone(list.Chapters)}, nil
}

// Extraction returns a fresh extraction helper for the extract step.
func (w *ChapterBar) Extraction() *Extraction {
	return NewExtraction(w.svc)
}

// ChaptersExtracted completes the extract step.
func (w *ChapterBar) ChaptersExtracted(chapters []models.Chapter) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expectLocked(StepExtract); err != nil {
		return err
	}
	w.state.Chapters = slices.Clone(chapters)
	w.enterLocked(StepEdit)
	return nil
}

// EditNext completes the edit step once the editor's chapters are valid.
func (w *ChapterBar) EditNext() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expectLocked(StepEdit); err != nil {
		return err
	}
	if w.editor == nil {
		return fmt.Errorf("%w: editor not started", shared.ErrStepLocked)
	}

	snap := w.editor.Snapshot()
	if !snap.CanProceed() {
		if snap.Validating {
			return fmt.Errorf("%w: validation in progress", shared.ErrStepLocked)
		}
		return fmt.Errorf("%w: chapters have blocking issues", shared.ErrStepLocked)
	}

	w.state.Chapters = snap.Chapters
	w.enterLocked(StepConfig)
	return nil
}

// ConfigChanged records the style chosen on the config step.
func (w *ChapterBar) ConfigChanged(cfg ThemeConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Style = cfg
}

// ConfigNext completes the config step.
func (w *ChapterBar) ConfigNext() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expectLocked(StepConfig); err != nil {
		return err
	}
	w.enterLocked(StepGenerate)
	return nil
}

// Prev moves back one step.
func (w *ChapterBar) Prev() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.steps.Prev()
	w.enterLocked(w.steps.Current())
}

// GeneratePrev leaves the generate step. In quick mode it returns to upload.
func (w *ChapterBar) GeneratePrev() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.IsQuickMode {
		w.state.IsQuickMode = false
		w.enterLocked(StepUpload)
		return
	}
	w.steps.Prev()
	w.enterLocked(w.steps.Current())
}

// GoTo jumps back to an already visited step.
func (w *ChapterBar) GoTo(step ChapterBarStep) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.steps.GoTo(step); err != nil {
		return err
	}
	w.enterLocked(step)
	return nil
}

// Close releases the editor timer and any preview.
func (w *ChapterBar) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.leaveLocked()
}

// enterLocked moves to step and sets up or tears down its helpers.
func (w *ChapterBar) enterLocked(step ChapterBarStep) {
	if w.editor != nil {
		w.state.Chapters = w.editor.Chapters()
	}
	w.leaveLocked()
	w.steps.jump(step)

	switch step {
	case StepEdit:
		w.editor = NewChapterEditor(w.ctx, w.svc, w.state.Chapters, w.state.Duration, w.editOpts...)
	case StepGenerate:
		w.generator = NewGenerator(w.svc, slices.Clone(w.state.Chapters), w.state.Duration, w.state.Style, w.previews)
	}
}

func (w *ChapterBar) leaveLocked() {
	if w.editor != nil {
		w.editor.Close()
		w.editor = nil
	}
	if w.generator != nil {
		w.generator.Close()
		w.generator = nil
	}
}
