package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// Progress checkpoints. Speech recognition spans asrStart to asrDone; features share
// the rest up to featuresEnd, and the run ends at 100.
const (
	asrStart    = 10.0
	asrDone     = 40.0
	featuresEnd = 90.0
)

// TranscriptName is the file name given to the speech recognition transcript when it is
// handed to subtitle-based features.
const TranscriptName = "subtitles.srt"

// ErrEmptyTranscript is returned when speech recognition finds nothing to work with.
var ErrEmptyTranscript = errors.New("speech recognition produced no subtitles")

// Selection says which features a run should produce.
type Selection struct {
	ChapterBar  bool
	ProgressBar bool
	ShowNotes   bool
	Subtitle    bool
}

// ParseSelection builds a selection from feature names such as "chapter-bar" or "shownotes".
func ParseSelection(names []string) (Selection, error) {
	var sel Selection
	for _, name := range names {
		f, ok := models.ParseFeature(name)
		if !ok {
			return Selection{}, fmt.Errorf("%w: unknown feature %q", shared.ErrInvalidArgument, name)
		}
		switch f {
		case models.FeatureChapterBar:
			sel.ChapterBar = true
		case models.FeatureProgressBar:
			sel.ProgressBar = true
		case models.FeatureShowNotes:
			sel.ShowNotes = true
		case models.FeatureSubtitle:
			sel.Subtitle = true
		default:
			return Selection{}, fmt.Errorf("%w: %s is not available for uploaded videos", shared.ErrInvalidArgument, f)
		}
	}
	return sel, nil
}

// NeedsASR reports whether any selected feature works from a transcript.
func (s Selection) NeedsASR() bool { return s.ChapterBar || s.ShowNotes || s.Subtitle }

// Count returns the number of selected features.
func (s Selection) Count() int {
	n := 0
	for _, on := range []bool{s.ChapterBar, s.ProgressBar, s.ShowNotes, s.Subtitle} {
		if on {
			n++
		}
	}
	return n
}

// ComposeConfig styles the overlays burned into the video.
type ComposeConfig struct {
	Position       models.Position
	Theme          string
	BarHeight      int
	ProgressHeight int
	PlayedColor    string
	UnplayedColor  string
}

// DefaultComposeConfig returns the overlay styling used when none is given.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		Position:       models.PositionBottom,
		Theme:          "tech-blue",
		BarHeight:      60,
		ProgressHeight: 8,
		PlayedColor:    "#3B82F6",
		UnplayedColor:  "#E5E7EB",
	}
}

// ChapterBarResult is the composed chapter bar video and the chapters it shows.
type ChapterBarResult struct {
	Chapters []models.Chapter
	Video    *models.Blob
}

// Results holds everything a successful run produced, plus the source for comparison.
type Results struct {
	Source      *models.File
	Transcript  string
	ChapterBar  *ChapterBarResult
	ProgressBar *models.Blob
	ShowNotes   *models.ShowNotesResult
	Subtitle    *models.PolishResult
	// CreatedAt stamps output names so runs never overwrite each other.
	CreatedAt time.Time
}

// Outputs lists the results as downloadable files named <stem>_<feature>-<unix ms>.<ext>.
func (r *Results) Outputs() []models.Output {
	at := r.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	stem := "video"
	if r.Source != nil && r.Source.Stem() != "" {
		stem = r.Source.Stem()
	}
	name := func(suffix, ext string) string {
		return fmt.Sprintf("%s_%s-%d.%s", stem, suffix, at.UnixMilli(), ext)
	}

	var out []models.Output
	if r.ChapterBar != nil {
		out = append(out, blobOutput(models.FeatureChapterBar, name("chapter_bar", "mp4"), r.ChapterBar.Video, at))
	}
	if r.ProgressBar != nil {
		out = append(out, blobOutput(models.FeatureProgressBar, name("progress_bar", "mp4"), r.ProgressBar, at))
	}
	if r.ShowNotes != nil {
		out = append(out, models.Output{
			Feature:     models.FeatureShowNotes,
			Filename:    name("shownotes", "md"),
			ContentType: "text/markdown; charset=utf-8",
			Data:        []byte(formatter.ShowNotesMarkdown(r.ShowNotes, true)),
			CreatedAt:   at,
		})
	}
	if r.Subtitle != nil {
		out = append(out, models.Output{
			Feature:     models.FeatureSubtitle,
			Filename:    name("polished", "srt"),
			ContentType: "application/x-subrip",
			Data:        []byte(r.Subtitle.SRTContent),
			CreatedAt:   at,
		})
	}
	return out
}

func blobOutput(f models.Feature, name string, b *models.Blob, at time.Time) models.Output {
	return models.Output{Feature: f, Filename: name, ContentType: b.ContentType, Data: b.Data, CreatedAt: at}
}

// SessionRecorder keeps a local record of server-side sessions.
type SessionRecorder interface {
	Create(session *models.VideoSession) error
	MarkCleaned(id string) error
}

// VideoEngine runs the two-phase video flow: upload a file into a server session, then
// process it into the selected features.
//
// Calls are sequenced one after another. A failure in any feature aborts the run and
// discards what earlier features produced.
type VideoEngine struct {
	video     services.VideoService
	chapters  services.ChapterBarService
	showNotes services.ShowNotesService
	subtitle  services.SubtitleService

	sessions SessionRecorder
	prober   Prober
	logger   *log.Logger

	mu      sync.Mutex
	source  *models.File
	upload  *models.VideoUploadResult
	results *Results
}

// NewVideoEngine creates an engine backed by b.
func NewVideoEngine(b *services.Backend) *VideoEngine {
	return &VideoEngine{
		video:     b.Video,
		chapters:  b.ChapterBar,
		showNotes: b.ShowNotes,
		subtitle:  b.Subtitle,
		logger:    log.New(io.Discard),
	}
}

// WithSessions records uploads and cleanups in r.
func (e *VideoEngine) WithSessions(r SessionRecorder) *VideoEngine {
	e.sessions = r
	return e
}

// WithProber checks local files' durations before uploading them.
func (e *VideoEngine) WithProber(p Prober) *VideoEngine {
	e.prober = p
	return e
}

func (e *VideoEngine) WithLogger(l *log.Logger) *VideoEngine {
	if l != nil {
		e.logger = l
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *VideoEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Session returns the current upload, or nil.
func (e *VideoEngine) Session() *models.VideoUploadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upload
}

// Results returns the last successful run's results, or nil.
func (e *VideoEngine) Results() *Results {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}

// Upload validates file locally and uploads it into a new server session.
//
// Extension and size are checked before any network call. When a prober is set and the
// file is on disk, its duration is checked too. A server-reported duration over
// [shared.MaxVideoDuration] cleans the new session up and fails with [shared.ErrDurationExceeded].
// Any previous session is cleaned up first.
func (e *VideoEngine) Upload(ctx context.Context, file *models.File, progress chan<- ProgressUpdate) (*models.VideoUploadResult, error) {
	if err := shared.ValidateVideoFile(file.Name(), file.Size()); err != nil {
		return nil, err
	}

	if e.prober != nil && file.Path() != "" {
		d, err := e.prober.Duration(ctx, file.Path())
		switch {
		case err != nil:
			e.logger.Debug("skipping local duration check", "file", file.Name(), "error", err)
		default:
			if err := shared.ValidateVideoDuration(d); err != nil {
				return nil, err
			}
		}
	}

	if err := e.Reset(ctx); err != nil {
		e.logger.Warn("failed to clean up previous session", "error", err)
	}

	e.sendProgress(progress, uploadUpdate(file.Name()))
	res, err := e.video.Upload(ctx, file)
	if err != nil {
		return nil, err
	}

	if err := shared.ValidateVideoDuration(res.Duration); err != nil {
		if cerr := e.video.Cleanup(ctx, res.SessionID); cerr != nil {
			e.logger.Warn("failed to clean up rejected session", "session", res.SessionID, "error", cerr)
		}
		return nil, err
	}

	if e.sessions != nil {
		if err := e.sessions.Create(models.NewVideoSession(file.Name(), *res)); err != nil {
			e.logger.Warn("failed to record session", "session", res.SessionID, "error", err)
		}
	}

	e.mu.Lock()
	e.source = file
	e.upload = res
	e.results = nil
	e.mu.Unlock()

	e.logger.Info("video uploaded", "session", res.SessionID, "duration", res.Duration)
	return res, nil
}

// Process produces every selected feature for the current session.
//
// With a transcript-based feature selected, speech recognition runs once first (10% to 40%).
// Features then run in a fixed order: chapter bar, progress bar, show notes, subtitle.
// Each adds an equal share of the remaining progress up to 90%; the run ends at 100%.
func (e *VideoEngine) Process(ctx context.Context, sel Selection, cfg ComposeConfig, progress chan<- ProgressUpdate) (*Results, error) {
	e.mu.Lock()
	upload, source := e.upload, e.source
	e.mu.Unlock()

	if upload == nil {
		return nil, fmt.Errorf("%w: upload a video first", shared.ErrSessionNotFound)
	}
	if sel.Count() == 0 {
		return nil, shared.ErrNoSelection
	}

	sessionID := upload.SessionID
	results := &Results{Source: source, CreatedAt: time.Now()}

	base := asrStart
	var transcript *models.File
	if sel.NeedsASR() {
		e.sendProgress(progress, asrStartUpdate())
		asr, err := e.video.ASR(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if asr.SRTContent == "" {
			return nil, ErrEmptyTranscript
		}
		results.Transcript = asr.SRTContent
		transcript = models.FileFromBytes(TranscriptName, []byte(asr.SRTContent))
		base = asrDone
		e.sendProgress(progress, asrDoneUpdate(asr.SubtitleCount))
	}

	step := (featuresEnd - base) / float64(sel.Count())
	done := 0
	percent := func() float64 { return base + step*float64(done) }

	features := []struct {
		on    bool
		phase Phase
		run   func() error
	}{
		{sel.ChapterBar, PhaseChapterBar, func() error {
			list, err := e.chapters.ExtractAI(ctx, transcript)
			if err != nil {
				return err
			}
			blob, err := e.video.Compose(ctx, sessionID, models.ComposeRequest{
				Feature:   models.FeatureChapterBar,
				Position:  cfg.Position,
				Chapters:  list.Chapters,
				Theme:     cfg.Theme,
				BarHeight: cfg.BarHeight,
			})
			if err != nil {
				return err
			}
			results.ChapterBar = &ChapterBarResult{Chapters: list.Chapters, Video: blob}
			return nil
		}},
		{sel.ProgressBar, PhaseProgressBar, func() error {
			blob, err := e.video.Compose(ctx, sessionID, models.ComposeRequest{
				Feature:        models.FeatureProgressBar,
				Position:       cfg.Position,
				PlayedColor:    cfg.PlayedColor,
				UnplayedColor:  cfg.UnplayedColor,
				ProgressHeight: cfg.ProgressHeight,
			})
			results.ProgressBar = blob
			return err
		}},
		{sel.ShowNotes, PhaseShowNotes, func() error {
			notes, err := e.showNotes.Generate(ctx, transcript)
			results.ShowNotes = notes
			return err
		}},
		{sel.Subtitle, PhaseSubtitle, func() error {
			polished, err := e.subtitle.Polish(ctx, transcript)
			results.Subtitle = polished
			return err
		}},
	}

	for _, f := range features {
		if !f.on {
			continue
		}
		e.sendProgress(progress, featureStartUpdate(f.phase, percent()))
		if err := f.run(); err != nil {
			e.logger.Error("processing aborted", "session", sessionID, "phase", f.phase, "error", err)
			return nil, fmt.Errorf("%s failed: %w", f.phase, err)
		}
		done++
		e.sendProgress(progress, featureDoneUpdate(f.phase, percent()))
	}

	e.sendProgress(progress, doneUpdate())

	e.mu.Lock()
	e.results = results
	e.mu.Unlock()
	return results, nil
}

// Reset cleans up the server session and forgets the upload and its results.
func (e *VideoEngine) Reset(ctx context.Context) error {
	e.mu.Lock()
	upload := e.upload
	e.source, e.upload, e.results = nil, nil, nil
	e.mu.Unlock()

	if upload == nil {
		return nil
	}

	if err := e.video.Cleanup(ctx, upload.SessionID); err != nil {
		return err
	}
	if e.sessions != nil {
		if err := e.sessions.MarkCleaned(upload.SessionID); err != nil {
			e.logger.Warn("failed to mark session cleaned", "session", upload.SessionID, "error", err)
		}
	}
	return nil
}
