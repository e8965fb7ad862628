package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/storage"
	tu "github.com/bbruceyuan/vmarker/internal/testing"
)

var errBackend = errors.New("backend down")

type mockVideo struct {
	mu sync.Mutex

	upload     *models.VideoUploadResult
	uploadErr  error
	srt        string
	asrErr     error
	composeErr map[models.Feature]error

	calls    []string
	composed []models.ComposeRequest
	cleaned  []string
}

func (m *mockVideo) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockVideo) Upload(context.Context, *models.File) (*models.VideoUploadResult, error) {
	m.record("upload")
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return m.upload, nil
}

func (m *mockVideo) ASR(_ context.Context, id string) (*models.ASRResult, error) {
	m.record("asr")
	if m.asrErr != nil {
		return nil, m.asrErr
	}
	return &models.ASRResult{SessionID: id, SubtitleCount: 2, SRTContent: m.srt}, nil
}

func (m *mockVideo) SRT(context.Context, string) (*models.SRTResult, error) {
	return &models.SRTResult{SRTContent: m.srt}, nil
}

func (m *mockVideo) Compose(_ context.Context, _ string, req models.ComposeRequest) (*models.Blob, error) {
	m.record("compose:" + string(req.Feature))
	m.mu.Lock()
	m.composed = append(m.composed, req)
	m.mu.Unlock()
	if err := m.composeErr[req.Feature]; err != nil {
		return nil, err
	}
	return &models.Blob{Data: []byte(req.Feature), ContentType: "video/mp4"}, nil
}

func (m *mockVideo) Cleanup(_ context.Context, id string) error {
	m.record("cleanup")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaned = append(m.cleaned, id)
	return nil
}

type mockChapters struct {
	services.ChapterBarService
	files []string
}

func (m *mockChapters) ExtractAI(_ context.Context, f *models.File) (*models.ChapterList, error) {
	m.files = append(m.files, f.Name())
	return &models.ChapterList{Chapters: []models.Chapter{{Title: "All", StartTime: 0, EndTime: 30}}, Duration: 30}, nil
}

type mockShowNotes struct{ err error }

func (m mockShowNotes) Generate(context.Context, *models.File) (*models.ShowNotesResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ShowNotesResult{Summary: "s", Outline: []models.OutlineItem{{Timestamp: 0, Title: "t"}}}, nil
}

type mockSubtitle struct{}

func (mockSubtitle) Polish(context.Context, *models.File) (*models.PolishResult, error) {
	return &models.PolishResult{SRTContent: "polished"}, nil
}

type mockRecorder struct {
	created []string
	cleaned []string
}

func (r *mockRecorder) Create(s *models.VideoSession) error {
	r.created = append(r.created, s.ID())
	return nil
}

func (r *mockRecorder) MarkCleaned(id string) error {
	r.cleaned = append(r.cleaned, id)
	return nil
}

type mockProber struct {
	duration float64
	err      error
	paths    []string
}

func (p *mockProber) Duration(_ context.Context, path string) (float64, error) {
	p.paths = append(p.paths, path)
	return p.duration, p.err
}

func newTestEngine(video *mockVideo, showNotesErr error) (*VideoEngine, *mockChapters) {
	chapters := &mockChapters{}
	b := &services.Backend{
		Video:      video,
		ChapterBar: chapters,
		ShowNotes:  mockShowNotes{err: showNotesErr},
		Subtitle:   mockSubtitle{},
	}
	return NewVideoEngine(b), chapters
}

func okVideo() *mockVideo {
	return &mockVideo{
		upload: &models.VideoUploadResult{SessionID: "sess-1", Duration: 120, Width: 1920, Height: 1080},
		srt:    "1\n00:00:00,000 --> 00:00:02,000\nhello\n",
	}
}

func mp4() *models.File {
	return models.FileFromBytes("clip.mp4", []byte("video"))
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	close(ch)
	var out []ProgressUpdate
	for u := range ch {
		out = append(out, u)
	}
	return out
}

func TestVideoEngineUpload(t *testing.T) {
	t.Run("rejects unsupported files before any call", func(t *testing.T) {
		video := okVideo()
		e, _ := newTestEngine(video, nil)

		_, err := e.Upload(t.Context(), models.FileFromBytes("notes.txt", []byte("x")), nil)
		if !errors.Is(err, shared.ErrInvalidFile) {
			t.Errorf("expected ErrInvalidFile, got %v", err)
		}
		if len(video.calls) != 0 {
			t.Errorf("expected no calls, got %v", video.calls)
		}
	})

	t.Run("rejects overlong sessions and cleans up", func(t *testing.T) {
		video := okVideo()
		video.upload.Duration = 301
		rec := &mockRecorder{}
		e, _ := newTestEngine(video, nil)
		e.WithSessions(rec)

		_, err := e.Upload(t.Context(), mp4(), nil)
		if !errors.Is(err, shared.ErrDurationExceeded) {
			t.Fatalf("expected ErrDurationExceeded, got %v", err)
		}
		if len(video.cleaned) != 1 || video.cleaned[0] != "sess-1" {
			t.Errorf("expected cleanup of sess-1, got %v", video.cleaned)
		}
		if e.Session() != nil || len(rec.created) != 0 {
			t.Error("rejected session must not be kept or recorded")
		}
	})

	t.Run("local probe rejects before upload", func(t *testing.T) {
		path := t.TempDir() + "/long.mp4"
		tu.MustWriteFile(t, path, "video")
		file, err := models.FileFromPath(path)
		if err != nil {
			t.Fatal(err)
		}

		video := okVideo()
		prober := &mockProber{duration: 900}
		e, _ := newTestEngine(video, nil)
		e.WithProber(prober)

		if _, err := e.Upload(t.Context(), file, nil); !errors.Is(err, shared.ErrDurationExceeded) {
			t.Errorf("expected ErrDurationExceeded, got %v", err)
		}
		if len(video.calls) != 0 {
			t.Errorf("expected no upload call, got %v", video.calls)
		}

		prober.err = errors.New("ffprobe missing")
		if _, err := e.Upload(t.Context(), file, nil); err != nil {
			t.Errorf("a failed probe should not block the upload: %v", err)
		}
	})

	t.Run("records session and replaces previous", func(t *testing.T) {
		video := okVideo()
		rec := &mockRecorder{}
		e, _ := newTestEngine(video, nil)
		e.WithSessions(rec)

		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}
		if len(rec.created) != 2 || len(rec.cleaned) != 1 {
			t.Errorf("expected 2 creates and 1 cleanup, got %v / %v", rec.created, rec.cleaned)
		}
	})
}

func TestVideoEngineProcess(t *testing.T) {
	t.Run("asr once then two compositions", func(t *testing.T) {
		video := okVideo()
		e, chapters := newTestEngine(video, nil)
		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}
		video.calls = nil

		progress := make(chan ProgressUpdate, 64)
		sel := Selection{ChapterBar: true, ProgressBar: true}
		res, err := e.Process(t.Context(), sel, DefaultComposeConfig(), progress)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		want := []string{"asr", "compose:chapter-bar", "compose:progress-bar"}
		if strings.Join(video.calls, ",") != strings.Join(want, ",") {
			t.Errorf("calls = %v, want %v", video.calls, want)
		}
		if len(chapters.files) != 1 || chapters.files[0] != TranscriptName {
			t.Errorf("expected AI extraction on %s, got %v", TranscriptName, chapters.files)
		}

		updates := drain(progress)
		last := -1.0
		for _, u := range updates {
			if u.Percent < last {
				t.Errorf("progress went backwards: %v after %v", u.Percent, last)
			}
			last = u.Percent
		}
		if last != 100 {
			t.Errorf("expected progress to end at 100, got %v", last)
		}
		if updates[0].Percent != 10 || updates[1].Percent != 40 {
			t.Errorf("expected ASR checkpoints 10 and 40, got %v and %v", updates[0].Percent, updates[1].Percent)
		}

		if res.ChapterBar == nil || res.ProgressBar == nil || res.ShowNotes != nil {
			t.Errorf("unexpected results %+v", res)
		}
		if len(res.Outputs()) != 2 || e.Results() != res {
			t.Error("expected two outputs stored on the engine")
		}
	})

	t.Run("progress bar alone skips asr", func(t *testing.T) {
		video := okVideo()
		e, _ := newTestEngine(video, nil)
		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}
		video.calls = nil

		progress := make(chan ProgressUpdate, 16)
		if _, err := e.Process(t.Context(), Selection{ProgressBar: true}, DefaultComposeConfig(), progress); err != nil {
			t.Fatal(err)
		}
		if len(video.calls) != 1 || video.calls[0] != "compose:progress-bar" {
			t.Errorf("unexpected calls %v", video.calls)
		}
		updates := drain(progress)
		if updates[0].Percent != 10 {
			t.Errorf("expected to start at 10 without ASR, got %v", updates[0].Percent)
		}
		if req := video.composed[0]; req.ProgressHeight != 8 || req.PlayedColor != "#3B82F6" {
			t.Errorf("unexpected compose request %+v", req)
		}
	})

	t.Run("failure aborts the batch", func(t *testing.T) {
		video := okVideo()
		e, _ := newTestEngine(video, errBackend)
		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}

		sel := Selection{ProgressBar: true, ShowNotes: true, Subtitle: true}
		_, err := e.Process(t.Context(), sel, DefaultComposeConfig(), nil)
		if !errors.Is(err, errBackend) {
			t.Fatalf("expected backend error, got %v", err)
		}
		if e.Results() != nil {
			t.Error("partial results must be discarded")
		}
	})

	t.Run("empty transcript", func(t *testing.T) {
		video := okVideo()
		video.srt = ""
		e, _ := newTestEngine(video, nil)
		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Process(t.Context(), Selection{Subtitle: true}, DefaultComposeConfig(), nil); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("expected ErrEmptyTranscript, got %v", err)
		}
	})

	t.Run("preconditions", func(t *testing.T) {
		e, _ := newTestEngine(okVideo(), nil)
		if _, err := e.Process(t.Context(), Selection{ProgressBar: true}, DefaultComposeConfig(), nil); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
		if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Process(t.Context(), Selection{}, DefaultComposeConfig(), nil); !errors.Is(err, shared.ErrNoSelection) {
			t.Errorf("expected ErrNoSelection, got %v", err)
		}
	})
}

func TestVideoEngineReset(t *testing.T) {
	video := okVideo()
	rec := &mockRecorder{}
	e, _ := newTestEngine(video, nil)
	e.WithSessions(rec)

	if err := e.Reset(t.Context()); err != nil {
		t.Fatalf("Reset without a session should be a no-op: %v", err)
	}
	if _, err := e.Upload(t.Context(), mp4(), nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Reset(t.Context()); err != nil {
		t.Fatal(err)
	}
	if e.Session() != nil || len(video.cleaned) != 1 || len(rec.cleaned) != 1 {
		t.Errorf("expected session cleaned, got server=%v local=%v", video.cleaned, rec.cleaned)
	}
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection([]string{"chapter-bar", "shownotes"})
	if err != nil {
		t.Fatal(err)
	}
	if !sel.ChapterBar || !sel.ShowNotes || sel.ProgressBar || sel.Count() != 2 || !sel.NeedsASR() {
		t.Errorf("unexpected selection %+v", sel)
	}
	if (Selection{ProgressBar: true}).NeedsASR() {
		t.Error("progress bar alone needs no transcript")
	}
	if _, err := ParseSelection([]string{"youtube"}); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for youtube, got %v", err)
	}
	if _, err := ParseSelection([]string{"karaoke"}); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    float64
		wantErr bool
	}{
		{name: "valid", out: `{"format":{"duration":"12.500000"}}`, want: 12.5},
		{name: "missing", out: `{"format":{}}`, wantErr: true},
		{name: "garbage", out: `not json`, wantErr: true},
		{name: "bad number", out: `{"format":{"duration":"N/A"}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeDuration(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseASR.String() != "asr" || PhaseDone.String() != "done" || Phase(99).String() != "" {
		t.Error("unexpected phase names")
	}
}

func TestResultsOutputs(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	notes := func(summary string) *models.ShowNotesResult {
		return &models.ShowNotesResult{Summary: summary, Outline: []models.OutlineItem{{Timestamp: 0, Title: "Intro"}}}
	}

	t.Run("names carry source and time", func(t *testing.T) {
		r := &Results{
			Source:      models.FileFromBytes("talk.mp4", []byte("v")),
			ChapterBar:  &ChapterBarResult{Video: &models.Blob{Data: []byte("cb"), ContentType: "video/mp4"}},
			ProgressBar: &models.Blob{Data: []byte("pb"), ContentType: "video/mp4"},
			ShowNotes:   notes("s"),
			Subtitle:    &models.PolishResult{SRTContent: "1\n"},
			CreatedAt:   at,
		}

		var got []string
		for _, out := range r.Outputs() {
			got = append(got, out.Filename)
			if !out.CreatedAt.Equal(at) {
				t.Errorf("%s: expected CreatedAt %v, got %v", out.Filename, at, out.CreatedAt)
			}
		}
		want := []string{
			"talk_chapter_bar-1700000000123.mp4",
			"talk_progress_bar-1700000000123.mp4",
			"talk_shownotes-1700000000123.md",
			"talk_polished-1700000000123.srt",
		}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("archived runs keep their own files", func(t *testing.T) {
		archive := storage.NewArchive(storage.NewLocalSink(t.TempDir()), nil)
		runs := []*Results{
			{Source: models.FileFromBytes("first.mp4", nil), ShowNotes: notes("first video"), CreatedAt: at},
			{Source: models.FileFromBytes("second.mp4", nil), ShowNotes: notes("second video"), CreatedAt: at},
			{Source: models.FileFromBytes("second.mp4", nil), ShowNotes: notes("second again"), CreatedAt: at.Add(time.Second)},
		}

		seen := map[string]string{}
		for _, r := range runs {
			a, err := archive.StoreOutput(t.Context(), r.Source.Name(), r.Outputs()[0])
			if err != nil {
				t.Fatalf("StoreOutput() error = %v", err)
			}
			if prev, ok := seen[a.Location()]; ok {
				t.Fatalf("%s overwrote %s", r.ShowNotes.Summary, prev)
			}
			seen[a.Location()] = r.ShowNotes.Summary
		}

		for loc, summary := range seen {
			if got := tu.MustReadFile(t, loc); !strings.Contains(got, summary) {
				t.Errorf("expected %q at %s, got %q", summary, loc, got)
			}
		}
	})
}
