package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	tu "github.com/bbruceyuan/vmarker/internal/testing"
)

func waitValidated(t *testing.T, e *ChapterEditor) EditorSnapshot {
	t.Helper()
	tu.Eventually(t, 2*time.Second, func() bool { return !e.Snapshot().Validating }, "validation to finish")
	return e.Snapshot()
}

func TestChapterEditorDebounce(t *testing.T) {
	svc := &fakeChapterBar{}
	e := NewChapterEditor(t.Context(), svc, sampleChapters(), 120)
	defer e.Close()

	for i, title := range []string{"a", "b", "c", "d", "final"} {
		if err := e.SetTitle(0, title); err != nil {
			t.Fatalf("edit %d failed: %v", i, err)
		}
	}

	if !e.Snapshot().Validating {
		t.Error("expected editor to report validating right after an edit")
	}
	if e.CanProceed() {
		t.Error("must not proceed while validation is pending")
	}

	snap := waitValidated(t, e)
	time.Sleep(2 * DefaultDebounce)

	calls := svc.validations()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 validation call, got %d", len(calls))
	}
	if calls[0][0].Title != "final" {
		t.Errorf("expected the final state to be validated, got %q", calls[0][0].Title)
	}
	if !snap.CanProceed() {
		t.Error("expected to proceed after a clean validation")
	}
}

func TestChapterEditorValidation(t *testing.T) {
	idx := 1

	tests := []struct {
		name        string
		result      *models.ChapterValidationResult
		wantProceed bool
		wantIssues  int
	}{
		{
			name:        "valid",
			result:      &models.ChapterValidationResult{Valid: true},
			wantProceed: true,
		},
		{
			name: "advisory issue",
			result: &models.ChapterValidationResult{Valid: true, Issues: []models.ValidationIssue{
				{Code: "short_chapter", Message: "short", ChapterIndex: &idx},
			}},
			wantProceed: true,
			wantIssues:  1,
		},
		{
			name: "blocking issue",
			result: &models.ChapterValidationResult{Valid: true, Issues: []models.ValidationIssue{
				{Code: "overlap", Message: "overlap", Blocking: true, ChapterIndex: &idx},
			}},
			wantIssues: 1,
		},
		{
			name:   "invalid",
			result: &models.ChapterValidationResult{Valid: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChapterBar{validate: func([]models.Chapter) *models.ChapterValidationResult { return tt.result }}
			e := NewChapterEditor(t.Context(), svc, sampleChapters(), 120, WithDebounce(10*time.Millisecond))
			defer e.Close()

			snap := waitValidated(t, e)
			if snap.CanProceed() != tt.wantProceed {
				t.Errorf("CanProceed = %v, want %v", snap.CanProceed(), tt.wantProceed)
			}
			if len(snap.Issues) != tt.wantIssues {
				t.Errorf("expected %d issues, got %d", tt.wantIssues, len(snap.Issues))
			}
			if tt.wantIssues > 0 && len(snap.IssuesFor(1)) != 1 {
				t.Errorf("expected issue on chapter 1, got %v", snap.IssuesFor(1))
			}
		})
	}
}

func TestChapterEditorServerCorrection(t *testing.T) {
	fixed := []models.Chapter{
		{Title: "Intro", StartTime: 0, EndTime: 60},
		{Title: "Body", StartTime: 60, EndTime: 100},
	}
	svc := &fakeChapterBar{validate: func([]models.Chapter) *models.ChapterValidationResult {
		return &models.ChapterValidationResult{Valid: true, Chapters: fixed}
	}}

	var mu sync.Mutex
	var updates int
	e := NewChapterEditor(t.Context(), svc, sampleChapters(), 100,
		WithDebounce(10*time.Millisecond),
		WithUpdates(func(EditorSnapshot) {
			mu.Lock()
			updates++
			mu.Unlock()
		}),
	)
	defer e.Close()

	snap := waitValidated(t, e)
	if snap.Chapters[1].EndTime != 100 {
		t.Errorf("expected corrected end 100, got %v", snap.Chapters[1].EndTime)
	}

	mu.Lock()
	defer mu.Unlock()
	if updates == 0 {
		t.Error("expected an update notification")
	}
}

func TestChapterEditorValidationError(t *testing.T) {
	svc := &erroringValidator{fakeChapterBar: &fakeChapterBar{}}
	e := NewChapterEditor(t.Context(), svc, sampleChapters(), 120, WithDebounce(10*time.Millisecond))
	defer e.Close()

	if snap := waitValidated(t, e); snap.CanProceed() {
		t.Error("a failed validation must block progress")
	}
}

type erroringValidator struct{ *fakeChapterBar }

func (erroringValidator) Validate(_ context.Context, _ []models.Chapter, _ float64) (*models.ChapterValidationResult, error) {
	return nil, errBackend
}

func TestChapterEditorEdits(t *testing.T) {
	svc := &fakeChapterBar{}
	e := NewChapterEditor(t.Context(), svc, sampleChapters(), 150, WithDebounce(10*time.Millisecond))
	defer e.Close()

	t.Run("add", func(t *testing.T) {
		e.Add()
		got := e.Chapters()
		if len(got) != 3 {
			t.Fatalf("expected 3 chapters, got %d", len(got))
		}
		want := models.Chapter{Title: "Chapter 3", StartTime: 120, EndTime: 150}
		if got[2] != want {
			t.Errorf("added %+v, want %+v", got[2], want)
		}
	})

	t.Run("set time input", func(t *testing.T) {
		if err := e.SetTimeInput(2, EndTime, "2:20"); err != nil {
			t.Fatalf("SetTimeInput failed: %v", err)
		}
		if got := e.Chapters()[2].EndTime; got != 140 {
			t.Errorf("expected 140, got %v", got)
		}
		if err := e.SetTimeInput(2, EndTime, "soon"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := e.SetTime(2, StartTime, -1); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for negative time, got %v", err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		if err := e.SetTitle(9, "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("delete keeps one", func(t *testing.T) {
		for e.CanDelete() {
			if err := e.Delete(0); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
		}
		if err := e.Delete(0); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected refusal on last chapter, got %v", err)
		}
		if n := len(e.Chapters()); n != 1 {
			t.Errorf("expected 1 chapter left, got %d", n)
		}
	})
}

func TestChapterEditorEmpty(t *testing.T) {
	svc := &fakeChapterBar{}
	e := NewChapterEditor(t.Context(), svc, nil, 120, WithDebounce(10*time.Millisecond))
	defer e.Close()

	if snap := waitValidated(t, e); snap.Valid {
		t.Error("an empty list is never valid")
	}
	if n := len(svc.validations()); n != 0 {
		t.Errorf("expected no validation call for an empty list, got %d", n)
	}
}

type blockingValidator struct {
	*fakeChapterBar
	started chan struct{}
	release chan struct{}
}

func (b blockingValidator) Validate(ctx context.Context, chapters []models.Chapter, duration float64) (*models.ChapterValidationResult, error) {
	b.started <- struct{}{}
	<-b.release
	return b.fakeChapterBar.Validate(ctx, chapters, duration)
}

func TestChapterEditorCloseDuringValidation(t *testing.T) {
	svc := blockingValidator{
		fakeChapterBar: &fakeChapterBar{},
		started:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}

	var (
		mu      sync.Mutex
		updates int
	)
	e := NewChapterEditor(t.Context(), svc, sampleChapters(), 120,
		WithDebounce(10*time.Millisecond),
		WithUpdates(func(EditorSnapshot) {
			mu.Lock()
			updates++
			mu.Unlock()
		}),
	)

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("validation never started")
	}
	e.Close()
	close(svc.release)

	tu.Eventually(t, 2*time.Second, func() bool { return len(svc.validations()) == 1 }, "validation to return")
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if updates != 0 {
		t.Errorf("expected no updates after close, got %d", updates)
	}
	if !e.Snapshot().Validating {
		t.Error("expected the discarded result to leave the editor unvalidated")
	}
}
