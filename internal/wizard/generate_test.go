package wizard

import (
	"strings"
	"testing"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
)

func TestGenerator(t *testing.T) {
	svc := &fakeChapterBar{}
	previews := newFakePreviewer()
	g := NewGenerator(svc, sampleChapters(), 120, DefaultThemeConfig(), previews)
	g.now = func() time.Time { return time.UnixMilli(1700000000000) }

	if _, ok := g.Output(); ok {
		t.Fatal("no output before a render")
	}

	g.SetFormat(models.FormatMOV)
	if _, err := g.Generate(t.Context()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if g.Status() != StatusSuccess {
		t.Errorf("expected success, got %s", g.Status())
	}
	if req := svc.genCalls[0]; req.Format != models.FormatMOV || req.Theme != DefaultTheme || req.Width != DefaultBarWidth {
		t.Errorf("unexpected request %+v", req)
	}

	out, ok := g.Output()
	if !ok || out.Filename != "chapter-bar-1700000000000.mov" || out.Feature != models.FeatureChapterBar {
		t.Errorf("unexpected output %+v", out)
	}
	first := g.PreviewPath()
	if !strings.HasPrefix(first, "/preview/") {
		t.Errorf("expected a preview path, got %q", first)
	}

	t.Run("regenerate releases the previous preview", func(t *testing.T) {
		if _, err := g.Generate(t.Context()); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if g.PreviewPath() == first {
			t.Error("expected a new preview path")
		}
		if previews.Live() != 1 {
			t.Errorf("expected exactly one live preview, got %d", previews.Live())
		}
	})

	t.Run("failure", func(t *testing.T) {
		svc.genErr = errBackend
		if _, err := g.Generate(t.Context()); err == nil {
			t.Fatal("expected error")
		}
		if g.Status() != StatusError || g.Err() == nil {
			t.Errorf("expected error status, got %s", g.Status())
		}
		if previews.Live() != 0 {
			t.Errorf("failed render should leave no preview, got %d", previews.Live())
		}
	})

	t.Run("close", func(t *testing.T) {
		svc.genErr = nil
		if _, err := g.Generate(t.Context()); err != nil {
			t.Fatal(err)
		}
		g.Close()
		if previews.Live() != 0 {
			t.Errorf("Close should revoke previews, got %d live", previews.Live())
		}
	})
}
