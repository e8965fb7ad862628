package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
)

// GenerateStatus is the state of a render.
type GenerateStatus string

const (
	StatusIdle       GenerateStatus = "idle"
	StatusGenerating GenerateStatus = "generating"
	StatusSuccess    GenerateStatus = "success"
	StatusError      GenerateStatus = "error"
)

// Previewer hands out temporary URLs for blobs. Every registration must be revoked.
type Previewer interface {
	Register(name string, blob models.Blob) (id, path string)
	Revoke(id string)
}

// preview owns at most one registered blob at a time.
type preview struct {
	previewer Previewer
	id        string
	path      string
}

func (p *preview) set(name string, blob *models.Blob) {
	p.release()
	if p.previewer == nil || blob == nil {
		return
	}
	p.id, p.path = p.previewer.Register(name, *blob)
}

func (p *preview) release() {
	if p.previewer != nil && p.id != "" {
		p.previewer.Revoke(p.id)
	}
	p.id, p.path = "", ""
}

// Generator renders a chapter bar from a finished wizard state.
type Generator struct {
	svc services.ChapterBarService
	req models.ChapterBarRequest
	now func() time.Time

	mu      sync.Mutex
	status  GenerateStatus
	err     error
	blob    *models.Blob
	preview preview
}

// NewGenerator prepares a render of chapters with cfg. previews may be nil.
func NewGenerator(svc services.ChapterBarService, chapters []models.Chapter, duration float64, cfg ThemeConfig, previews Previewer) *Generator {
	return &Generator{
		svc: svc,
		req: models.ChapterBarRequest{
			Chapters:     chapters,
			Duration:     duration,
			Width:        cfg.Width,
			Height:       cfg.Height,
			Theme:        cfg.Theme,
			Format:       models.FormatMP4,
			CustomColors: cfg.CustomColors,
		},
		now:     time.Now,
		status:  StatusIdle,
		preview: preview{previewer: previews},
	}
}

// Request returns the body that will be sent.
func (g *Generator) Request() models.ChapterBarRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.req
}

// SetFormat picks mp4 or mov for the next render.
func (g *Generator) SetFormat(f models.VideoFormat) {
	g.mu.Lock()
	g.req.Format = f
	g.mu.Unlock()
}

func (g *Generator) Status() GenerateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *Generator) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// PreviewPath is the local server path of the current render, if any.
func (g *Generator) PreviewPath() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.preview.path
}

// Generate renders the video, replacing any previous result.
func (g *Generator) Generate(ctx context.Context) (*models.Blob, error) {
	g.mu.Lock()
	if g.status == StatusGenerating {
		g.mu.Unlock()
		return nil, fmt.Errorf("generation already in progress")
	}
	g.status = StatusGenerating
	g.err = nil
	g.blob = nil
	g.preview.release()
	req := g.req
	g.mu.Unlock()

	blob, err := g.svc.Generate(ctx, req)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.status = StatusError
		g.err = err
		return nil, err
	}
	g.status = StatusSuccess
	g.blob = blob
	g.preview.set(g.filenameLocked(), blob)
	return blob, nil
}

// Output returns the last render as chapter-bar-<unix ms>.<ext>, or false before a success.
func (g *Generator) Output() (models.Output, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.blob == nil {
		return models.Output{}, false
	}
	return models.Output{
		Feature:     models.FeatureChapterBar,
		Filename:    g.filenameLocked(),
		ContentType: g.blob.ContentType,
		Data:        g.blob.Data,
		CreatedAt:   g.now(),
	}, true
}

func (g *Generator) filenameLocked() string {
	return fmt.Sprintf("chapter-bar-%d.%s", g.now().UnixMilli(), g.req.Format)
}

// Regenerate discards the last result so the format can be changed and rendered again.
func (g *Generator) Regenerate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = StatusIdle
	g.err = nil
	g.blob = nil
	g.preview.release()
}

// Close releases the preview.
func (g *Generator) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.preview.release()
}
