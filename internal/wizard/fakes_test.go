package wizard

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/bbruceyuan/vmarker/internal/models"
)

var errBackend = errors.New("backend down")

type fakeChapterBar struct {
	mu sync.Mutex

	themes   []models.Theme
	parsed   *models.ParseResult
	auto     *models.ChapterList
	ai       *models.ChapterList
	aiErr    error
	autoErr  error
	genErr   error
	validate func([]models.Chapter) *models.ChapterValidationResult

	validateCalls [][]models.Chapter
	autoCalls     []int
	aiCalls       int
	genCalls      []models.ChapterBarRequest
}

func (f *fakeChapterBar) Themes(context.Context) ([]models.Theme, error) {
	return f.themes, nil
}

func (f *fakeChapterBar) Parse(context.Context, *models.File) (*models.ParseResult, error) {
	return f.parsed, nil
}

func (f *fakeChapterBar) ExtractAuto(_ context.Context, _ *models.File, interval int) (*models.ChapterList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoCalls = append(f.autoCalls, interval)
	if f.autoErr != nil {
		return nil, f.autoErr
	}
	return f.auto, nil
}

func (f *fakeChapterBar) ExtractAI(context.Context, *models.File) (*models.ChapterList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aiCalls++
	if f.aiErr != nil {
		return nil, f.aiErr
	}
	return f.ai, nil
}

func (f *fakeChapterBar) Validate(_ context.Context, chapters []models.Chapter, _ float64) (*models.ChapterValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls = append(f.validateCalls, slices.Clone(chapters))
	if f.validate != nil {
		return f.validate(chapters), nil
	}
	return &models.ChapterValidationResult{Valid: true}, nil
}

func (f *fakeChapterBar) Generate(_ context.Context, req models.ChapterBarRequest) (*models.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls = append(f.genCalls, req)
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &models.Blob{Data: []byte("video"), ContentType: "video/mp4"}, nil
}

func (f *fakeChapterBar) validations() [][]models.Chapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.validateCalls)
}

type fakePreviewer struct {
	mu      sync.Mutex
	next    int
	live    map[string]string
	revoked []string
}

func newFakePreviewer() *fakePreviewer {
	return &fakePreviewer{live: map[string]string{}}
}

func (p *fakePreviewer) Register(name string, _ models.Blob) (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	id := string(rune('a' + p.next - 1))
	p.live[id] = name
	return id, "/preview/" + id
}

func (p *fakePreviewer) Revoke(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, id)
	p.revoked = append(p.revoked, id)
}

func (p *fakePreviewer) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

func sampleChapters() []models.Chapter {
	return []models.Chapter{
		{Title: "Intro", StartTime: 0, EndTime: 60},
		{Title: "Body", StartTime: 60, EndTime: 120},
	}
}

func srtFile() *models.File {
	return models.FileFromBytes("talk.srt", []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n"))
}
