package wizard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

const (
	DefaultProgressDuration = "60"
	DefaultProgressHeight   = 8
	MinProgressWidth        = 640
	MaxProgressWidth        = 3840
)

// ProgressHeights are the bar heights offered for a standalone progress bar.
var ProgressHeights = []int{4, 8, 12}

// ProgressBar collects the settings for a standalone progress bar video and renders it.
type ProgressBar struct {
	svc services.ProgressBarService

	mu       sync.Mutex
	duration string
	width    int
	height   int
	played   string
	unplayed string
	format   models.VideoFormat
	presets  []models.ProgressBarColor

	status  GenerateStatus
	err     error
	blob    *models.Blob
	preview preview
}

// NewProgressBar returns a progress bar wizard with default settings. previews may be nil.
func NewProgressBar(svc services.ProgressBarService, previews Previewer) *ProgressBar {
	return &ProgressBar{
		svc:      svc,
		duration: DefaultProgressDuration,
		width:    DefaultBarWidth,
		height:   DefaultProgressHeight,
		played:   DefaultPlayedBg,
		unplayed: DefaultUnplayedBg,
		format:   models.FormatMP4,
		status:   StatusIdle,
		preview:  preview{previewer: previews},
	}
}

// LoadColors fetches the preset palettes.
func (p *ProgressBar) LoadColors(ctx context.Context) ([]models.ProgressBarColor, error) {
	colors, err := p.svc.Colors(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.presets = colors
	p.mu.Unlock()
	return colors, nil
}

// SetDuration stores the raw duration input; it is checked by [ProgressBar.Config].
func (p *ProgressBar) SetDuration(input string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = input
}

func (p *ProgressBar) SetWidth(width int) error {
	if width < MinProgressWidth || width > MaxProgressWidth {
		return fmt.Errorf("%w: width %d outside %d-%d", shared.ErrInvalidInput, width, MinProgressWidth, MaxProgressWidth)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
	return nil
}

func (p *ProgressBar) SetHeight(height int) error {
	if !slices.Contains(ProgressHeights, height) {
		return fmt.Errorf("%w: height %d not one of %v", shared.ErrInvalidInput, height, ProgressHeights)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.height = height
	return nil
}

// SetColors sets custom played and unplayed colors.
func (p *ProgressBar) SetColors(played, unplayed string) error {
	if err := ValidateColor(played); err != nil {
		return err
	}
	if err := ValidateColor(unplayed); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = strings.ToUpper(played)
	p.unplayed = strings.ToUpper(unplayed)
	return nil
}

// SelectColor copies a loaded preset's colors.
func (p *ProgressBar) SelectColor(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.presets {
		if c.Name == name {
			p.played = c.Played
			p.unplayed = c.Unplayed
			return nil
		}
	}
	return fmt.Errorf("%w: unknown color preset %q", shared.ErrInvalidArgument, name)
}

func (p *ProgressBar) SetFormat(f models.VideoFormat) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.format = f
}

// Config validates the current settings and returns the request body.
//
// The duration must parse as seconds or m:ss, be positive, and not exceed [shared.MaxProgressBarDuration].
func (p *ProgressBar) Config() (models.ProgressBarConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configLocked()
}

func (p *ProgressBar) configLocked() (models.ProgressBarConfig, error) {
	d, ok := shared.ParseTime(p.duration)
	if !ok || d <= 0 {
		return models.ProgressBarConfig{}, fmt.Errorf("%w: %q", shared.ErrInvalidDuration, p.duration)
	}
	if d > shared.MaxProgressBarDuration {
		return models.ProgressBarConfig{}, fmt.Errorf("%w: %.0fs exceeds %.0fs", shared.ErrDurationExceeded, d, shared.MaxProgressBarDuration)
	}
	return models.ProgressBarConfig{
		Duration:      d,
		Width:         p.width,
		Height:        p.height,
		PlayedColor:   p.played,
		UnplayedColor: p.unplayed,
		Format:        p.format,
	}, nil
}

// Generate renders the bar. An invalid configuration fails before any call.
func (p *ProgressBar) Generate(ctx context.Context) (*models.Blob, error) {
	p.mu.Lock()
	cfg, err := p.configLocked()
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if p.status == StatusGenerating {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: generation already running", shared.ErrInvalidInput)
	}
	p.status = StatusGenerating
	p.err = nil
	p.mu.Unlock()

	blob, err := p.svc.Generate(ctx, cfg)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status = StatusError
		p.err = err
		return nil, err
	}
	p.status = StatusSuccess
	p.blob = blob
	p.preview.set(p.filenameLocked(), blob)
	return blob, nil
}

func (p *ProgressBar) Status() GenerateStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *ProgressBar) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *ProgressBar) PreviewPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preview.path
}

// Output returns the last render as progress_bar.<ext>.
func (p *ProgressBar) Output() (models.Output, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.blob == nil {
		return models.Output{}, false
	}
	return models.Output{
		Feature:     models.FeatureProgressBar,
		Filename:    p.filenameLocked(),
		ContentType: p.blob.ContentType,
		Data:        p.blob.Data,
		CreatedAt:   time.Now(),
	}, true
}

func (p *ProgressBar) filenameLocked() string {
	return "progress_bar." + string(p.format)
}

// Reset drops the last render and releases its preview. Settings are kept.
func (p *ProgressBar) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusIdle
	p.err = nil
	p.blob = nil
	p.preview.release()
}

// Close releases the preview.
func (p *ProgressBar) Close() { p.Reset() }
