package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

const (
	DefaultTheme      = "tech-blue"
	DefaultBarWidth   = 1920
	DefaultBarHeight  = 60
	DefaultPlayedBg   = "#2563EB"
	DefaultUnplayedBg = "#64748B"
)

// SizePreset is a named overlay size.
type SizePreset struct {
	Label  string
	Width  int
	Height int
}

// SizePresets are the offered chapter bar sizes.
var SizePresets = []SizePreset{
	{Label: "1080p", Width: 1920, Height: 60},
	{Label: "720p", Width: 1280, Height: 50},
	{Label: "4K", Width: 3840, Height: 80},
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateColor accepts #RRGGBB.
func ValidateColor(c string) error {
	if !hexColor.MatchString(c) {
		return fmt.Errorf("%w: color %q must look like #RRGGBB", shared.ErrInvalidInput, c)
	}
	return nil
}

// ThemeConfig is the style of a chapter bar.
type ThemeConfig struct {
	Theme        string
	CustomColors *models.CustomColors
	Width        int
	Height       int
}

// DefaultThemeConfig is tech-blue at 1920x60.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{Theme: DefaultTheme, Width: DefaultBarWidth, Height: DefaultBarHeight}
}

// ThemeSelector backs the config step.
//
// Custom colors are kept while a named theme is selected so switching back restores them.
type ThemeSelector struct {
	themes []models.Theme
	cfg    ThemeConfig
	custom models.CustomColors
}

// NewThemeSelector starts from cfg, in custom mode if cfg has custom colors.
func NewThemeSelector(cfg ThemeConfig) *ThemeSelector {
	s := &ThemeSelector{cfg: cfg, custom: models.CustomColors{PlayedBg: DefaultPlayedBg, UnplayedBg: DefaultUnplayedBg}}
	if cfg.CustomColors != nil {
		s.custom = *cfg.CustomColors
	}
	return s
}

// Load fetches the server's themes.
func (s *ThemeSelector) Load(ctx context.Context, svc services.ChapterBarService) error {
	themes, err := svc.Themes(ctx)
	if err != nil {
		return err
	}
	s.themes = themes
	return nil
}

func (s *ThemeSelector) Themes() []models.Theme { return s.themes }
func (s *ThemeSelector) Config() ThemeConfig    { return s.cfg }
func (s *ThemeSelector) IsCustom() bool         { return s.cfg.CustomColors != nil }

// SelectTheme picks a named theme and leaves custom mode.
func (s *ThemeSelector) SelectTheme(name string) error {
	if len(s.themes) > 0 && !s.hasTheme(name) {
		return fmt.Errorf("%w: unknown theme %q", shared.ErrInvalidArgument, name)
	}
	s.cfg.Theme = name
	s.cfg.CustomColors = nil
	return nil
}

func (s *ThemeSelector) hasTheme(name string) bool {
	for _, t := range s.themes {
		if t.Name == name {
			return true
		}
	}
	return false
}

// UseCustom switches to custom colors.
func (s *ThemeSelector) UseCustom() {
	c := s.custom
	s.cfg.CustomColors = &c
}

// SetCustomColors updates the custom colors; they take effect immediately in custom mode.
func (s *ThemeSelector) SetCustomColors(played, unplayed string) error {
	for _, c := range []string{played, unplayed} {
		if err := ValidateColor(c); err != nil {
			return err
		}
	}
	s.custom = models.CustomColors{PlayedBg: strings.ToUpper(played), UnplayedBg: strings.ToUpper(unplayed)}
	if s.IsCustom() {
		s.UseCustom()
	}
	return nil
}

// SetSize sets the overlay dimensions.
func (s *ThemeSelector) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: size must be positive", shared.ErrInvalidInput)
	}
	s.cfg.Width, s.cfg.Height = width, height
	return nil
}

// ApplyPreset sets the size from a preset label such as "720p".
func (s *ThemeSelector) ApplyPreset(label string) error {
	for _, p := range SizePresets {
		if strings.EqualFold(p.Label, label) {
			return s.SetSize(p.Width, p.Height)
		}
	}
	return fmt.Errorf("%w: unknown size preset %q", shared.ErrInvalidArgument, label)
}

// DisplayColors returns the colors the bar will use.
func (s *ThemeSelector) DisplayColors() (played, unplayed string) {
	if s.cfg.CustomColors != nil {
		return s.cfg.CustomColors.PlayedBg, s.cfg.CustomColors.UnplayedBg
	}
	for _, t := range s.themes {
		if t.Name == s.cfg.Theme {
			return t.PlayedBg, t.UnplayedBg
		}
	}
	return DefaultPlayedBg, DefaultUnplayedBg
}
