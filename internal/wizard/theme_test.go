package wizard

import (
	"errors"
	"testing"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

func TestValidateColor(t *testing.T) {
	for _, c := range []string{"#2563EB", "#abcdef"} {
		if err := ValidateColor(c); err != nil {
			t.Errorf("ValidateColor(%q) = %v", c, err)
		}
	}
	for _, c := range []string{"2563EB", "#FFF", "#GGGGGG", ""} {
		if err := ValidateColor(c); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("ValidateColor(%q) expected ErrInvalidInput, got %v", c, err)
		}
	}
}

func TestThemeSelector(t *testing.T) {
	svc := &fakeChapterBar{themes: []models.Theme{
		{Name: "tech-blue", PlayedBg: "#2563EB", UnplayedBg: "#64748B"},
		{Name: "sunset", PlayedBg: "#F97316", UnplayedBg: "#1F2937"},
	}}

	s := NewThemeSelector(DefaultThemeConfig())
	if err := s.Load(t.Context(), svc); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("named theme", func(t *testing.T) {
		if err := s.SelectTheme("sunset"); err != nil {
			t.Fatalf("SelectTheme failed: %v", err)
		}
		if p, u := s.DisplayColors(); p != "#F97316" || u != "#1F2937" {
			t.Errorf("DisplayColors() = %s, %s", p, u)
		}
		if err := s.SelectTheme("neon"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("custom colors", func(t *testing.T) {
		if err := s.SetCustomColors("#ff0000", "#00ff00"); err != nil {
			t.Fatalf("SetCustomColors failed: %v", err)
		}
		if s.IsCustom() {
			t.Error("setting colors alone should not switch to custom mode")
		}
		s.UseCustom()
		if p, u := s.DisplayColors(); p != "#FF0000" || u != "#00FF00" {
			t.Errorf("DisplayColors() = %s, %s", p, u)
		}
		if err := s.SetCustomColors("red", "#00ff00"); err == nil {
			t.Error("expected invalid color error")
		}
		if err := s.SelectTheme("tech-blue"); err != nil {
			t.Fatal(err)
		}
		s.UseCustom()
		if p, _ := s.DisplayColors(); p != "#FF0000" {
			t.Errorf("custom colors should survive a theme switch, got %s", p)
		}
	})

	t.Run("size presets", func(t *testing.T) {
		if err := s.ApplyPreset("720p"); err != nil {
			t.Fatalf("ApplyPreset failed: %v", err)
		}
		if cfg := s.Config(); cfg.Width != 1280 || cfg.Height != 50 {
			t.Errorf("expected 1280x50, got %dx%d", cfg.Width, cfg.Height)
		}
		if err := s.ApplyPreset("8K"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := s.SetSize(0, 10); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
