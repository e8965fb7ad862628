package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/bbruceyuan/vmarker/internal/models"
)

var (
	_ list.Item = featureItem{}
	_ list.Item = themeItem{}
)

// featureItem is an entry in the main menu.
type featureItem struct {
	view        View
	title       string
	description string
}

func (i featureItem) FilterValue() string { return i.title }
func (i featureItem) Title() string       { return i.title }
func (i featureItem) Description() string { return i.description }

func menuItems() []list.Item {
	return []list.Item{
		featureItem{ChapterBarView, "Chapter bar", "Subtitles → chapters → chapter bar video"},
		featureItem{VideoView, "Video", "Upload a video and burn in chapter and progress bars"},
		featureItem{ShowNotesView, "Show notes", "Summary and outline from subtitles"},
		featureItem{YouTubeView, "YouTube", "Chapters from a YouTube link"},
	}
}

// themeItem wraps [models.Theme] to implement [list.Item].
type themeItem struct {
	theme models.Theme
}

func (i themeItem) FilterValue() string { return i.theme.Name }
func (i themeItem) Title() string       { return i.theme.DisplayName }
func (i themeItem) Description() string {
	return fmt.Sprintf("%s %s  %s", swatch(i.theme.PlayedBg), swatch(i.theme.UnplayedBg), i.theme.Name)
}
