package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/storage"
	"github.com/bbruceyuan/vmarker/internal/tasks"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

// backMsg returns to the main menu.
type backMsg struct{}

type parsedMsg struct {
	file   *models.File
	result *models.ParseResult
	err    error
}

type quickMsg struct {
	outcome wizard.QuickOutcome
	err     error
}

type extractedMsg struct {
	result *wizard.ExtractResult
	err    error
}

type snapshotMsg wizard.EditorSnapshot

type themesMsg struct {
	themes []models.Theme
	err    error
}

type generatedMsg struct {
	err error
}

type savedMsg struct {
	artifacts []*models.Artifact
	err       error
}

type copiedMsg struct {
	err error
}

type uploadedMsg struct {
	result *models.VideoUploadResult
	err    error
}

type progressMsg tasks.ProgressUpdate

type processedMsg struct {
	results *tasks.Results
	err     error
}

type resetMsg struct {
	err error
}

type showNotesMsg struct {
	err error
}

type youtubeMsg struct {
	err error
}

// pollMsg asks a screen to re-read state that changes off the UI goroutine.
type pollMsg struct{}

func goBack() tea.Msg { return backMsg{} }

// saveOutputs stores outputs in the archive. A nil archive reports nothing saved.
func saveOutputs(ctx context.Context, archive *storage.Archive, source string, outputs ...models.Output) tea.Cmd {
	return func() tea.Msg {
		if archive == nil {
			return savedMsg{}
		}
		var saved []*models.Artifact
		for _, out := range outputs {
			a, err := archive.StoreOutput(ctx, source, out)
			if err != nil {
				return savedMsg{artifacts: saved, err: err}
			}
			saved = append(saved, a)
		}
		return savedMsg{artifacts: saved}
	}
}
