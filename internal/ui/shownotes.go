package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

type showNotesScreen struct {
	ctx  context.Context
	deps Deps
	keys keyMap
	help help.Model

	w          *wizard.ShowNotes
	picker     filepicker.Model
	file       *models.File
	timestamps bool
	preview    viewport.Model
	spinner    spinner.Model
	notice     string
	err        error
}

func newShowNotesScreen(ctx context.Context, deps Deps, keys keyMap) *showNotesScreen {
	return &showNotesScreen{
		ctx:        ctx,
		deps:       deps,
		keys:       keys,
		help:       help.New(),
		w:          wizard.NewShowNotes(deps.Backend.ShowNotes),
		picker:     newPicker(deps.StartDir, shared.SubtitleExtensions...),
		timestamps: true,
		preview:    viewport.New(80, 18),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *showNotesScreen) init() tea.Cmd {
	return tea.Batch(s.picker.Init(), s.spinner.Tick)
}

func (s *showNotesScreen) close() { s.w.Reset() }

func (s *showNotesScreen) generate() tea.Cmd {
	s.err = nil
	return func() tea.Msg {
		_, err := s.w.Generate(s.ctx)
		return showNotesMsg{err: err}
	}
}

func (s *showNotesScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd

	case tea.WindowSizeMsg:
		s.preview.Width = msg.Width - 4
		s.preview.Height = max(msg.Height-12, 5)

	case showNotesMsg:
		s.err = msg.err
		s.preview.SetContent(s.w.Markdown())
		s.preview.GotoTop()
		return nil

	case copiedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.notice = "Copied to clipboard"
		}
		return nil

	case savedMsg:
		s.err = msg.err
		if msg.err == nil && len(msg.artifacts) > 0 {
			s.notice = "Saved to " + msg.artifacts[0].Location()
		}
		return nil

	case tea.KeyMsg:
		if s.w.Status() == wizard.StatusGenerating {
			return nil
		}
		s.notice = ""
		if s.file == nil {
			if key.Matches(msg, s.keys.back) {
				return goBack
			}
			return s.updatePicker(msg)
		}
		return s.handleKey(msg)
	}

	if s.file == nil {
		return s.updatePicker(msg)
	}
	return nil
}

func (s *showNotesScreen) updatePicker(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)

	if ok, path := s.picker.DidSelectFile(msg); ok {
		file, err := models.FileFromPath(path)
		if err == nil {
			err = s.w.SetFile(file)
		}
		if err != nil {
			s.err = err
			return cmd
		}
		s.file = file
		return tea.Batch(cmd, s.generate())
	}
	if ok, path := s.picker.DidSelectDisabledFile(msg); ok {
		s.err = fmt.Errorf("%w: %s", shared.ErrInvalidFile, path)
	}
	return cmd
}

func (s *showNotesScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.back):
		s.w.Reset()
		s.file = nil
		s.preview.SetContent("")
		return s.picker.Init()
	case key.Matches(msg, s.keys.title):
		s.timestamps = !s.timestamps
		s.w.SetTimestamps(s.timestamps)
		s.preview.SetContent(s.w.Markdown())
	case key.Matches(msg, s.keys.copy):
		text := s.w.Markdown()
		if text == "" {
			return nil
		}
		return func() tea.Msg { return copiedMsg{err: s.deps.Clipboard(text)} }
	case key.Matches(msg, s.keys.save):
		out, ok := s.w.Output()
		if !ok {
			return nil
		}
		return saveOutputs(s.ctx, s.deps.Archive, s.file.Name(), out)
	case key.Matches(msg, s.keys.restart), key.Matches(msg, s.keys.generate):
		return s.generate()
	default:
		var cmd tea.Cmd
		s.preview, cmd = s.preview.Update(msg)
		return cmd
	}
	return nil
}

func (s *showNotesScreen) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Show notes"))
	b.WriteString("\n")

	switch {
	case s.file == nil:
		b.WriteString("Pick an .srt subtitle file:\n\n")
		b.WriteString(s.picker.View())
	case s.w.Status() == wizard.StatusGenerating:
		fmt.Fprintf(&b, "%s summarizing %s...\n", s.spinner.View(), s.file.Name())
	default:
		b.WriteString(s.file.Name() + "\n\n")
		b.WriteString(s.preview.View())
		b.WriteString("\n\n")
		stamps := key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timestamps"))
		b.WriteString(s.help.ShortHelpView([]key.Binding{stamps, s.keys.copy, s.keys.save, s.keys.restart, s.keys.back}))
	}

	if s.notice != "" {
		b.WriteString("\n" + styles.ok.Render(s.notice) + "\n")
	}
	b.WriteString(errLine(s.err))
	return b.String()
}
