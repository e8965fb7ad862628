package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

const pollInterval = 250 * time.Millisecond

type youtubeScreen struct {
	ctx  context.Context
	deps Deps
	keys keyMap
	help help.Model

	w       *wizard.YouTube
	url     textinput.Model
	spinner spinner.Model
	notice  string
	err     error
}

func newYouTubeScreen(ctx context.Context, deps Deps, keys keyMap) *youtubeScreen {
	url := textinput.New()
	url.Placeholder = "https://www.youtube.com/watch?v=..."
	url.Width = 60
	url.Focus()

	return &youtubeScreen{
		ctx:     ctx,
		deps:    deps,
		keys:    keys,
		help:    help.New(),
		w:       wizard.NewYouTube(deps.Backend.YouTube),
		url:     url,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *youtubeScreen) init() tea.Cmd {
	return tea.Batch(textinput.Blink, s.spinner.Tick)
}

func (s *youtubeScreen) close() { s.w.Reset() }

func (s *youtubeScreen) busy() bool {
	st := s.w.Status()
	return st == wizard.YouTubeFetching || st == wizard.YouTubeAnalyzing
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (s *youtubeScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd

	case pollMsg:
		if s.busy() {
			return poll()
		}
		return nil

	case youtubeMsg:
		s.err = msg.err
		return nil

	case copiedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.notice = "Copied chapters to clipboard"
		}
		return nil

	case tea.KeyMsg:
		if s.busy() {
			return nil
		}
		s.notice = ""
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.url, cmd = s.url.Update(msg)
	return cmd
}

func (s *youtubeScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.w.Status() == wizard.YouTubeDone {
		switch {
		case key.Matches(msg, s.keys.copy):
			text := s.w.CopyText()
			return func() tea.Msg { return copiedMsg{err: s.deps.Clipboard(text)} }
		case key.Matches(msg, s.keys.restart):
			s.w.Reset()
			s.url.SetValue("")
			return s.url.Focus()
		case key.Matches(msg, s.keys.back):
			return goBack
		}
		return nil
	}

	switch {
	case key.Matches(msg, s.keys.back):
		return goBack
	case key.Matches(msg, s.keys.enter):
		url := s.url.Value()
		if err := wizard.ValidateYouTubeURL(strings.TrimSpace(url)); err != nil {
			s.err = err
			return nil
		}
		s.err = nil
		fetch := func() tea.Msg {
			_, err := s.w.Fetch(s.ctx, url)
			return youtubeMsg{err: err}
		}
		return tea.Batch(fetch, poll())
	}

	var cmd tea.Cmd
	s.url, cmd = s.url.Update(msg)
	return cmd
}

func (s *youtubeScreen) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("YouTube chapters"))
	b.WriteString("\n")

	switch s.w.Status() {
	case wizard.YouTubeFetching:
		b.WriteString(s.spinner.View() + " fetching subtitles...\n")
	case wizard.YouTubeAnalyzing:
		b.WriteString(s.spinner.View() + " analyzing chapters...\n")
	case wizard.YouTubeDone:
		r := s.w.Result()
		b.WriteString(r.VideoTitle + "  " + shared.FormatTime(r.Duration) + "\n\n")
		b.WriteString(formatter.ChaptersTable(r.Chapters))
		b.WriteString("\n" + styles.help.Render(r.YouTubeFormat) + "\n\n")
		another := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "another link"))
		b.WriteString(s.help.ShortHelpView([]key.Binding{s.keys.copy, another, s.keys.back}))
	default:
		b.WriteString("Paste a YouTube link:\n\n")
		b.WriteString(s.url.View() + "\n\n")
		fetch := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get chapters"))
		b.WriteString(s.help.ShortHelpView([]key.Binding{fetch, s.keys.back}))
	}

	if s.notice != "" {
		b.WriteString("\n" + styles.ok.Render(s.notice) + "\n")
	}
	b.WriteString(errLine(s.err))
	return b.String()
}
