package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/tasks"
)

type videoStep int

const (
	videoUpload videoStep = iota
	videoSelect
	videoProcess
	videoResult
)

var videoSteps = []videoStep{videoUpload, videoSelect, videoProcess, videoResult}

func (s videoStep) title() string {
	return [...]string{"Upload", "Features", "Process", "Results"}[s]
}

// videoOption is one selectable feature on the select step.
type videoOption struct {
	label string
	on    func(*tasks.Selection) *bool
}

var videoOptions = []videoOption{
	{"Chapter bar", func(s *tasks.Selection) *bool { return &s.ChapterBar }},
	{"Progress bar", func(s *tasks.Selection) *bool { return &s.ProgressBar }},
	{"Show notes", func(s *tasks.Selection) *bool { return &s.ShowNotes }},
	{"Subtitle polish", func(s *tasks.Selection) *bool { return &s.Subtitle }},
}

type videoScreen struct {
	ctx  context.Context
	deps Deps
	keys keyMap
	help help.Model

	step    videoStep
	picker  filepicker.Model
	session *models.VideoUploadResult
	source  string

	sel    tasks.Selection
	cursor int
	cfg    tasks.ComposeConfig

	events  chan tea.Msg
	bar     progress.Model
	spinner spinner.Model
	phase   string
	percent float64

	results *tasks.Results
	busy    bool
	notice  string
	err     error
}

func newVideoScreen(ctx context.Context, deps Deps, keys keyMap) *videoScreen {
	return &videoScreen{
		ctx:     ctx,
		deps:    deps,
		keys:    keys,
		help:    help.New(),
		picker:  newPicker(deps.StartDir, shared.VideoExtensions...),
		cfg:     tasks.DefaultComposeConfig(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *videoScreen) init() tea.Cmd {
	return tea.Batch(s.picker.Init(), s.spinner.Tick)
}

// close releases the server session, waiting a few seconds at most.
func (s *videoScreen) close() {
	if s.deps.Engine.Session() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 5*time.Second)
	defer cancel()
	if err := s.deps.Engine.Reset(ctx); err != nil {
		s.deps.Logger.Warn("failed to clean up video session", "error", err)
	}
}

// run starts fn in the background and streams its progress into s.events.
// The final message from fn is delivered after every progress update.
func (s *videoScreen) run(fn func(chan<- tasks.ProgressUpdate) tea.Msg) tea.Cmd {
	updates := make(chan tasks.ProgressUpdate, 16)
	events := make(chan tea.Msg, 16)
	s.events = events
	s.busy = true
	s.err = nil

	go func() {
		defer close(events)
		done := make(chan tea.Msg, 1)
		go func() {
			done <- fn(updates)
			close(updates)
		}()
		for u := range updates {
			events <- progressMsg(u)
		}
		events <- <-done
	}()
	return s.waitForEvent()
}

func (s *videoScreen) waitForEvent() tea.Cmd {
	events := s.events
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (s *videoScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd

	case progress.FrameMsg:
		m, cmd := s.bar.Update(msg)
		s.bar = m.(progress.Model)
		return cmd

	case progressMsg:
		s.phase = msg.Message
		if msg.Percent >= s.percent {
			s.percent = msg.Percent
		}
		return tea.Batch(s.bar.SetPercent(s.percent/100), s.waitForEvent())

	case uploadedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = msg.err
			return s.picker.Init()
		}
		s.session = msg.result
		s.step = videoSelect
		return nil

	case processedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = msg.err
			s.step = videoSelect
			return nil
		}
		s.results = msg.results
		s.step = videoResult
		return nil

	case resetMsg:
		s.busy = false
		s.err = msg.err
		s.session, s.results = nil, nil
		s.sel, s.percent, s.phase = tasks.Selection{}, 0, ""
		s.step = videoUpload
		return s.picker.Init()

	case savedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.notice = fmt.Sprintf("Saved %d files", len(msg.artifacts))
		}
		return nil

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		s.notice = ""
		return s.handleKey(msg)
	}

	if s.step == videoUpload && !s.busy {
		return s.updatePicker(msg)
	}
	return nil
}

func (s *videoScreen) updatePicker(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)

	if ok, path := s.picker.DidSelectFile(msg); ok {
		return tea.Batch(cmd, s.upload(path))
	}
	if ok, path := s.picker.DidSelectDisabledFile(msg); ok {
		s.err = fmt.Errorf("%w: %s", shared.ErrInvalidFile, path)
	}
	return cmd
}

func (s *videoScreen) upload(path string) tea.Cmd {
	file, err := models.FileFromPath(path)
	if err != nil {
		s.err = err
		return nil
	}
	if err := shared.ValidateVideoFile(file.Name(), file.Size()); err != nil {
		s.err = err
		return nil
	}
	s.source = file.Name()
	s.percent = 0
	return s.run(func(updates chan<- tasks.ProgressUpdate) tea.Msg {
		res, err := s.deps.Engine.Upload(s.ctx, file, updates)
		return uploadedMsg{result: res, err: err}
	})
}

func (s *videoScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch s.step {
	case videoUpload:
		if key.Matches(msg, s.keys.back) {
			return goBack
		}
		return s.updatePicker(msg)

	case videoSelect:
		switch {
		case key.Matches(msg, s.keys.back):
			return goBack
		case key.Matches(msg, s.keys.up):
			s.cursor = max(s.cursor-1, 0)
		case key.Matches(msg, s.keys.down):
			s.cursor = min(s.cursor+1, len(videoOptions)-1)
		case key.Matches(msg, s.keys.toggle):
			on := videoOptions[s.cursor].on(&s.sel)
			*on = !*on
		case key.Matches(msg, s.keys.enter):
			if s.sel.Count() == 0 {
				s.err = shared.ErrNoSelection
				return nil
			}
			s.step = videoProcess
			s.percent = 0
			sel, cfg := s.sel, s.cfg
			return tea.Batch(s.bar.SetPercent(0), s.run(func(updates chan<- tasks.ProgressUpdate) tea.Msg {
				res, err := s.deps.Engine.Process(s.ctx, sel, cfg, updates)
				return processedMsg{results: res, err: err}
			}))
		case key.Matches(msg, s.keys.restart):
			return s.reset()
		}

	case videoResult:
		switch {
		case key.Matches(msg, s.keys.back):
			return goBack
		case key.Matches(msg, s.keys.save):
			return saveOutputs(s.ctx, s.deps.Archive, s.source, s.results.Outputs()...)
		case key.Matches(msg, s.keys.next):
			s.step = videoSelect
		case key.Matches(msg, s.keys.restart):
			return s.reset()
		}
	}
	return nil
}

func (s *videoScreen) reset() tea.Cmd {
	s.busy = true
	return func() tea.Msg {
		return resetMsg{err: s.deps.Engine.Reset(s.ctx)}
	}
}

func (s *videoScreen) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Video"))
	b.WriteString("\n")
	b.WriteString(stepBar(videoSteps, int(s.step), videoStep.title))
	b.WriteString("\n\n")

	switch s.step {
	case videoUpload:
		if s.busy {
			fmt.Fprintf(&b, "%s uploading %s...\n", s.spinner.View(), s.source)
		} else {
			fmt.Fprintf(&b, "Pick a video (%s, up to %s):\n\n", strings.Join(shared.VideoExtensions, " "), shared.FormatTime(shared.MaxVideoDuration))
			b.WriteString(s.picker.View())
		}
	case videoSelect:
		s.viewSelect(&b)
	case videoProcess:
		b.WriteString(s.bar.View() + "\n\n")
		b.WriteString(s.spinner.View() + " " + s.phase + "\n")
	case videoResult:
		s.viewResult(&b)
	}

	if s.notice != "" {
		b.WriteString("\n" + styles.ok.Render(s.notice) + "\n")
	}
	b.WriteString(errLine(s.err))
	return b.String()
}

func (s *videoScreen) viewSelect(b *strings.Builder) {
	if v := s.session; v != nil {
		fmt.Fprintf(b, "%s  %s  %dx%d  %.0ffps  %.1fMB\n\n", s.source, shared.FormatTime(v.Duration), v.Width, v.Height, v.FPS, v.FileSizeMB)
	}
	for i, opt := range videoOptions {
		box := "[ ]"
		if *opt.on(&s.sel) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, opt.label)
		if i == s.cursor {
			line = styles.active.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if s.sel.NeedsASR() {
		b.WriteString("\n" + styles.help.Render("Speech recognition runs once before the selected features.") + "\n")
	}
	process := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "process"))
	b.WriteString("\n" + s.help.ShortHelpView([]key.Binding{s.keys.toggle, process, s.keys.restart, s.keys.back}))
}

func (s *videoScreen) viewResult(b *strings.Builder) {
	r := s.results
	if r == nil {
		return
	}
	if r.ChapterBar != nil {
		fmt.Fprintf(b, "%s chapter bar video (%d chapters)\n", styles.ok.Render("✓"), len(r.ChapterBar.Chapters))
		b.WriteString(formatter.ChaptersTable(r.ChapterBar.Chapters))
	}
	if r.ProgressBar != nil {
		fmt.Fprintf(b, "%s progress bar video\n", styles.ok.Render("✓"))
	}
	if r.ShowNotes != nil {
		fmt.Fprintf(b, "%s show notes\n\n%s\n", styles.ok.Render("✓"), r.ShowNotes.Summary)
	}
	if r.Subtitle != nil {
		fmt.Fprintf(b, "%s polished subtitles (%d changed)\n", styles.ok.Render("✓"), r.Subtitle.ChangesCount)
	}

	again := key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "pick features"))
	b.WriteString("\n" + s.help.ShortHelpView([]key.Binding{s.keys.save, again, s.keys.restart, s.keys.back}))
}
