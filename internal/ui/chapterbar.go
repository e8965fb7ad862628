package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

// editTarget is the chapter field being typed into on the edit step.
type editTarget int

const (
	editNone editTarget = iota
	editTitle
	editStart
	editEnd
	editColors
)

type chapterBarScreen struct {
	ctx  context.Context
	deps Deps
	keys keyMap
	help help.Model

	w         *wizard.ChapterBar
	snapshots chan wizard.EditorSnapshot
	done      chan struct{}

	picker filepicker.Model
	file   *models.File
	parsed *models.ParseResult

	extraction *wizard.Extraction
	interval   textinput.Model

	snap    wizard.EditorSnapshot
	cursor  int
	editing editTarget
	input   textinput.Model

	selector *wizard.ThemeSelector
	themes   list.Model
	preset   int

	spinner spinner.Model
	busy    bool
	notice  string
	err     error
}

func newChapterBarScreen(ctx context.Context, deps Deps, keys keyMap) *chapterBarScreen {
	s := &chapterBarScreen{
		ctx:       ctx,
		deps:      deps,
		keys:      keys,
		help:      help.New(),
		snapshots: make(chan wizard.EditorSnapshot, 1),
		done:      make(chan struct{}),
		picker:    newPicker(deps.StartDir, shared.SubtitleExtensions...),
		interval:  textinput.New(),
		input:     textinput.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		themes:    list.New(nil, list.NewDefaultDelegate(), 60, 14),
	}
	s.interval.Placeholder = fmt.Sprint(wizard.DefaultInterval)
	s.interval.CharLimit = 3
	s.themes.Title = "Themes"
	s.themes.SetShowHelp(false)
	s.themes.SetFilteringEnabled(false)

	s.w = wizard.NewChapterBar(ctx, deps.Backend.ChapterBar, deps.Previews, wizard.WithUpdates(s.offer))
	return s
}

// offer keeps only the newest snapshot in the channel.
func (s *chapterBarScreen) offer(snap wizard.EditorSnapshot) {
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

func (s *chapterBarScreen) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-s.snapshots:
			return snapshotMsg(snap)
		case <-s.done:
			return nil
		}
	}
}

func (s *chapterBarScreen) init() tea.Cmd {
	return tea.Batch(s.picker.Init(), s.spinner.Tick, s.waitForSnapshot())
}

func (s *chapterBarScreen) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.w.Close()
}

func (s *chapterBarScreen) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd

	case snapshotMsg:
		s.snap = wizard.EditorSnapshot(msg)
		s.clampCursor()
		return s.waitForSnapshot()

	case parsedMsg:
		s.busy = false
		s.err = msg.err
		if msg.err == nil {
			s.file, s.parsed = msg.file, msg.result
		}
		return nil

	case quickMsg:
		s.busy = false
		s.err = msg.err
		if msg.err == nil && msg.outcome.Kind == wizard.QuickFallback {
			s.notice = "AI extraction failed; pick an extraction method. (" + shared.UserMessage(msg.outcome.Err) + ")"
		}
		return s.enterStep()

	case extractedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		if msg.result.FellBack() {
			s.notice = "AI extraction failed; used fixed intervals instead."
		}
		s.err = s.w.ChaptersExtracted(msg.result.Chapters)
		return s.enterStep()

	case themesMsg:
		s.err = msg.err
		items := make([]list.Item, len(msg.themes))
		for i, t := range msg.themes {
			items[i] = themeItem{theme: t}
		}
		return s.themes.SetItems(items)

	case generatedMsg:
		s.busy = false
		s.err = msg.err
		return nil

	case savedMsg:
		s.err = msg.err
		if msg.err == nil && len(msg.artifacts) > 0 {
			s.notice = "Saved to " + msg.artifacts[0].Location()
		}
		return nil

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		return s.handleKey(msg)
	}

	if s.w.Step() == wizard.StepUpload && s.file == nil {
		return s.updatePicker(msg)
	}
	return nil
}

func (s *chapterBarScreen) updatePicker(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)

	if ok, path := s.picker.DidSelectFile(msg); ok {
		s.busy = true
		s.err = nil
		return tea.Batch(cmd, s.parse(path))
	}
	if ok, path := s.picker.DidSelectDisabledFile(msg); ok {
		s.err = fmt.Errorf("%w: %s", shared.ErrInvalidFile, path)
	}
	return cmd
}

func (s *chapterBarScreen) parse(path string) tea.Cmd {
	return func() tea.Msg {
		file, err := models.FileFromPath(path)
		if err != nil {
			return parsedMsg{err: err}
		}
		res, err := s.w.LoadFile(s.ctx, file)
		return parsedMsg{file: file, result: res, err: err}
	}
}

// enterStep prepares the helpers of the step the wizard just moved to.
func (s *chapterBarScreen) enterStep() tea.Cmd {
	s.editing = editNone
	switch s.w.Step() {
	case wizard.StepExtract:
		s.extraction = s.w.Extraction()
		s.interval.SetValue("")
	case wizard.StepEdit:
		if ed := s.w.Editor(); ed != nil {
			s.snap = ed.Snapshot()
		}
		s.cursor = 0
	case wizard.StepConfig:
		s.selector = wizard.NewThemeSelector(s.w.State().Style)
		return s.loadThemes()
	}
	return nil
}

func (s *chapterBarScreen) loadThemes() tea.Cmd {
	selector := s.selector
	return func() tea.Msg {
		err := selector.Load(s.ctx, s.deps.Backend.ChapterBar)
		return themesMsg{themes: selector.Themes(), err: err}
	}
}

func (s *chapterBarScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	s.notice = ""
	switch s.w.Step() {
	case wizard.StepUpload:
		return s.uploadKeys(msg)
	case wizard.StepExtract:
		return s.extractKeys(msg)
	case wizard.StepEdit:
		return s.editKeys(msg)
	case wizard.StepConfig:
		return s.configKeys(msg)
	case wizard.StepGenerate:
		return s.generateKeys(msg)
	}
	return nil
}

func (s *chapterBarScreen) uploadKeys(msg tea.KeyMsg) tea.Cmd {
	if s.file == nil {
		if key.Matches(msg, s.keys.back) {
			return goBack
		}
		return s.updatePicker(msg)
	}

	switch {
	case key.Matches(msg, s.keys.back):
		s.file, s.parsed, s.err = nil, nil, nil
		return s.picker.Init()
	case key.Matches(msg, s.keys.enter):
		s.err = s.w.FileUploaded(s.file, s.parsed.Duration)
		return s.enterStep()
	case key.Matches(msg, s.keys.quick):
		s.busy = true
		file, duration := s.file, s.parsed.Duration
		return func() tea.Msg {
			out, err := s.w.QuickGenerate(s.ctx, file, duration)
			return quickMsg{outcome: out, err: err}
		}
	}
	return nil
}

func (s *chapterBarScreen) extractKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.back):
		s.w.Prev()
		s.file, s.parsed = nil, nil
		return tea.Batch(s.picker.Init(), s.enterStep())
	case key.Matches(msg, s.keys.mode):
		if s.extraction.Mode() == wizard.ModeAI {
			s.extraction.SetMode(wizard.ModeAuto)
			return s.interval.Focus()
		}
		s.extraction.SetMode(wizard.ModeAI)
		s.interval.Blur()
		return nil
	case key.Matches(msg, s.keys.enter):
		if v := s.interval.Value(); v != "" && !s.extraction.SetIntervalInput(v) {
			s.notice = fmt.Sprintf("Interval must be %d-%ds; using %ds.", wizard.MinInterval, wizard.MaxInterval, s.extraction.Interval())
		}
		s.busy = true
		ex, file := s.extraction, s.w.State().File
		return func() tea.Msg {
			res, err := ex.Run(s.ctx, file)
			return extractedMsg{result: res, err: err}
		}
	}

	if s.interval.Focused() {
		var cmd tea.Cmd
		s.interval, cmd = s.interval.Update(msg)
		return cmd
	}
	return nil
}

func (s *chapterBarScreen) editKeys(msg tea.KeyMsg) tea.Cmd {
	ed := s.w.Editor()
	if ed == nil {
		return nil
	}

	if s.editing != editNone {
		switch {
		case key.Matches(msg, s.keys.back):
			s.editing = editNone
			s.input.Blur()
			return nil
		case key.Matches(msg, s.keys.enter):
			s.err = s.commitEdit(ed)
			s.editing = editNone
			s.input.Blur()
			return nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, s.keys.back):
		s.w.Prev()
		return s.enterStep()
	case key.Matches(msg, s.keys.up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, s.keys.down):
		if s.cursor < len(s.snap.Chapters)-1 {
			s.cursor++
		}
	case key.Matches(msg, s.keys.title):
		return s.beginEdit(editTitle)
	case key.Matches(msg, s.keys.start):
		return s.beginEdit(editStart)
	case key.Matches(msg, s.keys.end):
		return s.beginEdit(editEnd)
	case key.Matches(msg, s.keys.add):
		ed.Add()
		s.cursor = len(ed.Chapters()) - 1
	case key.Matches(msg, s.keys.del):
		s.err = ed.Delete(s.cursor)
	case key.Matches(msg, s.keys.next):
		s.err = s.w.EditNext()
		return s.enterStep()
	}
	s.snap = ed.Snapshot()
	s.clampCursor()
	return nil
}

func (s *chapterBarScreen) beginEdit(target editTarget) tea.Cmd {
	if s.cursor >= len(s.snap.Chapters) {
		return nil
	}
	c := s.snap.Chapters[s.cursor]
	s.editing = target
	switch target {
	case editTitle:
		s.input.SetValue(c.Title)
	case editStart:
		s.input.SetValue(shared.FormatTime(c.StartTime))
	case editEnd:
		s.input.SetValue(shared.FormatTime(c.EndTime))
	}
	s.input.CursorEnd()
	return s.input.Focus()
}

func (s *chapterBarScreen) commitEdit(ed *wizard.ChapterEditor) error {
	v := s.input.Value()
	switch s.editing {
	case editTitle:
		return ed.SetTitle(s.cursor, v)
	case editStart:
		return ed.SetTimeInput(s.cursor, wizard.StartTime, v)
	case editEnd:
		return ed.SetTimeInput(s.cursor, wizard.EndTime, v)
	case editColors:
		parts := strings.Fields(v)
		if len(parts) != 2 {
			return fmt.Errorf("%w: enter two colors, played then unplayed", shared.ErrInvalidInput)
		}
		if err := s.selector.SetCustomColors(parts[0], parts[1]); err != nil {
			return err
		}
		s.selector.UseCustom()
	}
	return nil
}

func (s *chapterBarScreen) clampCursor() {
	if n := len(s.snap.Chapters); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
}

func (s *chapterBarScreen) configKeys(msg tea.KeyMsg) tea.Cmd {
	if s.editing == editColors {
		switch {
		case key.Matches(msg, s.keys.back):
			s.editing = editNone
			s.input.Blur()
			return nil
		case key.Matches(msg, s.keys.enter):
			s.err = s.commitEdit(nil)
			s.editing = editNone
			s.input.Blur()
			return nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, s.keys.back):
		s.w.ConfigChanged(s.selector.Config())
		s.w.Prev()
		return s.enterStep()
	case key.Matches(msg, s.keys.enter), key.Matches(msg, s.keys.toggle):
		if item, ok := s.themes.SelectedItem().(themeItem); ok {
			s.err = s.selector.SelectTheme(item.theme.Name)
		}
		return nil
	case key.Matches(msg, s.keys.custom):
		played, unplayed := s.selector.DisplayColors()
		s.editing = editColors
		s.input.SetValue(played + " " + unplayed)
		s.input.CursorEnd()
		return s.input.Focus()
	case key.Matches(msg, s.keys.preset):
		s.preset = (s.preset + 1) % len(wizard.SizePresets)
		s.err = s.selector.ApplyPreset(wizard.SizePresets[s.preset].Label)
		return nil
	case key.Matches(msg, s.keys.next):
		s.w.ConfigChanged(s.selector.Config())
		s.err = s.w.ConfigNext()
		return s.enterStep()
	}

	var cmd tea.Cmd
	s.themes, cmd = s.themes.Update(msg)
	return cmd
}

func (s *chapterBarScreen) generateKeys(msg tea.KeyMsg) tea.Cmd {
	gen := s.w.Generator()
	if gen == nil {
		return nil
	}

	switch {
	case key.Matches(msg, s.keys.back):
		s.w.GeneratePrev()
		if s.w.Step() == wizard.StepUpload {
			s.file, s.parsed = nil, nil
			return tea.Batch(s.picker.Init(), s.enterStep())
		}
		return s.enterStep()
	case key.Matches(msg, s.keys.format):
		if gen.Request().Format == models.FormatMP4 {
			gen.SetFormat(models.FormatMOV)
		} else {
			gen.SetFormat(models.FormatMP4)
		}
	case key.Matches(msg, s.keys.generate), key.Matches(msg, s.keys.restart):
		if key.Matches(msg, s.keys.restart) {
			gen.Regenerate()
		}
		s.busy = true
		s.err = nil
		return func() tea.Msg {
			_, err := gen.Generate(s.ctx)
			return generatedMsg{err: err}
		}
	case key.Matches(msg, s.keys.save):
		out, ok := gen.Output()
		if !ok {
			return nil
		}
		return saveOutputs(s.ctx, s.deps.Archive, s.w.State().File.Name(), out)
	case key.Matches(msg, s.keys.open):
		if p := gen.PreviewPath(); p != "" && s.deps.PreviewURL != nil {
			s.err = shared.OpenBrowser(s.deps.PreviewURL(p))
		}
	}
	return nil
}

func (s *chapterBarScreen) view() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Chapter bar"))
	b.WriteString("\n")
	b.WriteString(stepBar(wizard.ChapterBarSteps, s.w.StepIndex(), wizard.ChapterBarStep.Title))
	b.WriteString("\n\n")

	switch s.w.Step() {
	case wizard.StepUpload:
		s.viewUpload(&b)
	case wizard.StepExtract:
		s.viewExtract(&b)
	case wizard.StepEdit:
		s.viewEdit(&b)
	case wizard.StepConfig:
		s.viewConfig(&b)
	case wizard.StepGenerate:
		s.viewGenerate(&b)
	}

	if s.busy {
		b.WriteString("\n" + s.spinner.View() + " working...\n")
	}
	if s.notice != "" {
		b.WriteString("\n" + styles.warn.Render(s.notice) + "\n")
	}
	b.WriteString(errLine(s.err))
	return b.String()
}

func (s *chapterBarScreen) viewUpload(b *strings.Builder) {
	if s.file == nil {
		b.WriteString("Pick an .srt subtitle file:\n\n")
		b.WriteString(s.picker.View())
		b.WriteString("\n" + s.help.ShortHelpView([]key.Binding{s.keys.enter, s.keys.back}))
		return
	}
	fmt.Fprintf(b, "%s\n%d subtitles, %s long\n\n", s.file.Name(), s.parsed.SubtitleCount, shared.FormatTime(s.parsed.Duration))
	next := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "extract chapters"))
	b.WriteString(s.help.ShortHelpView([]key.Binding{next, s.keys.quick, s.keys.back}))
}

func (s *chapterBarScreen) viewExtract(b *strings.Builder) {
	if s.extraction == nil {
		return
	}
	ai, auto := "( )", "( )"
	if s.extraction.Mode() == wizard.ModeAI {
		ai = "(•)"
	} else {
		auto = "(•)"
	}
	fmt.Fprintf(b, "%s AI segmentation\n%s Fixed intervals, every %s seconds (%d-%d)\n\n",
		ai, auto, s.interval.View(), wizard.MinInterval, wizard.MaxInterval)
	run := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "extract"))
	b.WriteString(s.help.ShortHelpView([]key.Binding{s.keys.mode, run, s.keys.back}))
}

func (s *chapterBarScreen) viewEdit(b *strings.Builder) {
	for i, c := range s.snap.Chapters {
		cursor := "  "
		if i == s.cursor {
			cursor = "› "
		}
		line := fmt.Sprintf("%s%2d  %5s - %-5s  %s", cursor, i+1, shared.FormatTime(c.StartTime), shared.FormatTime(c.EndTime), c.Title)
		if i == s.cursor {
			line = styles.active.Render(line)
		}
		b.WriteString(line + "\n")
		for _, issue := range s.snap.IssuesFor(i) {
			style := styles.warn
			if issue.Blocking {
				style = styles.err
			}
			b.WriteString("      " + style.Render(issue.Message) + "\n")
		}
	}

	for _, issue := range s.snap.Issues {
		if issue.ChapterIndex == nil {
			b.WriteString(styles.warn.Render(issue.Message) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case s.editing != editNone:
		b.WriteString(s.input.View() + "\n")
	case s.snap.Validating:
		b.WriteString(s.spinner.View() + " validating...\n")
	case s.snap.CanProceed():
		b.WriteString(styles.ok.Render("Chapters look good") + "\n")
	default:
		b.WriteString(styles.err.Render("Fix the chapters before continuing") + "\n")
	}

	b.WriteString("\n" + s.help.ShortHelpView([]key.Binding{
		s.keys.up, s.keys.down, s.keys.title, s.keys.start, s.keys.end, s.keys.add, s.keys.del, s.keys.next, s.keys.back,
	}))
}

func (s *chapterBarScreen) viewConfig(b *strings.Builder) {
	if s.selector == nil {
		return
	}
	b.WriteString(s.themes.View())
	cfg := s.selector.Config()
	played, unplayed := s.selector.DisplayColors()
	mode := "theme " + cfg.Theme
	if s.selector.IsCustom() {
		mode = "custom colors"
	}
	fmt.Fprintf(b, "\n\nUsing %s  %s %s  %dx%d\n", mode, swatch(played), swatch(unplayed), cfg.Width, cfg.Height)
	if s.editing == editColors {
		b.WriteString("Colors (#RRGGBB #RRGGBB): " + s.input.View() + "\n")
	}
	b.WriteString("\n" + s.help.ShortHelpView([]key.Binding{s.keys.enter, s.keys.custom, s.keys.preset, s.keys.next, s.keys.back}))
}

func (s *chapterBarScreen) viewGenerate(b *strings.Builder) {
	gen := s.w.Generator()
	if gen == nil {
		return
	}
	req := gen.Request()
	state := s.w.State()
	if state.IsQuickMode {
		b.WriteString(styles.help.Render("Quick mode: AI chapters with default styling") + "\n\n")
	}
	b.WriteString(formatter.ChaptersTable(req.Chapters))
	fmt.Fprintf(b, "\nFormat: %s   Size: %dx%d\n", req.Format, req.Width, req.Height)

	switch gen.Status() {
	case wizard.StatusSuccess:
		b.WriteString(styles.ok.Render("✓ Generated") + "\n")
		if p := gen.PreviewPath(); p != "" && s.deps.PreviewURL != nil {
			b.WriteString("Preview: " + s.deps.PreviewURL(p) + "\n")
		}
	case wizard.StatusError:
		b.WriteString(styles.err.Render("Generation failed") + "\n")
	}

	b.WriteString("\n" + s.help.ShortHelpView([]key.Binding{s.keys.format, s.keys.generate, s.keys.open, s.keys.save, s.keys.restart, s.keys.back}))
}
