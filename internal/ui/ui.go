package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/storage"
	"github.com/bbruceyuan/vmarker/internal/tasks"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

// View identifies the active screen.
type View int

const (
	MenuView View = iota
	ChapterBarView
	VideoView
	ShowNotesView
	YouTubeView
)

// Deps are the collaborators the screens need.
type Deps struct {
	Backend *services.Backend
	Engine  *tasks.VideoEngine
	// Archive saves outputs. When nil, saving is unavailable.
	Archive *storage.Archive
	// Previews serves rendered videos; PreviewURL turns a preview path into a full URL.
	Previews   wizard.Previewer
	PreviewURL func(path string) string
	Logger     *log.Logger
	// Clipboard writes text; defaults to the system clipboard.
	Clipboard func(string) error
	// StartDir is where file pickers open.
	StartDir string
}

// screen is one feature's view inside the TUI.
type screen interface {
	init() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view() string
	close()
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   View
	width  int
	height int
	menu   list.Model
	active screen
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Clipboard == nil {
		deps.Clipboard = writeClipboard
	}
	if deps.StartDir == "" {
		deps.StartDir = "."
	}

	menu := list.New(menuItems(), list.NewDefaultDelegate(), 0, 0)
	menu.Title = "vmarker"
	menu.SetShowStatusBar(false)

	return &Model{
		ctx:  ctx,
		deps: deps,
		view: MenuView,
		menu: menu,
		help: help.New(),
		keys: newKeyMap(),
	}
}

// Init does nothing until a feature is chosen.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-4)
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.closeActive()
			return m, tea.Quit
		}
	case backMsg:
		m.closeActive()
		m.view = MenuView
		return m, nil
	}

	if m.view != MenuView && m.active != nil {
		return m, m.active.update(msg)
	}
	return m.updateMenu(msg)
}

func (m *Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.enter) && m.menu.FilterState() != list.Filtering {
		if item, ok := m.menu.SelectedItem().(featureItem); ok {
			return m, m.open(item.view)
		}
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m *Model) open(v View) tea.Cmd {
	switch v {
	case ChapterBarView:
		m.active = newChapterBarScreen(m.ctx, m.deps, m.keys)
	case VideoView:
		m.active = newVideoScreen(m.ctx, m.deps, m.keys)
	case ShowNotesView:
		m.active = newShowNotesScreen(m.ctx, m.deps, m.keys)
	case YouTubeView:
		m.active = newYouTubeScreen(m.ctx, m.deps, m.keys)
	default:
		return nil
	}
	m.view = v
	m.deps.Logger.Debug("opened screen", "view", v)
	return m.active.init()
}

func (m *Model) closeActive() {
	if m.active != nil {
		m.active.close()
		m.active = nil
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.view == MenuView || m.active == nil {
		helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit}
		return fmt.Sprintf("%s\n\n%s", m.menu.View(), m.help.ShortHelpView(helpKeys))
	}
	return m.active.view()
}

// stepBar renders wizard steps, marking done, current, and locked ones.
func stepBar[S comparable](steps []S, current int, label func(S) string) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		name := fmt.Sprintf("%d %s", i+1, label(s))
		switch {
		case i < current:
			parts[i] = styles.done.Render("✓ " + name)
		case i == current:
			parts[i] = styles.active.Render(name)
		default:
			parts[i] = styles.locked.Render(name)
		}
	}
	return strings.Join(parts, "  ›  ")
}

// newPicker returns a file picker limited to exts.
func newPicker(dir string, exts ...string) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = exts
	fp.CurrentDirectory = dir
	return fp
}

func errLine(err error) string {
	if err == nil {
		return ""
	}
	return "\n" + styles.err.Render(shared.UserMessage(err)) + "\n"
}
