// Package app is the bubbletea front end: one tree pane per view, an
// optional preview pane and modal prompts answered on behalf of the
// views.
package app

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/sidetree/internal/column"
	"github.com/marcus/sidetree/internal/config"
	"github.com/marcus/sidetree/internal/keymap"
	"github.com/marcus/sidetree/internal/preview"
	"github.com/marcus/sidetree/internal/state"
	"github.com/marcus/sidetree/internal/styles"
	"github.com/marcus/sidetree/internal/ui"
	"github.com/marcus/sidetree/internal/view"
	"github.com/marcus/sidetree/internal/watcher"
)

// Options wires the model to the rest of the program.
type Options struct {
	Config  *config.Config
	Manager *view.Manager
	Preview *preview.Renderer
	Watcher *watcher.Watcher // nil disables auto refresh
	Keymap  *keymap.Registry
	Logger  *slog.Logger

	// Paths are the roots of the first view.
	Paths []string

	// Send delivers a message to the running program. Views use it to
	// ask questions while an action runs.
	Send func(tea.Msg)
}

// pane is one view shown in the tree area.
type pane struct {
	name   string
	host   *bridge
	view   *view.View
	lines  []view.Line
	cursor int
	offset int
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg     *config.Config
	manager *view.Manager
	preview *preview.Renderer
	watcher *watcher.Watcher
	keymap  *keymap.Registry
	logger  *slog.Logger
	send    func(tea.Msg)
	paths   []string

	panes  []*pane
	active int

	// busy is set while an action goroutine owns the views.
	busy         bool
	pendingCheck bool

	prompt      *ui.Prompt
	promptReply chan ui.PromptResult

	// UI state
	width, height int
	ready         bool
	showHelp      bool
	showFooter    bool
	showPreview   bool
	treeWidth     int
	visualStart   int
	cursorInfo    string

	previewPath string
	previewSeq  int
	viewport    viewport.Model

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool

	err error
}

// New creates the model and its first view. Views are drawn by Init.
func New(opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Manager == nil {
		opts.Manager = view.NewManager(view.Options{Logger: opts.Logger})
	}
	if opts.Keymap == nil {
		opts.Keymap = keymap.NewRegistry(opts.Config.Keymap.Overrides)
	}
	if opts.Preview == nil {
		opts.Preview = preview.New(opts.Config.UI.SyntaxTheme, styles.MarkdownStyle(opts.Config.UI.MarkdownStyle), opts.Config.Preview.MaxBytes)
	}
	m := Model{
		cfg:         opts.Config,
		manager:     opts.Manager,
		preview:     opts.Preview,
		watcher:     opts.Watcher,
		keymap:      opts.Keymap,
		logger:      opts.Logger,
		send:        opts.Send,
		paths:       opts.Paths,
		busy:        true,
		showFooter:  opts.Config.UI.ShowFooter,
		showPreview: state.GetShowPreview(),
		treeWidth:   state.GetTreeWidth(),
		visualStart: -1,
		viewport:    viewport.New(0, 0),
	}
	if _, err := m.addPane(opts.Config.Browser.BufferName, opts.Config.Browser.NewBuffer); err != nil {
		return Model{}, err
	}
	return m, nil
}

// addPane creates a view and focuses it.
func (m *Model) addPane(name string, newBuffer bool) (*pane, error) {
	host := newBridge(name, m.cfg.Browser.Editor, m.logger, m.send)
	v, stored, err := m.manager.Get(name, host, newBuffer)
	if err != nil {
		return nil, err
	}
	host.name = stored
	host.out.pane = stored
	host.view = v
	p := &pane{name: stored, host: host, view: v}
	m.panes = append(m.panes, p)
	m.active = len(m.panes) - 1
	return p, nil
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.err }

func (m *Model) activePane() *pane {
	if len(m.panes) == 0 {
		return nil
	}
	return m.panes[m.active]
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(msg string, duration time.Duration) {
	m.statusMsg = msg
	m.statusExpiry = time.Now().Add(duration)
	m.statusIsError = false
}

// ShowError displays a temporary error message.
func (m *Model) ShowError(msg string, duration time.Duration) {
	m.ShowToast(msg, duration)
	m.statusIsError = true
}

// ClearToast clears any expired toast message.
func (m *Model) ClearToast() {
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}

// Init draws the first view and starts background commands.
func (m Model) Init() tea.Cmd {
	p := m.activePane()
	return tea.Batch(
		m.initPane(p, m.paths),
		tickCmd(),
		m.waitForChange(),
	)
}

// moveCursor moves the active cursor by delta rows and keeps it visible.
func (m *Model) moveCursor(delta int) tea.Cmd {
	p := m.activePane()
	if p == nil || len(p.lines) == 0 {
		return nil
	}
	return m.setCursor(p.cursor + delta)
}

func (m *Model) setCursor(row int) tea.Cmd {
	p := m.activePane()
	if p == nil || len(p.lines) == 0 {
		return nil
	}
	p.cursor = min(max(row, 0), len(p.lines)-1)
	m.updateCursorInfo()
	return m.schedulePreview()
}

// updateCursorInfo describes the cursor row for the footer.
func (m *Model) updateCursorInfo() {
	m.cursorInfo = ""
	p := m.activePane()
	if p == nil || p.cursor >= len(p.lines) {
		return
	}
	l := p.lines[p.cursor]
	info, err := os.Lstat(l.Path)
	if err != nil {
		m.cursorInfo = l.Path
		return
	}
	m.cursorInfo = l.Path + "  " + column.FormatTime(info.ModTime())
	if !info.IsDir() {
		m.cursorInfo += "  " + column.FormatSize(info.Size())
	}
}

// treeHeight is the number of rows the tree pane shows.
func (m Model) treeHeight() int {
	h := m.height
	if m.showFooter {
		h--
	}
	if len(m.panes) > 1 {
		h--
	}
	return max(h, 1)
}

// scroll keeps the cursor inside the visible window.
func (p *pane) scroll(height int) {
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+height {
		p.offset = p.cursor - height + 1
	}
	if maxOffset := max(len(p.lines)-height, 0); p.offset > maxOffset {
		p.offset = maxOffset
	}
}
