package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/sidetree/internal/state"
	"github.com/marcus/sidetree/internal/ui"
	"github.com/marcus/sidetree/internal/view"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestModel builds a model on a temp dir holding files; names ending
// in "/" are directories.
func newTestModel(t *testing.T, files ...string) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, f)
		if strings.HasSuffix(f, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mgr := view.NewManager(view.Options{Logger: discardLogger()})
	m, err := New(Options{Manager: mgr, Paths: []string{dir}, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m = run(t, m, m.initPane(m.activePane(), m.paths))
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	return m, dir
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// run executes cmd synchronously and feeds its message back.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	return step(t, m, cmd())
}

// press sends a key and runs the action it starts, if any.
func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var k tea.KeyMsg
	switch key {
	case "enter":
		k = tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		k = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		k = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(k)
	m = next.(Model)
	if m.busy && cmd != nil {
		msg := cmd()
		if done, ok := msg.(actionDoneMsg); ok {
			next, cmd = m.Update(done)
			return next.(Model), cmd
		}
	}
	return m, cmd
}

func lineNames(m Model) []string {
	var out []string
	for _, l := range m.activePane().lines {
		out = append(out, filepath.Base(l.Path))
	}
	return out
}

func TestInit_DrawsRoot(t *testing.T) {
	m, dir := newTestModel(t, "a.txt", "sub/")
	lines := m.activePane().lines
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lineNames(m))
	}
	if !lines[0].IsRoot || lines[0].Path != dir {
		t.Errorf("first line = %+v, want root %s", lines[0], dir)
	}
	if m.busy {
		t.Error("model still busy after init")
	}
}

func TestCursorMovement(t *testing.T) {
	m, _ := newTestModel(t, "a.txt", "b.txt", "c.txt")

	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	if got := m.activePane().cursor; got != 2 {
		t.Errorf("cursor after jj = %d, want 2", got)
	}
	m, _ = press(t, m, "G")
	if got := m.activePane().cursor; got != 3 {
		t.Errorf("cursor after G = %d, want 3", got)
	}
	m, _ = press(t, m, "g")
	m, _ = press(t, m, "g")
	if got := m.activePane().cursor; got != 0 {
		t.Errorf("cursor after gg = %d, want 0", got)
	}
	m, _ = press(t, m, "k")
	if got := m.activePane().cursor; got != 0 {
		t.Errorf("cursor moved above the first row: %d", got)
	}
}

func TestOpenTreeKey(t *testing.T) {
	m, _ := newTestModel(t, "sub/inner.txt")
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "l")

	names := lineNames(m)
	if len(names) != 3 || names[2] != "inner.txt" {
		t.Errorf("lines after open = %v", names)
	}
	if !m.activePane().lines[1].IsOpened {
		t.Error("sub should be opened")
	}
}

func TestVisualSelection(t *testing.T) {
	m, _ := newTestModel(t, "a.txt", "b.txt", "c.txt")
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "V")
	if m.visualStart != 1 {
		t.Fatalf("visualStart = %d", m.visualStart)
	}
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "V")

	var selected []string
	for _, l := range m.activePane().lines {
		if l.IsSelected {
			selected = append(selected, filepath.Base(l.Path))
		}
	}
	if strings.Join(selected, ",") != "a.txt,b.txt" {
		t.Errorf("selected = %v", selected)
	}
}

func TestBusyIgnoresKeys(t *testing.T) {
	m, _ := newTestModel(t, "a.txt")
	m.busy = true
	m, cmd := press(t, m, "j")
	if cmd != nil || m.activePane().cursor != 0 {
		t.Error("keys should be ignored while busy")
	}
}

func TestQuitAction(t *testing.T) {
	m, _ := newTestModel(t, "a.txt")
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit should stop the program")
	}
}

func TestActionErrorShowsToast(t *testing.T) {
	m, _ := newTestModel(t, "a.txt")
	m = run(t, m, m.runAction("no_such_verb", nil))
	if !m.statusIsError || m.statusMsg == "" {
		t.Errorf("status = %q, error = %v", m.statusMsg, m.statusIsError)
	}
}

func TestMultipleViews(t *testing.T) {
	m, dir := newTestModel(t, "sub/inner.txt")
	m, _ = press(t, m, "j")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = run(t, next.(Model), cmd)

	if len(m.panes) != 2 || m.active != 1 {
		t.Fatalf("panes = %d, active = %d", len(m.panes), m.active)
	}
	if got := m.activePane().view.RootDirs(); got[0] != filepath.Join(dir, "sub") {
		t.Errorf("new view root = %v", got)
	}
	if !strings.Contains(m.View(), m.panes[1].name) {
		t.Error("tabs should list the new view")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.active != 0 {
		t.Errorf("active after tab = %d", m.active)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	m = next.(Model)
	if len(m.panes) != 1 {
		t.Errorf("panes after close = %d", len(m.panes))
	}
}

func TestPreviewPane(t *testing.T) {
	t.Cleanup(func() { _ = state.SetShowPreview(false) })
	m, _ := newTestModel(t, "notes.txt")
	m, _ = press(t, m, "j")
	m, cmd := press(t, m, "P")
	if !m.showPreview || cmd == nil {
		t.Fatal("preview pane should open and schedule a render")
	}
	m = run(t, m, cmd) // tick
	if m.previewPath == "" {
		t.Fatal("preview not loading")
	}
	m = run(t, m, m.loadPreview(m.activePane().lines[1]))
	if !strings.Contains(m.viewport.View(), "notes.txt") {
		t.Errorf("viewport = %q", m.viewport.View())
	}
}

func TestPromptRoundTrip(t *testing.T) {
	m, _ := newTestModel(t, "a.txt")
	reply := make(chan ui.PromptResult, 1)
	m = step(t, m, promptMsg{prompt: ui.NewConfirm("Sure?"), reply: reply})
	if !strings.Contains(m.View(), "Sure?") {
		t.Error("prompt not shown")
	}
	m, _ = press(t, m, "y")
	if m.prompt != nil {
		t.Error("prompt should close after an answer")
	}
	if r := <-reply; !r.Confirmed {
		t.Errorf("reply = %+v, want confirmed", r)
	}
}

func TestView_ShowsRows(t *testing.T) {
	m, _ := newTestModel(t, "alpha.txt")
	out := m.View()
	if !strings.Contains(out, "alpha.txt") {
		t.Errorf("View() missing row:\n%s", out)
	}
	m.showHelp = true
	if !strings.Contains(m.View(), "Keys") {
		t.Error("help overlay missing")
	}
}
