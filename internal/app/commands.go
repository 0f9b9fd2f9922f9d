package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/sidetree/internal/view"
	"github.com/marcus/sidetree/internal/watcher"
)

const (
	toastDuration = 3 * time.Second
	errorDuration = 5 * time.Second
	previewDelay  = 80 * time.Millisecond
)

// Message types for tea.Cmd
type (
	// TickMsg is sent on each clock tick.
	TickMsg time.Time

	// actionDoneMsg carries what every view produced while an action ran.
	actionDoneMsg struct {
		snapshots []snapshot
		dirs      []string
		err       error
	}

	// changeMsg reports a directory changed on disk.
	changeMsg watcher.Event

	previewTickMsg struct{ seq int }

	previewMsg struct {
		seq     int
		path    string
		content string
		err     error
	}

	execDoneMsg struct{}
)

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// collect gathers every pane's output after an action.
func collect(panes []*pane, err error) actionDoneMsg {
	msg := actionDoneMsg{err: err}
	seen := make(map[string]bool)
	for _, p := range panes {
		msg.snapshots = append(msg.snapshots, p.host.take())
		for _, d := range p.view.WatchedDirs() {
			if !seen[d] {
				seen[d] = true
				msg.dirs = append(msg.dirs, d)
			}
		}
	}
	return msg
}

// initPane draws p's view on paths.
func (m *Model) initPane(p *pane, paths []string) tea.Cmd {
	panes := append([]*pane(nil), m.panes...)
	return func() tea.Msg {
		return collect(panes, p.view.Init(paths))
	}
}

// runAction dispatches verb in the active view.
func (m *Model) runAction(verb string, args []string) tea.Cmd {
	p := m.activePane()
	if p == nil {
		return nil
	}
	m.busy = true
	name, cursor := p.name, p.cursor
	mgr := m.manager
	panes := append([]*pane(nil), m.panes...)
	return func() tea.Msg {
		return collect(panes, mgr.Dispatch(name, verb, args, cursor))
	}
}

// checkAll asks every view whether its roots changed on disk.
func (m *Model) checkAll() tea.Cmd {
	m.busy = true
	m.pendingCheck = false
	panes := append([]*pane(nil), m.panes...)
	cursors := make([]int, len(panes))
	for i, p := range panes {
		cursors[i] = p.cursor
	}
	return func() tea.Msg {
		for i, p := range panes {
			// Errors reach the host as toasts.
			_ = p.view.DispatchAction("check_redraw", nil, cursors[i])
		}
		return collect(panes, nil)
	}
}

// waitForChange waits for the next watcher event.
func (m Model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	events := m.watcher.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return changeMsg(ev)
	}
}

// schedulePreview renders the cursor file after a short delay.
func (m *Model) schedulePreview() tea.Cmd {
	if !m.showPreview {
		return nil
	}
	p := m.activePane()
	if p == nil || p.cursor >= len(p.lines) {
		return nil
	}
	path := p.lines[p.cursor].Path
	if path == m.previewPath {
		return nil
	}
	m.previewSeq++
	seq := m.previewSeq
	return tea.Tick(previewDelay, func(time.Time) tea.Msg {
		return previewTickMsg{seq: seq}
	})
}

// loadPreview renders path for the preview pane.
func (m *Model) loadPreview(line view.Line) tea.Cmd {
	m.previewPath = line.Path
	seq, width := m.previewSeq, m.previewWidth()-2
	if line.IsDirectory {
		return func() tea.Msg {
			return previewMsg{seq: seq, path: line.Path, content: line.Path + "/\n\n(directory)"}
		}
	}
	r := m.preview
	return func() tea.Msg {
		content, err := r.Render(line.Path, width)
		return previewMsg{seq: seq, path: line.Path, content: content, err: err}
	}
}

// keyName normalizes a key for the keymap.
func keyName(msg tea.KeyMsg) string {
	if msg.Type == tea.KeySpace {
		return " "
	}
	return msg.String()
}
