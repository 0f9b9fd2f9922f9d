package app

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/sidetree/internal/msg"
	"github.com/marcus/sidetree/internal/state"
)

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		m.resizeViewport()
		if p := m.activePane(); p != nil {
			p.scroll(m.treeHeight())
		}
		if m.showPreview && m.previewPath != "" {
			m.previewPath = ""
			cmd := m.schedulePreview()
			return m, cmd
		}
		return m, nil

	case TickMsg:
		m.ClearToast()
		return m, tickCmd()

	case msg.ToastMsg:
		if message.IsError {
			m.ShowError(message.Message, message.Duration)
		} else {
			m.ShowToast(message.Message, message.Duration)
		}
		return m, nil

	case actionDoneMsg:
		return m.applyDone(message)

	case promptMsg:
		m.prompt = message.prompt
		m.promptReply = message.reply
		return m, nil

	case execMsg:
		done := message.done
		return m, tea.ExecProcess(message.cmd, func(err error) tea.Msg {
			done <- err
			return execDoneMsg{}
		})

	case changeMsg:
		cmds := []tea.Cmd{m.waitForChange()}
		if m.busy {
			m.pendingCheck = true
		} else {
			cmds = append(cmds, m.checkAll())
		}
		return m, tea.Batch(cmds...)

	case previewTickMsg:
		if message.seq != m.previewSeq {
			return m, nil
		}
		if p := m.activePane(); p != nil && p.cursor < len(p.lines) {
			cmd := m.loadPreview(p.lines[p.cursor])
			return m, cmd
		}
		return m, nil

	case previewMsg:
		if message.seq != m.previewSeq {
			return m, nil
		}
		if message.err != nil {
			m.viewport.SetContent(message.err.Error())
		} else {
			m.viewport.SetContent(message.content)
		}
		m.viewport.GotoTop()
		return m, nil
	}
	return m, nil
}

// applyDone takes over the views' output once an action finished.
func (m Model) applyDone(done actionDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	var cmds []tea.Cmd
	quit := false

	for _, s := range done.snapshots {
		p := m.paneByName(s.pane)
		if p == nil {
			continue
		}
		if s.written {
			p.lines = s.lines
		}
		p.cursor = min(s.cursor, max(len(p.lines)-1, 0))
		p.scroll(m.treeHeight())
		for _, t := range s.toasts {
			if t.isError {
				m.ShowError(t.text, errorDuration)
			} else {
				m.ShowToast(t.text, toastDuration)
			}
		}
		if s.preview != "" && p == m.activePane() {
			m.showPreview = true
			m.resizeViewport()
			m.previewPath = ""
		}
		quit = quit || s.quit
	}

	if quit {
		return m, m.quit()
	}
	if m.watcher != nil {
		m.watcher.Sync(done.dirs)
	}
	m.updateCursorInfo()
	cmds = append(cmds, m.schedulePreview())
	if m.pendingCheck {
		cmds = append(cmds, m.checkAll())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) paneByName(name string) *pane {
	for _, p := range m.panes {
		if p.name == name {
			return p
		}
	}
	return nil
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		res, cmd := m.prompt.Update(key)
		if res != nil {
			m.promptReply <- *res
			m.prompt = nil
			m.promptReply = nil
		}
		return m, cmd
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	b, ok := m.keymap.Handle(keyName(key))
	if !ok {
		return m, nil
	}
	if b.IsAction() {
		verb, args := b.Action()
		cmd := m.runAction(verb, args)
		return m, cmd
	}
	return m.runCommand(b.Command)
}

// runCommand executes a UI command.
func (m Model) runCommand(command string) (tea.Model, tea.Cmd) {
	p := m.activePane()
	var cmd tea.Cmd
	switch command {
	case "quit":
		cmd = m.quit()
	case "cursor-down":
		cmd = m.moveCursor(1)
	case "cursor-up":
		cmd = m.moveCursor(-1)
	case "cursor-top":
		cmd = m.setCursor(0)
	case "cursor-bottom":
		cmd = m.setCursor(len(p.lines) - 1)
	case "page-down":
		cmd = m.moveCursor(m.treeHeight() / 2)
	case "page-up":
		cmd = m.moveCursor(-m.treeHeight() / 2)

	case "visual":
		if m.visualStart < 0 {
			m.visualStart = p.cursor
			cmd = msg.ShowToast("-- VISUAL --", toastDuration)
			break
		}
		start := m.visualStart
		m.visualStart = -1
		cmd = m.runAction("toggle_select_visual", []string{strconv.Itoa(start), strconv.Itoa(p.cursor)})

	case "next-view":
		if len(m.panes) > 1 {
			m.active = (m.active + 1) % len(m.panes)
			m.visualStart = -1
			m.updateCursorInfo()
			cmd = m.schedulePreview()
		}
	case "new-view":
		dir := "."
		if p.cursor < len(p.lines) {
			l := p.lines[p.cursor]
			dir = l.Path
			if !l.IsDirectory {
				dir = parentDir(l.Path)
			}
		}
		np, err := m.addPane(m.cfg.Browser.BufferName, true)
		if err != nil {
			cmd = msg.ShowError(err.Error(), errorDuration)
			break
		}
		m.busy = true
		cmd = m.initPane(np, []string{dir})
	case "close-view":
		if len(m.panes) == 1 {
			cmd = m.quit()
			break
		}
		m.manager.Close(p.name)
		m.panes = append(m.panes[:m.active], m.panes[m.active+1:]...)
		m.active = min(m.active, len(m.panes)-1)
		m.updateCursorInfo()

	case "toggle-preview":
		m.showPreview = !m.showPreview
		m.previewPath = ""
		m.resizeViewport()
		if err := state.SetShowPreview(m.showPreview); err != nil {
			m.logger.Warn("save state failed", "err", err)
		}
		cmd = m.schedulePreview()
	case "shrink-tree", "grow-tree":
		step := 5
		if command == "shrink-tree" {
			step = -5
		}
		m.treeWidth = min(max(m.treeWidth+step, 20), 80)
		m.resizeViewport()
		if err := state.SetTreeWidth(m.treeWidth); err != nil {
			m.logger.Warn("save state failed", "err", err)
		}
	case "help":
		m.showHelp = true
	}
	return m, cmd
}

// quit remembers the first view's root and stops the program.
func (m *Model) quit() tea.Cmd {
	if len(m.panes) > 0 {
		if dirs := m.panes[0].view.RootDirs(); len(dirs) > 0 {
			if err := state.SetLastDirectory(dirs[0]); err != nil {
				m.logger.Warn("save state failed", "err", err)
			}
		}
	}
	return tea.Quit
}
