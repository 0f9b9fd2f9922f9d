package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/sidetree/internal/keymap"
	"github.com/marcus/sidetree/internal/styles"
	"github.com/marcus/sidetree/internal/ui"
	"github.com/marcus/sidetree/internal/view"
)

const (
	minWidth  = 20
	minHeight = 4
)

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.width < minWidth || m.height < minHeight {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.Muted.Render(fmt.Sprintf("Terminal too small (%dx%d)", m.width, m.height)))
	}

	var b strings.Builder
	if len(m.panes) > 1 {
		b.WriteString(m.renderTabs())
		b.WriteString("\n")
	}

	height := m.treeHeight()
	tree := m.renderTree(m.treeWidthCells(), height)
	if m.showPreview {
		tree = lipgloss.JoinHorizontal(lipgloss.Top, tree, m.renderPreview(height))
	}
	b.WriteString(tree)

	if m.showFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	bg := b.String()
	switch {
	case m.prompt != nil:
		return ui.Overlay(bg, m.prompt.View(m.width), m.width, m.height)
	case m.showHelp:
		return ui.Overlay(bg, m.renderHelp(), m.width, m.height)
	}
	return bg
}

// treeWidthCells is the width of the tree pane in cells.
func (m Model) treeWidthCells() int {
	if !m.showPreview {
		return m.width
	}
	return max(m.width*m.treeWidth/100, 10)
}

func (m Model) previewWidth() int {
	return max(m.width-m.treeWidthCells(), 4)
}

func (m *Model) resizeViewport() {
	// Border takes two cells each way, padding one each side.
	m.viewport.Width = max(m.previewWidth()-4, 1)
	m.viewport.Height = max(m.treeHeight()-2, 1)
}

func (m Model) renderTabs() string {
	var tabs []string
	for i, p := range m.panes {
		if i == m.active {
			tabs = append(tabs, styles.ChoiceActive.Render(p.name))
		} else {
			tabs = append(tabs, styles.ChoiceInactive.Render(p.name))
		}
	}
	return ui.Fit(lipgloss.JoinHorizontal(lipgloss.Top, tabs...), m.width)
}

func (m Model) renderTree(width, height int) string {
	p := m.activePane()
	rows := make([]string, height)
	for i := range rows {
		row := p.offset + i
		if row >= len(p.lines) {
			rows[i] = strings.Repeat(" ", width)
			continue
		}
		rows[i] = m.renderLine(p.lines[row], row, width)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderLine(l view.Line, row, width int) string {
	style := styles.RowFile
	switch {
	case l.IsSelected:
		style = styles.RowSelected
	case l.IsRoot:
		style = styles.RowRoot
	case l.IsDirectory:
		style = styles.RowDirectory
	}
	p := m.activePane()
	inVisual := m.visualStart >= 0 && row >= min(m.visualStart, p.cursor) && row <= max(m.visualStart, p.cursor)
	if row == p.cursor || inVisual {
		style = style.Inherit(styles.RowCursor)
	}
	return style.Render(ui.Fit(l.Text, width))
}

func (m Model) renderPreview(height int) string {
	return styles.PanelInactive.
		Width(m.previewWidth() - 2).
		Height(height - 2).
		Render(m.viewport.View())
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		if m.statusIsError {
			return ui.Fit(styles.ToastError.Render(m.statusMsg), m.width)
		}
		return ui.Fit(styles.ToastSuccess.Render(m.statusMsg), m.width)
	}
	text := m.cursorInfo
	if pending := m.keymap.Pending(); pending != "" {
		text = pending + "-  " + text
	}
	if m.busy {
		text = "… " + text
	}
	return styles.Footer.Render(ui.Fit(text, m.width))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Keys"))
	b.WriteString("\n\n")
	bindings := m.keymap.Bindings()
	rows := max(m.height-8, 1)
	for i, bd := range bindings {
		if i >= rows {
			b.WriteString(styles.Muted.Render(fmt.Sprintf("… %d more", len(bindings)-rows)))
			break
		}
		b.WriteString(styles.KeyHint.Render(displayKey(bd.Key)))
		b.WriteString(" ")
		b.WriteString(describe(bd))
		b.WriteString("\n")
	}
	return styles.ModalBox.Render(strings.TrimRight(b.String(), "\n"))
}

func displayKey(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func describe(b keymap.Binding) string {
	if b.IsAction() {
		verb, args := b.Action()
		return strings.TrimSpace(verb + " " + strings.Join(args, " "))
	}
	return keymap.UICommands[b.Command]
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
