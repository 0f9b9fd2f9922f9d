// Package ui provides the modal prompt and compositing helpers of the TUI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// dimStyle greys out the screen behind a prompt. Existing colors are
// stripped first since faint does not combine with them in most terminals.
var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

func maxLineWidth(lines []string) int {
	w := 0
	for _, line := range lines {
		w = max(w, ansi.StringWidth(line))
	}
	return w
}

func dimLine(s string) string {
	return dimStyle.Render(ansi.Strip(s))
}

// compositeRow places box over bg starting at column x.
func compositeRow(bg, box string, x, boxWidth, totalWidth int) string {
	var b strings.Builder
	plain := ansi.Strip(bg)
	bgWidth := ansi.StringWidth(plain)

	if x > 0 {
		left := ansi.Truncate(plain, x, "")
		b.WriteString(dimStyle.Render(left))
		if w := ansi.StringWidth(left); w < x {
			b.WriteString(strings.Repeat(" ", x-w))
		}
	}
	b.WriteString(box)

	if right := x + boxWidth; right < totalWidth && bgWidth > right {
		b.WriteString(dimStyle.Render(ansi.Cut(plain, right, bgWidth)))
	}
	return b.String()
}

// Overlay centers box over a dimmed background of width x height cells.
func Overlay(background, box string, width, height int) string {
	bgLines := strings.Split(background, "\n")
	boxLines := strings.Split(box, "\n")
	boxWidth := maxLineWidth(boxLines)
	x := max((width-boxWidth)/2, 0)
	y := max((height-len(boxLines))/2, 0)

	out := make([]string, 0, height)
	for row := 0; row < height; row++ {
		bg := ""
		if row < len(bgLines) {
			bg = bgLines[row]
		}
		if i := row - y; i >= 0 && i < len(boxLines) {
			out = append(out, compositeRow(bg, boxLines[i], x, boxWidth, width))
		} else {
			out = append(out, dimLine(bg))
		}
	}
	return strings.Join(out, "\n")
}

// Fit truncates s to width cells with an ellipsis and pads it to width.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}
