// Package column turns tree rows into text lines.
package column

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/marcus/sidetree/internal/sorter"
	"github.com/marcus/sidetree/internal/tree"
)

// Default is the column layout used when none is configured.
const Default = "mark:indent:icon:filename"

const (
	indentUnit       = "  "
	maxFilenameWidth = 80
	timeLayout       = "06-01-02 15:04"
)

// Column renders one cell of a row. Cells are concatenated, so a column
// carries its own leading spacing.
type Column interface {
	Name() string
	// Prepare sees every row before rendering and can size itself.
	Prepare(rows []*tree.Candidate)
	Render(c *tree.Candidate) string
}

// Parse builds the columns of a ":"-separated layout.
func Parse(layout string) ([]Column, error) {
	var cols []Column
	for _, name := range strings.Split(layout, ":") {
		if name == "" {
			continue
		}
		col, err := New(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns in %q", layout)
	}
	return cols, nil
}

// New returns the column called name.
func New(name string) (Column, error) {
	switch name {
	case "mark":
		return markColumn{}, nil
	case "indent":
		return indentColumn{}, nil
	case "icon":
		return iconColumn{}, nil
	case "filename":
		return &filenameColumn{}, nil
	case "type":
		return &typeColumn{}, nil
	case "size":
		return sizeColumn{}, nil
	case "time":
		return timeColumn{}, nil
	}
	return nil, fmt.Errorf("unknown column %q", name)
}

// Render produces one line per row.
func Render(cols []Column, rows []*tree.Candidate) []string {
	for _, col := range cols {
		col.Prepare(rows)
	}
	lines := make([]string, len(rows))
	var sb strings.Builder
	for i, c := range rows {
		sb.Reset()
		for _, col := range cols {
			sb.WriteString(col.Render(c))
		}
		lines[i] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}

type markColumn struct{}

func (markColumn) Name() string              { return "mark" }
func (markColumn) Prepare([]*tree.Candidate) {}
func (markColumn) Render(c *tree.Candidate) string {
	if c.IsSelected {
		return "*"
	}
	return " "
}

type indentColumn struct{}

func (indentColumn) Name() string              { return "indent" }
func (indentColumn) Prepare([]*tree.Candidate) {}
func (indentColumn) Render(c *tree.Candidate) string {
	if c.Level <= 0 {
		return ""
	}
	return strings.Repeat(indentUnit, c.Level-1)
}

type iconColumn struct{}

func (iconColumn) Name() string              { return "icon" }
func (iconColumn) Prepare([]*tree.Candidate) {}
func (iconColumn) Render(c *tree.Candidate) string {
	switch {
	case c.IsRoot:
		return ""
	case c.IsOpenedTree:
		return "- "
	case c.IsDirectory:
		return "+ "
	default:
		return "  "
	}
}

// filenameColumn pads names so later columns line up under indentation.
type filenameColumn struct {
	width int
}

func (*filenameColumn) Name() string { return "filename" }

func (f *filenameColumn) Prepare(rows []*tree.Candidate) {
	f.width = 0
	for _, c := range rows {
		w := indentWidth(c) + runewidth.StringWidth(c.Name)
		if w > f.width {
			f.width = w
		}
	}
	f.width = min(f.width, maxFilenameWidth)
}

func (f *filenameColumn) Render(c *tree.Candidate) string {
	avail := max(f.width-indentWidth(c), 1)
	name := c.Name
	if runewidth.StringWidth(name) > avail {
		name = runewidth.Truncate(name, avail, "…")
	}
	return runewidth.FillRight(name, avail)
}

func indentWidth(c *tree.Candidate) int {
	if c.Level <= 0 {
		return 0
	}
	return len(indentUnit) * (c.Level - 1)
}

type typeColumn struct {
	width int
}

func (*typeColumn) Name() string { return "type" }

func (t *typeColumn) Prepare(rows []*tree.Candidate) {
	t.width = 0
	for _, c := range rows {
		t.width = max(t.width, len(typeLabel(c)))
	}
}

func (t *typeColumn) Render(c *tree.Candidate) string {
	return " " + runewidth.FillRight(typeLabel(c), t.width)
}

func typeLabel(c *tree.Candidate) string {
	if c.IsDirectory {
		return "dir"
	}
	return strings.TrimPrefix(sorter.Extension(c.Name), ".")
}

type sizeColumn struct{}

func (sizeColumn) Name() string              { return "size" }
func (sizeColumn) Prepare([]*tree.Candidate) {}
func (sizeColumn) Render(c *tree.Candidate) string {
	if c.IsDirectory || c.Size < 0 {
		return " " + strings.Repeat(" ", 8)
	}
	return fmt.Sprintf(" %8s", FormatSize(c.Size))
}

type timeColumn struct{}

func (timeColumn) Name() string              { return "time" }
func (timeColumn) Prepare([]*tree.Candidate) {}
func (timeColumn) Render(c *tree.Candidate) string {
	if c.ModTime.IsZero() {
		return " " + strings.Repeat(" ", len(timeLayout))
	}
	return " " + c.ModTime.Format(timeLayout)
}

// FormatSize renders a byte count like "1.5KB".
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatTime renders t the way the time column does.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}
