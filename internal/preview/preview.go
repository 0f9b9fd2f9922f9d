// Package preview renders file contents for the preview pane.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"

	"github.com/marcus/sidetree/internal/column"
)

// Renderer turns files into terminal text. It is safe for concurrent use.
type Renderer struct {
	syntaxTheme   string
	markdownStyle string
	formatter     string
	maxBytes      int

	mu sync.Mutex
	// Markdown renderers keyed by wrap width.
	md map[int]*glamour.TermRenderer
}

// New creates a renderer. maxBytes caps how much of a file is read.
func New(syntaxTheme, markdownStyle string, maxBytes int) *Renderer {
	if syntaxTheme == "" {
		syntaxTheme = "monokai"
	}
	if markdownStyle == "" {
		markdownStyle = "dark"
	}
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}
	return &Renderer{
		syntaxTheme:   syntaxTheme,
		markdownStyle: markdownStyle,
		formatter:     "terminal256",
		maxBytes:      maxBytes,
		md:            make(map[int]*glamour.TermRenderer),
	}
}

// SetFormatter selects the chroma formatter, e.g. "terminal16m".
func (r *Renderer) SetFormatter(name string) {
	if name != "" {
		r.formatter = name
	}
}

// Render returns the preview of path wrapped for width columns.
func (r *Renderer) Render(path string, width int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, int64(r.maxBytes)))
	if err != nil {
		return "", err
	}
	if IsBinary(data) {
		return fmt.Sprintf("binary file, %s", column.FormatSize(info.Size())), nil
	}

	text := string(data)
	var out string
	if IsMarkdown(path) {
		out = r.markdown(text, width)
	} else {
		out = r.highlight(path, text)
	}
	if info.Size() > int64(r.maxBytes) {
		out += fmt.Sprintf("\n… truncated at %s", column.FormatSize(int64(r.maxBytes)))
	}
	return out, nil
}

// IsMarkdown reports whether path looks like a markdown document.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return false
}

// IsBinary reports whether data contains a NUL byte in its first 8 KiB.
func IsBinary(data []byte) bool {
	if len(data) > 8192 {
		data = data[:8192]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func (r *Renderer) highlight(path, text string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get(r.syntaxTheme)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get(r.formatter)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return text
	}
	return buf.String()
}

func (r *Renderer) markdown(text string, width int) string {
	if width < 10 {
		width = 10
	}
	r.mu.Lock()
	tr := r.md[width]
	if tr == nil {
		var err error
		// A fixed style avoids the terminal background query of auto style.
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.markdownStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			r.mu.Unlock()
			return text
		}
		r.md[width] = tr
	}
	r.mu.Unlock()

	out, err := tr.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
