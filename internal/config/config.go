package config

import (
	"fmt"
	"time"

	"github.com/marcus/sidetree/internal/column"
	"github.com/marcus/sidetree/internal/sorter"
	"github.com/marcus/sidetree/internal/tree"
)

// Config is the root configuration structure.
type Config struct {
	Browser BrowserConfig `json:"browser"`
	Session SessionConfig `json:"session"`
	Preview PreviewConfig `json:"preview"`
	Keymap  KeymapConfig  `json:"keymap"`
	UI      UIConfig      `json:"ui"`
}

// BrowserConfig controls how roots are listed.
type BrowserConfig struct {
	Sort             string   `json:"sort"`             // colon-separated key chain, e.g. "extension:Time"
	ShowIgnoredFiles bool     `json:"showIgnoredFiles"` // show entries matching IgnoredGlobs
	IgnoredGlobs     []string `json:"ignoredGlobs"`
	Columns          string   `json:"columns"` // e.g. "mark:indent:icon:filename:size"
	BufferName       string   `json:"bufferName"`
	NewBuffer        bool     `json:"newBuffer"`
	RecursiveDepth   int      `json:"recursiveDepth"` // depth for open_tree recursive
	Editor           string   `json:"editor"`         // falls back to $EDITOR, then vim
}

// SessionConfig locates persisted state.
type SessionConfig struct {
	File      string `json:"file"`      // JSON session file
	HistoryDB string `json:"historyDB"` // SQLite directory history; empty keeps history in memory
}

// PreviewConfig configures the preview pane.
type PreviewConfig struct {
	// Helper previews images; "%" is replaced by the path.
	Helper   []string      `json:"helper"`
	MaxBytes int           `json:"maxBytes"`
	Debounce time.Duration `json:"debounce"` // file watcher debounce
}

// KeymapConfig holds key binding overrides, key -> "verb arg...".
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter    bool   `json:"showFooter"`
	SyntaxTheme   string `json:"syntaxTheme"`
	MarkdownStyle string `json:"markdownStyle"` // glamour standard style: dark, light, notty, or auto
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Sort:           sorter.Default,
			IgnoredGlobs:   append([]string(nil), tree.DefaultIgnoredGlobs...),
			Columns:        column.Default,
			BufferName:     "default",
			RecursiveDepth: tree.DefaultDepthLimit,
		},
		Session: SessionConfig{
			File:      "~/.config/sidetree/sessions.json",
			HistoryDB: "~/.config/sidetree/history.db",
		},
		Preview: PreviewConfig{
			MaxBytes: 512 * 1024,
			Debounce: 200 * time.Millisecond,
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			ShowFooter:    true,
			SyntaxTheme:   "monokai",
			MarkdownStyle: "dark",
		},
	}
}

// Validate checks the configuration for errors, correcting values that
// have a sensible fallback.
func (c *Config) Validate() error {
	if !sorter.Valid(c.Browser.Sort) {
		return fmt.Errorf("invalid sort method %q", c.Browser.Sort)
	}
	if _, err := column.Parse(c.Browser.Columns); err != nil {
		return fmt.Errorf("invalid columns: %w", err)
	}
	if c.Browser.RecursiveDepth <= 0 {
		c.Browser.RecursiveDepth = tree.DefaultDepthLimit
	}
	if c.Browser.RecursiveDepth > tree.MaxDepth {
		c.Browser.RecursiveDepth = tree.MaxDepth
	}
	if c.Browser.BufferName == "" {
		c.Browser.BufferName = "default"
	}
	if c.Preview.MaxBytes <= 0 {
		c.Preview.MaxBytes = 512 * 1024
	}
	if c.Preview.Debounce < 0 {
		c.Preview.Debounce = 200 * time.Millisecond
	}
	return nil
}
