package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/sidetree"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary. Pointer fields tell an
// explicit false or zero apart from a missing key.
type rawConfig struct {
	Browser rawBrowserConfig `json:"browser"`
	Session SessionConfig    `json:"session"`
	Preview rawPreviewConfig `json:"preview"`
	Keymap  KeymapConfig     `json:"keymap"`
	UI      rawUIConfig      `json:"ui"`
}

type rawBrowserConfig struct {
	Sort             string   `json:"sort"`
	ShowIgnoredFiles *bool    `json:"showIgnoredFiles"`
	IgnoredGlobs     []string `json:"ignoredGlobs"`
	Columns          string   `json:"columns"`
	BufferName       string   `json:"bufferName"`
	NewBuffer        *bool    `json:"newBuffer"`
	RecursiveDepth   *int     `json:"recursiveDepth"`
	Editor           string   `json:"editor"`
}

type rawPreviewConfig struct {
	Helper   []string `json:"helper"`
	MaxBytes *int     `json:"maxBytes"`
	Debounce string   `json:"debounce"`
}

type rawUIConfig struct {
	ShowFooter    *bool  `json:"showFooter"`
	SyntaxTheme   string `json:"syntaxTheme"`
	MarkdownStyle string `json:"markdownStyle"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/sidetree/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			return finish(cfg)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return nil, err
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	mergeConfig(cfg, &raw)
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.Session.File = ExpandPath(cfg.Session.File)
	cfg.Session.HistoryDB = ExpandPath(cfg.Session.HistoryDB)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Browser
	b := raw.Browser
	if b.Sort != "" {
		cfg.Browser.Sort = b.Sort
	}
	if b.ShowIgnoredFiles != nil {
		cfg.Browser.ShowIgnoredFiles = *b.ShowIgnoredFiles
	}
	if b.IgnoredGlobs != nil {
		cfg.Browser.IgnoredGlobs = b.IgnoredGlobs
	}
	if b.Columns != "" {
		cfg.Browser.Columns = b.Columns
	}
	if b.BufferName != "" {
		cfg.Browser.BufferName = b.BufferName
	}
	if b.NewBuffer != nil {
		cfg.Browser.NewBuffer = *b.NewBuffer
	}
	if b.RecursiveDepth != nil {
		cfg.Browser.RecursiveDepth = *b.RecursiveDepth
	}
	if b.Editor != "" {
		cfg.Browser.Editor = b.Editor
	}

	// Session
	if raw.Session.File != "" {
		cfg.Session.File = raw.Session.File
	}
	if raw.Session.HistoryDB != "" {
		cfg.Session.HistoryDB = raw.Session.HistoryDB
	}

	// Preview
	if raw.Preview.Helper != nil {
		cfg.Preview.Helper = raw.Preview.Helper
	}
	if raw.Preview.MaxBytes != nil {
		cfg.Preview.MaxBytes = *raw.Preview.MaxBytes
	}
	if raw.Preview.Debounce != "" {
		if d, err := time.ParseDuration(raw.Preview.Debounce); err == nil {
			cfg.Preview.Debounce = d
		}
	}

	// Keymap
	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.SyntaxTheme != "" {
		cfg.UI.SyntaxTheme = raw.UI.SyntaxTheme
	}
	if raw.UI.MarkdownStyle != "" {
		cfg.UI.MarkdownStyle = raw.UI.MarkdownStyle
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// testConfigPath overrides ConfigPath in tests.
var testConfigPath string

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// SetTestConfigPath points ConfigPath at path. Tests only.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the default ConfigPath.
func ResetTestConfigPath() { testConfigPath = "" }
