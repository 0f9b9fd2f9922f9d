package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Browser.Sort != "filename" {
		t.Errorf("got sort %q, want 'filename'", cfg.Browser.Sort)
	}
	if !reflect.DeepEqual(cfg.Browser.IgnoredGlobs, []string{".*"}) {
		t.Errorf("got ignoredGlobs %v", cfg.Browser.IgnoredGlobs)
	}
	if cfg.Browser.RecursiveDepth != 20 {
		t.Errorf("got recursiveDepth %d, want 20", cfg.Browser.RecursiveDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.json")
	if err != nil {
		t.Errorf("should not error on missing file: %v", err)
	}
	if cfg == nil {
		t.Error("should return default config")
	}
}

func TestLoadFrom_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := []byte(`{
		"browser": {
			"sort": "extension:Time",
			"showIgnoredFiles": true,
			"ignoredGlobs": ["*.o", ".git"],
			"recursiveDepth": 0
		},
		"preview": {
			"helper": ["chafa", "%"],
			"debounce": "1s"
		},
		"keymap": {
			"overrides": {"ctrl+o": "open vsplit"}
		},
		"ui": {
			"showFooter": false
		}
	}`)

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Browser.Sort != "extension:Time" {
		t.Errorf("got sort %q", cfg.Browser.Sort)
	}
	if !cfg.Browser.ShowIgnoredFiles {
		t.Error("showIgnoredFiles should be true")
	}
	if !reflect.DeepEqual(cfg.Browser.IgnoredGlobs, []string{"*.o", ".git"}) {
		t.Errorf("got ignoredGlobs %v", cfg.Browser.IgnoredGlobs)
	}
	// Zero depth is corrected by validation.
	if cfg.Browser.RecursiveDepth != 20 {
		t.Errorf("got recursiveDepth %d, want 20", cfg.Browser.RecursiveDepth)
	}
	if cfg.Preview.Debounce != time.Second {
		t.Errorf("got debounce %v, want 1s", cfg.Preview.Debounce)
	}
	if cfg.Keymap.Overrides["ctrl+o"] != "open vsplit" {
		t.Errorf("got overrides %v", cfg.Keymap.Overrides)
	}
	if cfg.UI.ShowFooter {
		t.Error("showFooter should be false")
	}
	// Default values should still be present
	if cfg.Browser.Columns != "mark:indent:icon:filename" {
		t.Errorf("columns default lost: %q", cfg.Browser.Columns)
	}
	if cfg.UI.MarkdownStyle != "dark" {
		t.Errorf("markdownStyle default lost: %q", cfg.UI.MarkdownStyle)
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{invalid`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("should error on invalid JSON")
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"sort", `{"browser": {"sort": "colour"}}`},
		{"columns", `{"browser": {"columns": "filename:bogus"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input  string
		expect string
	}{
		{"~/.config/sidetree", filepath.Join(home, ".config/sidetree")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tc := range tests {
		got := ExpandPath(tc.input)
		if got != tc.expect {
			t.Errorf("ExpandPath(%q) = %q, want %q", tc.input, got, tc.expect)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Browser.RecursiveDepth = 1000
	cfg.Preview.MaxBytes = -1
	cfg.Browser.BufferName = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	if cfg.Browser.RecursiveDepth != 64 {
		t.Errorf("got depth %d, want clamp to 64", cfg.Browser.RecursiveDepth)
	}
	if cfg.Preview.MaxBytes <= 0 {
		t.Errorf("maxBytes not corrected: %d", cfg.Preview.MaxBytes)
	}
	if cfg.Browser.BufferName != "default" {
		t.Errorf("bufferName = %q", cfg.Browser.BufferName)
	}
}
