package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSave_PreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	initial := []byte(`{
  "bookmarks": ["~/src", "/etc"],
  "customKey": "should survive",
  "browser": {"sort": "size"}
}`)
	if err := os.WriteFile(path, initial, 0644); err != nil {
		t.Fatal(err)
	}

	SetTestConfigPath(path)
	defer ResetTestConfigPath()

	cfg := Default()
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}
	if _, ok := raw["bookmarks"]; !ok {
		t.Error("Save() deleted 'bookmarks' key from config.json")
	}
	if _, ok := raw["customKey"]; !ok {
		t.Error("Save() deleted 'customKey' from config.json")
	}

	// Managed keys are replaced.
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Browser.Sort != "filename" {
		t.Errorf("sort = %q, want saved default", loaded.Browser.Sort)
	}
}

func TestSaveTo_RoundTripsDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Preview.Debounce = 750 * time.Millisecond
	cfg.UI.ShowFooter = false
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Preview.Debounce != 750*time.Millisecond {
		t.Errorf("debounce = %v", loaded.Preview.Debounce)
	}
	if loaded.UI.ShowFooter {
		t.Error("showFooter should stay false")
	}
}
