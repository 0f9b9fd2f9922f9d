package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// withDir points the package at a temp dir and restores it afterwards.
func withDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalPath, originalCurrent := path, current
	t.Cleanup(func() {
		path = originalPath
		current = originalCurrent
	})
	if err := InitWithDir(dir); err != nil {
		t.Fatalf("InitWithDir() failed: %v", err)
	}
	return dir
}

func TestInit_Defaults(t *testing.T) {
	withDir(t)
	if got := GetTreeWidth(); got != DefaultTreeWidth {
		t.Errorf("GetTreeWidth() = %d, want %d", got, DefaultTreeWidth)
	}
	if GetShowPreview() {
		t.Error("preview should default to hidden")
	}
	if GetLastDirectory() != "" {
		t.Errorf("GetLastDirectory() = %q", GetLastDirectory())
	}
}

func TestSetters_Persist(t *testing.T) {
	dir := withDir(t)

	if err := SetTreeWidth(55); err != nil {
		t.Fatal(err)
	}
	if err := SetShowPreview(true); err != nil {
		t.Fatal(err)
	}
	if err := SetLastDirectory("/tmp/work"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	var saved State
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.TreeWidth != 55 || !saved.ShowPreview || saved.LastDirectory != "/tmp/work" {
		t.Errorf("saved state = %+v", saved)
	}

	if err := Load(); err != nil {
		t.Fatal(err)
	}
	if GetTreeWidth() != 55 || !GetShowPreview() {
		t.Errorf("reloaded state = %+v", *current)
	}
}

func TestGetTreeWidth_Clamps(t *testing.T) {
	withDir(t)
	tests := []struct{ set, want int }{
		{5, 20},
		{95, 80},
		{50, 50},
	}
	for _, tt := range tests {
		update(func(s *State) { s.TreeWidth = tt.set })
		if got := GetTreeWidth(); got != tt.want {
			t.Errorf("TreeWidth %d: got %d, want %d", tt.set, got, tt.want)
		}
	}
}

func TestLoad_Corrupt(t *testing.T) {
	dir := withDir(t)
	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Load(); err == nil {
		t.Error("Load() of corrupt file should fail")
	}
}
