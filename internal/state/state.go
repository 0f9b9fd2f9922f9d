// Package state persists UI preferences between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// DefaultTreeWidth is the tree pane width, in percent, when the preview
// pane is shown and nothing is saved.
const DefaultTreeWidth = 40

// State holds persistent user preferences.
type State struct {
	// Tree pane width as a percentage of the terminal, 0 = default.
	TreeWidth   int  `json:"treeWidth,omitempty"`
	ShowPreview bool `json:"showPreview,omitempty"`
	// LastDirectory is the root of the first view when the app quit.
	LastDirectory string `json:"lastDirectory,omitempty"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "sidetree"))
}

// InitWithDir loads state from a specified directory.
func InitWithDir(dir string) error {
	path = filepath.Join(dir, "state.json")
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, current)
}

// Save writes state to disk. Without a prior Init it does nothing.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetTreeWidth returns the saved tree pane width, clamped to 20..80.
func GetTreeWidth() int {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil || current.TreeWidth == 0 {
		return DefaultTreeWidth
	}
	return min(max(current.TreeWidth, 20), 80)
}

// SetTreeWidth saves the tree pane width.
func SetTreeWidth(width int) error {
	update(func(s *State) { s.TreeWidth = width })
	return Save()
}

// GetShowPreview reports whether the preview pane was open.
func GetShowPreview() bool {
	mu.RLock()
	defer mu.RUnlock()
	return current != nil && current.ShowPreview
}

// SetShowPreview saves the preview pane visibility.
func SetShowPreview(show bool) error {
	update(func(s *State) { s.ShowPreview = show })
	return Save()
}

// GetLastDirectory returns the directory saved at the last quit.
func GetLastDirectory() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return ""
	}
	return current.LastDirectory
}

// SetLastDirectory saves the directory to reopen.
func SetLastDirectory(dir string) error {
	update(func(s *State) { s.LastDirectory = dir })
	return Save()
}

func update(fn func(*State)) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = &State{}
	}
	fn(current)
}
