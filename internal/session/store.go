// Package session persists named sessions and directory history.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Version is written into every session file.
const Version = "1.0"

// Session remembers which directories were open under a path.
type Session struct {
	Name             string   `json:"name"`
	Path             string   `json:"path"`
	OpenedCandidates []string `json:"openedCandidates"`
}

type fileFormat struct {
	Version  string             `json:"version"`
	Sessions map[string]Session `json:"sessions"`
}

// Store holds sessions keyed by path. A Store with an empty file path
// keeps sessions in memory only.
type Store struct {
	mu       sync.RWMutex
	path     string
	sessions map[string]Session
}

// NewStore creates a store backed by path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path, sessions: make(map[string]Session)}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory sessions with the file contents. A missing
// file leaves the store empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]Session)
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	for p, sess := range f.Sessions {
		s.sessions[p] = sess
	}
	return nil
}

// Save writes all sessions to the backing file.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileFormat{Version: Version, Sessions: s.sessions}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Add creates or updates the session for path. An existing session keeps
// its name.
func (s *Store) Add(path string, opened []string) (Session, bool) {
	path = trimSlash(path)
	opened = append([]string(nil), opened...)
	sort.Strings(opened)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, existed := s.sessions[path]
	if !existed {
		sess = Session{Name: filepath.Base(path), Path: path}
	}
	sess.OpenedCandidates = opened
	s.sessions[path] = sess
	return sess, !existed
}

// Delete removes the session for path and reports whether it existed.
func (s *Store) Delete(path string) bool {
	path = trimSlash(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[path]; !ok {
		return false
	}
	delete(s.sessions, path)
	return true
}

// Get returns the session for path.
func (s *Store) Get(path string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[trimSlash(path)]
	return sess, ok
}

// List returns every session ordered by path.
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func trimSlash(p string) string {
	if len(p) > 1 {
		return strings.TrimRight(p, "/")
	}
	return p
}
