// Package tree holds the flattened tree of rows shown by a view and the
// per-root state that decides which directories are open.
package tree

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/marcus/sidetree/internal/sorter"
	"github.com/marcus/sidetree/internal/source"
)

// Candidate is one visible row.
type Candidate struct {
	Name         string
	Path         string
	IsDirectory  bool
	Level        int
	IsOpenedTree bool
	IsRoot       bool
	IsSelected   bool
	RootIndex    int

	Size    int64
	ModTime time.Time
}

// DefaultIgnoredGlobs hides dotfiles.
var DefaultIgnoredGlobs = []string{".*"}

// Root is one top-level directory of a view.
type Root struct {
	Index            int
	CurrentDirectory string
	SortMethod       string
	IgnoredGlobs     []string
	ShowIgnored      bool

	// FilteredGlobs, when set, limits files to those matching one glob.
	// Directories are never filtered.
	FilteredGlobs []string

	// CursorHistory maps a directory to the last path the cursor was on
	// inside it.
	CursorHistory map[string]string

	// OpenedPaths are directories explicitly opened under CurrentDirectory.
	OpenedPaths map[string]bool

	Source  source.CandidateSource
	ModTime time.Time
}

// RootOptions configures a new root.
type RootOptions struct {
	SortMethod   string
	IgnoredGlobs []string
	ShowIgnored  bool
}

func newRoot(index int, src source.CandidateSource, dir string, opts RootOptions) *Root {
	r := &Root{
		Index:            index,
		CurrentDirectory: filepath.Clean(dir),
		SortMethod:       opts.SortMethod,
		IgnoredGlobs:     opts.IgnoredGlobs,
		ShowIgnored:      opts.ShowIgnored,
		CursorHistory:    make(map[string]string),
		OpenedPaths:      make(map[string]bool),
		Source:           src,
	}
	if r.SortMethod == "" {
		r.SortMethod = sorter.Default
	}
	if r.IgnoredGlobs == nil {
		r.IgnoredGlobs = append([]string(nil), DefaultIgnoredGlobs...)
	}
	return r
}

// Ignored reports whether a base name matches one of the root's globs.
func (r *Root) Ignored(name string) bool {
	name = strings.TrimSuffix(name, "/")
	for _, g := range r.IgnoredGlobs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// Filtered reports whether an entry is hidden by FilteredGlobs.
func (r *Root) Filtered(name string, isDir bool) bool {
	if isDir || len(r.FilteredGlobs) == 0 {
		return false
	}
	for _, g := range r.FilteredGlobs {
		if ok, _ := filepath.Match(g, name); ok {
			return false
		}
	}
	return true
}

// Contains reports whether path is CurrentDirectory or below it.
func (r *Root) Contains(path string) bool {
	return isWithin(r.CurrentDirectory, path)
}

// Opened returns the opened paths that still exist, in sorted order.
func (r *Root) Opened() []string {
	r.pruneOpened()
	out := make([]string, 0, len(r.OpenedPaths))
	for p := range r.OpenedPaths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// pruneOpened forgets opened paths outside the root and directories that
// no longer exist.
func (r *Root) pruneOpened() {
	for p := range r.OpenedPaths {
		if p == r.CurrentDirectory || !r.Contains(p) || !r.Source.RootDescriptor(p).Readable {
			delete(r.OpenedPaths, p)
		}
	}
}

func isWithin(dir, path string) bool {
	if dir == path {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
