package tree

import (
	"errors"
	"path/filepath"
	"slices"

	"github.com/marcus/sidetree/internal/sorter"
	"github.com/marcus/sidetree/internal/source"
)

const (
	// DefaultDepthLimit is the depth used for "recursive" expansion.
	DefaultDepthLimit = 20

	// MaxDepth caps how deep rows can nest regardless of requested depth.
	MaxDepth = 64
)

// Model is the flattened list of rows across all roots of a view. Each
// root owns one contiguous block starting with its root row, and blocks
// are ordered by root index.
type Model struct {
	roots []*Root
	rows  []*Candidate
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddRoot appends a root for dir. Its rows appear after the next Rebuild.
func (m *Model) AddRoot(src source.CandidateSource, dir string, opts RootOptions) *Root {
	r := newRoot(len(m.roots), src, dir, opts)
	m.roots = append(m.roots, r)
	return r
}

// Roots returns all roots in index order.
func (m *Model) Roots() []*Root { return m.roots }

// Root returns the root with index i, or nil.
func (m *Model) Root(i int) *Root {
	if i < 0 || i >= len(m.roots) {
		return nil
	}
	return m.roots[i]
}

// Rows returns the flattened list. Callers must not modify it.
func (m *Model) Rows() []*Candidate { return m.rows }

// Len returns the number of rows.
func (m *Model) Len() int { return len(m.rows) }

// At returns row i, or nil when out of range.
func (m *Model) At(i int) *Candidate {
	if i < 0 || i >= len(m.rows) {
		return nil
	}
	return m.rows[i]
}

// IndexOf returns the row index of path within a root, or -1.
func (m *Model) IndexOf(rootIndex int, path string) int {
	path = filepath.Clean(path)
	for i, c := range m.rows {
		if c.RootIndex == rootIndex && c.Path == path {
			return i
		}
	}
	return -1
}

// Parent returns the index of row i's parent row, or -1 for root rows.
func (m *Model) Parent(i int) int {
	c := m.At(i)
	if c == nil || c.IsRoot {
		return -1
	}
	for j := i - 1; j >= 0; j-- {
		if m.rows[j].Level < c.Level {
			return j
		}
	}
	return -1
}

// block returns the [start, end) range of a root's rows.
func (m *Model) block(rootIndex int) (int, int) {
	start := -1
	for i, c := range m.rows {
		if c.RootIndex != rootIndex {
			if start >= 0 {
				return start, i
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start < 0 {
		// Not built yet: insert before the first later root.
		for i, c := range m.rows {
			if c.RootIndex > rootIndex {
				return i, i
			}
		}
		return len(m.rows), len(m.rows)
	}
	return start, len(m.rows)
}

// Rebuild recomputes a root's rows from its CurrentDirectory and
// OpenedPaths. Listing failures are returned joined; the affected rows
// stay in place with no children.
func (m *Model) Rebuild(rootIndex int) error {
	r := m.Root(rootIndex)
	if r == nil {
		return nil
	}
	r.pruneOpened()

	desc := r.Source.RootDescriptor(r.CurrentDirectory)
	r.ModTime = desc.ModTime
	rootRow := &Candidate{
		Name:        desc.Name,
		Path:        r.CurrentDirectory,
		IsDirectory: true,
		IsRoot:      true,
		RootIndex:   r.Index,
		Size:        desc.Size,
		ModTime:     desc.ModTime,
	}

	ancestors := map[string]bool{realPath(r.CurrentDirectory): true}
	kids, err := m.children(r, r.CurrentDirectory, 1, 0, ancestors)

	block := make([]*Candidate, 0, len(kids)+1)
	block = append(block, rootRow)
	block = append(block, kids...)

	start, end := m.block(rootIndex)
	m.rows = slices.Replace(m.rows, start, end, block...)
	return err
}

// Stale reports whether a root directory or any open directory row has
// changed on disk since it was listed.
func (m *Model) Stale() bool {
	for _, c := range m.rows {
		if !c.IsRoot && !c.IsOpenedTree {
			continue
		}
		r := m.Root(c.RootIndex)
		if r == nil {
			continue
		}
		listed := c.ModTime
		if c.IsRoot {
			listed = r.ModTime
		}
		if !r.Source.RootDescriptor(c.Path).ModTime.Equal(listed) {
			return true
		}
	}
	return false
}

// RebuildAll rebuilds every root.
func (m *Model) RebuildAll() error {
	var errs []error
	for _, r := range m.roots {
		if err := m.Rebuild(r.Index); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChangeDirectory points a root at dir, forgets opened paths outside it,
// and rebuilds the root.
func (m *Model) ChangeDirectory(rootIndex int, dir string) error {
	r := m.Root(rootIndex)
	if r == nil {
		return nil
	}
	r.CurrentDirectory = filepath.Clean(dir)
	return m.Rebuild(rootIndex)
}

// Expand opens the directory at path and splices its children in below
// it. depth > 0 also opens every descendant directory down to that many
// additional levels. Opening a file, an open directory, or a root row is
// a no-op. If listing fails the row stays open with no children and the
// error is returned.
func (m *Model) Expand(rootIndex int, path string, depth int) error {
	i := m.IndexOf(rootIndex, path)
	c := m.At(i)
	if c == nil || !c.IsDirectory || c.IsRoot {
		return nil
	}
	if c.IsOpenedTree {
		if depth <= 0 {
			return nil
		}
		m.Collapse(rootIndex, path)
	}
	r := m.roots[rootIndex]

	c.IsOpenedTree = true
	r.OpenedPaths[c.Path] = true

	kids, err := m.children(r, c.Path, c.Level+1, depth, m.ancestors(r, c.Path))
	m.rows = slices.Insert(m.rows, i+1, kids...)
	return err
}

// Collapse closes the directory at path, removing every deeper row below
// it. Descendant entries of OpenedPaths are kept so a later Expand
// restores them.
func (m *Model) Collapse(rootIndex int, path string) {
	i := m.IndexOf(rootIndex, path)
	c := m.At(i)
	if c == nil || !c.IsOpenedTree || c.IsRoot {
		return
	}
	end := i + 1
	for end < len(m.rows) && m.rows[end].Level > c.Level {
		end++
	}
	m.rows = slices.Delete(m.rows, i+1, end)
	c.IsOpenedTree = false
	delete(m.roots[rootIndex].OpenedPaths, c.Path)
}

// Toggle collapses an open directory and expands a closed one.
func (m *Model) Toggle(rootIndex int, path string) error {
	c := m.At(m.IndexOf(rootIndex, path))
	if c == nil {
		return nil
	}
	if c.IsOpenedTree {
		m.Collapse(rootIndex, path)
		return nil
	}
	return m.Expand(rootIndex, path, 0)
}

// Reveal expands every ancestor of path below the root's directory and
// returns the row index of path, or -1 if it is not visible.
func (m *Model) Reveal(rootIndex int, path string) (int, error) {
	path = filepath.Clean(path)
	if i := m.IndexOf(rootIndex, path); i >= 0 {
		return i, nil
	}
	r := m.Root(rootIndex)
	if r == nil || !r.Contains(path) {
		return -1, nil
	}

	var chain []string
	for dir := filepath.Dir(path); dir != r.CurrentDirectory; dir = filepath.Dir(dir) {
		chain = append(chain, dir)
		if dir == filepath.Dir(dir) {
			return -1, nil
		}
	}
	slices.Reverse(chain)
	for _, dir := range chain {
		c := m.At(m.IndexOf(rootIndex, dir))
		if c == nil {
			return -1, nil
		}
		if !c.IsOpenedTree {
			if err := m.Expand(rootIndex, dir, 0); err != nil {
				return -1, err
			}
		}
	}
	return m.IndexOf(rootIndex, path), nil
}

// children lists dir and materializes its rows. Child directories that
// are in OpenedPaths, or within depth, are opened too. ancestors holds
// resolved paths of the chain being expanded and stops symlink cycles.
func (m *Model) children(r *Root, dir string, level, depth int, ancestors map[string]bool) ([]*Candidate, error) {
	entries, err := r.Source.ListChildren(dir)
	if err != nil {
		return nil, err
	}

	visible := entries[:0]
	for _, e := range entries {
		if !r.ShowIgnored && r.Ignored(e.Name) {
			continue
		}
		if r.Filtered(e.Name, e.IsDir) {
			continue
		}
		visible = append(visible, e)
	}
	visible = sorter.Sort(r.SortMethod, visible)

	var (
		out  []*Candidate
		errs []error
	)
	for _, e := range visible {
		c := &Candidate{
			Name:        e.Name,
			Path:        filepath.Clean(e.Path),
			IsDirectory: e.IsDir,
			Level:       level,
			RootIndex:   r.Index,
			Size:        e.Size,
			ModTime:     e.ModTime,
		}
		out = append(out, c)

		if !c.IsDirectory || level >= MaxDepth {
			continue
		}
		if depth <= 0 && !r.OpenedPaths[c.Path] {
			continue
		}
		resolved := realPath(c.Path)
		if ancestors[resolved] {
			continue
		}

		c.IsOpenedTree = true
		r.OpenedPaths[c.Path] = true
		ancestors[resolved] = true
		sub, err := m.children(r, c.Path, level+1, max(depth-1, 0), ancestors)
		delete(ancestors, resolved)
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, sub...)
	}
	return out, errors.Join(errs...)
}

// ancestors returns the resolved paths from the root directory down to
// path inclusive.
func (m *Model) ancestors(r *Root, path string) map[string]bool {
	set := make(map[string]bool)
	for dir := path; ; dir = filepath.Dir(dir) {
		set[realPath(dir)] = true
		if dir == r.CurrentDirectory || dir == filepath.Dir(dir) {
			break
		}
	}
	return set
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
