// Package selection tracks marked rows and the shared clipboard.
package selection

import (
	"sort"

	"github.com/marcus/sidetree/internal/tree"
)

// Set is a set of marked row indices. Indices refer to the current
// flattened list and must be cleared whenever rows are rebuilt.
type Set struct {
	idx map[int]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{idx: make(map[int]struct{})}
}

// Toggle flips the mark on row i.
func (s *Set) Toggle(i int) {
	if _, ok := s.idx[i]; ok {
		delete(s.idx, i)
		return
	}
	s.idx[i] = struct{}{}
}

// ToggleRange flips every row in [start, end] (either order) for which
// skip returns false.
func (s *Set) ToggleRange(start, end int, skip func(i int) bool) {
	if start > end {
		start, end = end, start
	}
	for i := start; i <= end; i++ {
		if skip != nil && skip(i) {
			continue
		}
		s.Toggle(i)
	}
}

// Has reports whether row i is marked.
func (s *Set) Has(i int) bool {
	_, ok := s.idx[i]
	return ok
}

// Len returns the number of marked rows.
func (s *Set) Len() int { return len(s.idx) }

// Empty reports whether nothing is marked.
func (s *Set) Empty() bool { return len(s.idx) == 0 }

// Clear unmarks everything.
func (s *Set) Clear() {
	clear(s.idx)
}

// ClearRoot unmarks rows that belong to rootIndex.
func (s *Set) ClearRoot(rows []*tree.Candidate, rootIndex int) {
	for i := range s.idx {
		if i < len(rows) && rows[i].RootIndex == rootIndex {
			delete(s.idx, i)
		}
	}
}

// Indices returns the marked rows in ascending order.
func (s *Set) Indices() []int {
	out := make([]int, 0, len(s.idx))
	for i := range s.idx {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Apply copies the marks onto the rows' IsSelected flags.
func (s *Set) Apply(rows []*tree.Candidate) {
	for i, c := range rows {
		c.IsSelected = s.Has(i)
	}
}

// ResolveTargets returns the rows an action operates on: the marked rows
// of rootIndex when anything is marked, otherwise the cursor row if it
// belongs to rootIndex.
func ResolveTargets(rows []*tree.Candidate, s *Set, cursor, rootIndex int) []*tree.Candidate {
	if s != nil && !s.Empty() {
		var out []*tree.Candidate
		for _, i := range s.Indices() {
			if i < len(rows) && rows[i].RootIndex == rootIndex {
				out = append(out, rows[i])
			}
		}
		return out
	}
	if cursor < 0 || cursor >= len(rows) || rows[cursor].RootIndex != rootIndex {
		return nil
	}
	return []*tree.Candidate{rows[cursor]}
}
