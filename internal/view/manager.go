package view

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/marcus/sidetree/internal/selection"
	"github.com/marcus/sidetree/internal/session"
)

// Manager owns every view of a process and the clipboard they share.
type Manager struct {
	opts      Options
	clipboard *selection.Clipboard
	views     map[string]*View
	order     []string
}

// NewManager creates a manager whose views are built with opts.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore("")
	}
	if opts.History == nil {
		opts.History = session.NewMemoryHistory(0)
	}
	return &Manager{
		opts:      opts,
		clipboard: &selection.Clipboard{},
		views:     make(map[string]*View),
	}
}

// Clipboard returns the shared clipboard.
func (m *Manager) Clipboard() *selection.Clipboard { return m.clipboard }

// Get returns the view called name, creating it with host when it does
// not exist. newBuffer always creates a view, under a numbered name if
// name is taken. The returned name is the one the view is stored under.
func (m *Manager) Get(name string, host Host, newBuffer bool) (*View, string, error) {
	if v, ok := m.views[name]; ok && !newBuffer {
		return v, name, nil
	}
	if _, taken := m.views[name]; taken {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d", name, n)
			if _, ok := m.views[candidate]; !ok {
				name = candidate
				break
			}
		}
	}
	v, err := New(host, m.opts, m.clipboard)
	if err != nil {
		return nil, "", err
	}
	m.views[name] = v
	m.order = append(m.order, name)
	return v, name, nil
}

// View returns the view called name.
func (m *Manager) View(name string) (*View, bool) {
	v, ok := m.views[name]
	return v, ok
}

// Names returns view names in creation order.
func (m *Manager) Names() []string {
	return append([]string(nil), m.order...)
}

// Close drops a view and stops its job.
func (m *Manager) Close(name string) {
	v, ok := m.views[name]
	if !ok {
		return
	}
	v.Close()
	delete(m.views, name)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == name })
}

// Dispatch runs verb in the named view. When the action changed the rows
// on disk without moving any root, the other views are redrawn so they
// see the same filesystem.
func (m *Manager) Dispatch(name, verb string, args []string, cursor int) error {
	v, ok := m.views[name]
	if !ok {
		return fmt.Errorf("no view %q", name)
	}
	dirs := v.RootDirs()
	before := candidatePaths(v)

	err := v.DispatchAction(verb, args, cursor)

	if slices.Equal(dirs, v.RootDirs()) && !slices.Equal(before, candidatePaths(v)) {
		for _, other := range m.order {
			if other == name {
				continue
			}
			if rerr := m.views[other].Redraw(true); rerr != nil {
				m.opts.Logger.Warn("sibling redraw failed", "view", other, "err", rerr)
			}
		}
	}
	return err
}

func candidatePaths(v *View) []string {
	var out []string
	for _, c := range v.model.Rows() {
		out = append(out, c.Path)
	}
	sort.Strings(out)
	return out
}
