// Package action maps verbs to handlers and runs them through the
// dispatch protocol shared by every kind of root.
package action

import (
	"errors"
	"fmt"
	"sort"

	"github.com/marcus/sidetree/internal/tree"
)

// Attr describes how an action interacts with marks and rendering.
type Attr struct {
	// Redraw rebuilds every root after the handler.
	Redraw bool
	// MarkUpdate re-renders mark decorations after the handler.
	MarkUpdate bool
	// TreeUpdate re-renders rows after the handler changed the tree.
	TreeUpdate bool
	// NoTargets runs the handler even when no rows resolve.
	NoTargets bool
	// CursorTarget resolves only the cursor row, ignoring marks.
	CursorTarget bool
	// Marked resolves the marked rows before marks are cleared.
	Marked bool
}

// Handler runs one verb.
type Handler func(c *Context) error

// Action is a registered verb.
type Action struct {
	Name    string
	Handler Handler
	Attr    Attr
}

// Context is passed to a handler.
type Context struct {
	Verb      string
	Args      []string
	Cursor    int
	RootIndex int
	Targets   []*tree.Candidate

	d     *Dispatcher
	depth int
}

// Arg returns argument i or "" when absent.
func (c *Context) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// HasArg reports whether any argument equals s.
func (c *Context) HasArg(s string) bool {
	for _, a := range c.Args {
		if a == s {
			return true
		}
	}
	return false
}

// Redispatch runs another verb through the full protocol on the same
// cursor, one level deeper.
func (c *Context) Redispatch(verb string, args []string) error {
	if c.d == nil {
		return fmt.Errorf("redispatch %s: no dispatcher", verb)
	}
	return c.d.dispatch(verb, args, c.Cursor, c.depth+1)
}

// Registry holds the verbs of one kind of root.
type Registry struct {
	kind    string
	actions map[string]Action
}

// NewRegistry creates an empty registry for kind.
func NewRegistry(kind string) *Registry {
	return &Registry{kind: kind, actions: make(map[string]Action)}
}

// Kind returns the kind name the registry serves.
func (r *Registry) Kind() string { return r.kind }

// Register adds or replaces a verb.
func (r *Registry) Register(name string, h Handler, attr Attr) {
	r.actions[name] = Action{Name: name, Handler: h, Attr: attr}
}

// Lookup finds a verb.
func (r *Registry) Lookup(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered verbs in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.actions))
	for name := range r.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UnknownActionError is returned for a verb that no registry knows.
type UnknownActionError struct {
	Verb string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Verb)
}

var (
	// ErrConfirmationDeclined is returned when the user answers no to a
	// destructive prompt. It is not reported.
	ErrConfirmationDeclined = errors.New("confirmation declined")

	// ErrRecursionLimit stops runaway repeat/multi chains.
	ErrRecursionLimit = errors.New("action nesting too deep")
)

// Silent reports whether err should not be shown to the user.
func Silent(err error) bool {
	return err == nil || errors.Is(err, ErrConfirmationDeclined)
}
