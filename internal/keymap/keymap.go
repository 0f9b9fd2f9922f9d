// Package keymap maps key sequences to commands. A command is either a
// UI command handled by the app or "[action:]<verb> [args...]", which
// runs a browser verb.
package keymap

import (
	"slices"
	"strings"
)

// actionPrefix marks commands that dispatch a browser verb.
const actionPrefix = "action:"

// Binding maps a key sequence to a command. Multi-key sequences are
// space separated ("g g").
type Binding struct {
	Key     string
	Command string
}

// UICommands are the commands the app handles itself.
var UICommands = map[string]string{
	"cursor-down":    "move the cursor down",
	"cursor-up":      "move the cursor up",
	"cursor-top":     "jump to the first row",
	"cursor-bottom":  "jump to the last row",
	"page-down":      "move half a page down",
	"page-up":        "move half a page up",
	"visual":         "start or finish a visual selection",
	"next-view":      "focus the next view",
	"new-view":       "open a new view on the cursor directory",
	"close-view":     "close the focused view",
	"toggle-preview": "show or hide the preview pane",
	"shrink-tree":    "narrow the tree pane",
	"grow-tree":      "widen the tree pane",
	"help":           "show key bindings",
	"quit":           "quit",
}

// IsAction reports whether the command runs a browser verb.
func (b Binding) IsAction() bool {
	if strings.HasPrefix(b.Command, actionPrefix) {
		return true
	}
	_, ui := UICommands[b.Command]
	return b.Command != "" && !ui
}

// Action splits an action command into its verb and arguments.
func (b Binding) Action() (verb string, args []string) {
	fields := strings.Fields(strings.TrimPrefix(b.Command, actionPrefix))
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// Registry resolves keys to bindings.
type Registry struct {
	bindings map[string]Binding
	prefixes map[string]bool

	// pending holds the keys typed so far of an unfinished sequence.
	pending []string
}

// NewRegistry builds a registry from the default bindings with user
// overrides applied. An override with an empty command unbinds the key.
func NewRegistry(overrides map[string]string) *Registry {
	r := &Registry{
		bindings: make(map[string]Binding),
		prefixes: make(map[string]bool),
	}
	for _, b := range DefaultBindings() {
		r.bindings[b.Key] = b
	}
	for key, cmd := range overrides {
		if cmd == "" {
			delete(r.bindings, key)
			continue
		}
		r.bindings[key] = Binding{Key: key, Command: cmd}
	}
	for key := range r.bindings {
		parts := strings.Split(key, " ")
		for i := 1; i < len(parts); i++ {
			r.prefixes[strings.Join(parts[:i], " ")] = true
		}
	}
	return r
}

// Handle feeds one key press. It returns the completed binding, or false
// when the key is unbound or starts a longer sequence.
func (r *Registry) Handle(key string) (Binding, bool) {
	r.pending = append(r.pending, key)
	seq := strings.Join(r.pending, " ")
	if b, ok := r.bindings[seq]; ok {
		r.pending = nil
		return b, true
	}
	if r.prefixes[seq] {
		return Binding{}, false
	}
	r.pending = nil
	// A failed sequence retries the last key alone.
	if seq != key {
		return r.Handle(key)
	}
	return Binding{}, false
}

// Pending returns the keys of an unfinished sequence.
func (r *Registry) Pending() string {
	return strings.Join(r.pending, " ")
}

// Reset drops an unfinished sequence.
func (r *Registry) Reset() { r.pending = nil }

// Bindings returns every binding sorted by key.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Binding) int { return strings.Compare(a.Key, b.Key) })
	return out
}
