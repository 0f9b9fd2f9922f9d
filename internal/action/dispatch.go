package action

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/marcus/sidetree/internal/tree"
)

// MaxDepth bounds nested dispatch through repeat and multi.
const MaxDepth = 16

// Effect is a render request made by the dispatcher.
type Effect int

const (
	EffectMarks Effect = iota + 1
	EffectTree
	EffectRedraw
)

func (e Effect) String() string {
	switch e {
	case EffectMarks:
		return "marks"
	case EffectTree:
		return "tree"
	case EffectRedraw:
		return "redraw"
	default:
		return "none"
	}
}

// Surface is what the dispatcher needs from a view.
type Surface interface {
	RootAt(cursor int) int
	Actions(rootIndex int) *Registry
	ResolveTargets(cursor, rootIndex int, cursorOnly bool) []*tree.Candidate
	HasSelection() bool
	ClearSelection()
	Refresh(e Effect) error
}

// Dispatcher runs verbs against a surface. It is not safe for concurrent
// use; one dispatch completes before the next starts.
type Dispatcher struct {
	surface  Surface
	logger   *slog.Logger
	prevVerb string
	prevArgs []string
}

// NewDispatcher creates a dispatcher for surface.
func NewDispatcher(s Surface, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{surface: s, logger: logger}
}

// Previous returns the last dispatched verb other than repeat.
func (d *Dispatcher) Previous() (string, []string) {
	return d.prevVerb, d.prevArgs
}

// Dispatch runs verb with args at the cursor row.
func (d *Dispatcher) Dispatch(verb string, args []string, cursor int) error {
	return d.dispatch(verb, args, cursor, 0)
}

func (d *Dispatcher) dispatch(verb string, args []string, cursor, depth int) error {
	if depth > MaxDepth {
		return ErrRecursionLimit
	}

	rootIndex := d.surface.RootAt(cursor)
	reg := d.surface.Actions(rootIndex)
	if reg == nil {
		return &UnknownActionError{Verb: verb}
	}
	act, ok := reg.Lookup(verb)
	if !ok {
		return &UnknownActionError{Verb: verb}
	}

	attr := act.Attr
	clearMarks := verb != "repeat" && !attr.MarkUpdate && !attr.NoTargets && d.surface.HasSelection()

	// Stale marks must not leak into actions that did not ask for them,
	// so they are dropped before resolving unless the action consumes them.
	if clearMarks && !attr.Marked {
		d.clearMarks()
	}
	targets := d.surface.ResolveTargets(cursor, rootIndex, attr.CursorTarget)
	if clearMarks && attr.Marked {
		d.clearMarks()
	}

	if len(targets) == 0 && !attr.NoTargets {
		d.logger.Debug("action skipped, no targets", "verb", verb)
		return nil
	}

	d.logger.Debug("dispatch", "verb", verb, "args", args, "targets", len(targets), "depth", depth)
	ctx := &Context{
		Verb:      verb,
		Args:      args,
		Cursor:    cursor,
		RootIndex: rootIndex,
		Targets:   targets,
		d:         d,
		depth:     depth,
	}
	err := act.Handler(ctx)

	if verb != "repeat" {
		d.prevVerb = verb
		d.prevArgs = args
	}

	var effect Effect
	switch {
	case attr.Redraw:
		effect = EffectRedraw
	case attr.TreeUpdate:
		effect = EffectTree
	case attr.MarkUpdate:
		effect = EffectMarks
	}
	if effect != 0 {
		if rerr := d.surface.Refresh(effect); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}
	return err
}

func (d *Dispatcher) clearMarks() {
	d.surface.ClearSelection()
	if err := d.surface.Refresh(EffectMarks); err != nil {
		d.logger.Warn("mark refresh failed", "err", err)
	}
}

// RegisterBuiltins adds the verbs every kind shares: repeat and multi.
func RegisterBuiltins(reg *Registry) {
	reg.Register("repeat", repeat, Attr{MarkUpdate: true})
	reg.Register("multi", multi, Attr{NoTargets: true})
}

func repeat(c *Context) error {
	verb, args := c.d.Previous()
	if verb == "" {
		return nil
	}
	return c.Redispatch(verb, args)
}

// multi runs each argument as its own dispatch. An argument is a verb
// followed by its arguments, separated by whitespace.
func multi(c *Context) error {
	var errs []error
	for _, sub := range c.Args {
		fields := strings.Fields(sub)
		if len(fields) == 0 {
			continue
		}
		if err := c.Redispatch(fields[0], fields[1:]); err != nil {
			if errors.Is(err, ErrRecursionLimit) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
