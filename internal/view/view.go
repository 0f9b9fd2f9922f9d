// Package view ties the tree model, selection and dispatcher to a host
// surface. A View renders rows to lines, writes them to the host, keeps
// the cursor anchored across refreshes and runs the file-kind verbs.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/marcus/sidetree/internal/action"
	"github.com/marcus/sidetree/internal/column"
	"github.com/marcus/sidetree/internal/fileops"
	"github.com/marcus/sidetree/internal/job"
	"github.com/marcus/sidetree/internal/selection"
	"github.com/marcus/sidetree/internal/session"
	"github.com/marcus/sidetree/internal/sorter"
	"github.com/marcus/sidetree/internal/source"
	"github.com/marcus/sidetree/internal/tree"
)

// Line is one rendered row handed to the host.
type Line struct {
	Text        string
	Path        string
	IsDirectory bool
	IsRoot      bool
	IsOpened    bool
	IsSelected  bool
}

// Host is the surface a view draws on and asks questions through. Prompt
// methods block until the user answers.
type Host interface {
	WriteLines(lines []Line)
	SetCursor(row int)

	Confirm(question string) bool
	// Choose returns the picked index, or -1 on cancel.
	Choose(question string, choices []string) int
	// Input returns the entered text and false on cancel.
	Input(prompt, text, completion string) (string, bool)

	OpenPath(path, command string) error
	Preview(path string) error
	ExecuteSystem(path string) error
	Print(msg string)
	Error(msg string)
	Yank(text string) error

	RenameBuffer(oldPath, newPath string)
	DeleteBuffer(path string)
	BulkRename(paths []string, cwd string) error
	Call(function string, payload map[string]any) error
	Quit()
}

// Options configures a view.
type Options struct {
	Logger *slog.Logger

	SortMethod     string
	IgnoredGlobs   []string
	ShowIgnored    bool
	Columns        string
	RecursiveDepth int

	// PreviewHelper is a command used to preview images; "%" is replaced
	// by the path. Empty disables image previews.
	PreviewHelper []string

	Sessions *session.Store
	History  session.History
	Trasher  fileops.Trasher
	Jobs     *job.Runner
	Source   source.CandidateSource
}

type searchTarget struct {
	root int
	path string
}

// View is one browser instance with one or more roots.
type View struct {
	host   Host
	opts   Options
	logger *slog.Logger

	model      *tree.Model
	sel        *selection.Set
	clip       *selection.Clipboard
	dispatcher *action.Dispatcher
	kinds      map[string]*action.Registry

	columns []column.Column
	layout  string

	cursor   int
	search   *searchTarget
	lastHash uint64
	written  bool

	trasherErr error
}

// New creates a view drawing on host. clip is shared with sibling views;
// nil gives the view a private clipboard.
func New(host Host, opts Options, clip *selection.Clipboard) (*View, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SortMethod == "" {
		opts.SortMethod = sorter.Default
	}
	if !sorter.Valid(opts.SortMethod) {
		return nil, fmt.Errorf("invalid sort method %q", opts.SortMethod)
	}
	if opts.Columns == "" {
		opts.Columns = column.Default
	}
	if opts.RecursiveDepth <= 0 {
		opts.RecursiveDepth = tree.DefaultDepthLimit
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore("")
	}
	if opts.History == nil {
		opts.History = session.NewMemoryHistory(0)
	}
	if opts.Jobs == nil {
		opts.Jobs = job.NewRunner(opts.Logger)
	}
	if opts.Source == nil {
		opts.Source = source.NewFileSource()
	}
	if clip == nil {
		clip = &selection.Clipboard{}
	}

	cols, err := column.Parse(opts.Columns)
	if err != nil {
		return nil, err
	}

	v := &View{
		host:    host,
		opts:    opts,
		logger:  opts.Logger,
		model:   tree.NewModel(),
		sel:     selection.NewSet(),
		clip:    clip,
		kinds:   make(map[string]*action.Registry),
		columns: cols,
		layout:  opts.Columns,
	}
	v.dispatcher = action.NewDispatcher(v, opts.Logger)

	reg := action.NewRegistry(opts.Source.Name())
	action.RegisterBuiltins(reg)
	v.registerFileActions(reg)
	v.kinds[reg.Kind()] = reg
	return v, nil
}

// Init adds a root per path and draws the view. A relative path is taken
// from the working directory.
func (v *View) Init(paths []string) error {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		dir, err := filepath.Abs(expandHome(p))
		if err != nil {
			return err
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return &source.NotReadableError{Path: dir, Err: err}
		}
		r := v.model.AddRoot(v.opts.Source, dir, tree.RootOptions{
			SortMethod:   v.opts.SortMethod,
			IgnoredGlobs: slices.Clone(v.opts.IgnoredGlobs),
			ShowIgnored:  v.opts.ShowIgnored,
		})
		v.seedSession(r)
		v.recordHistory(dir)
	}
	return v.Redraw(true)
}

// Redraw renders the view. force rebuilds every root from disk first,
// which clears the selection.
func (v *View) Redraw(force bool) error {
	var err error
	if force {
		if v.search == nil {
			if c := v.model.At(v.cursor); c != nil {
				v.search = &searchTarget{root: c.RootIndex, path: c.Path}
			}
		}
		err = v.model.RebuildAll()
		v.sel.Clear()
	}
	if rerr := v.render(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

// render projects rows to lines, writes them when they changed and puts
// the cursor back on its target.
func (v *View) render() error {
	var err error
	if t := v.search; t != nil {
		v.search = nil
		var i int
		i, err = v.model.Reveal(t.root, t.path)
		if i >= 0 {
			v.cursor = i
		}
	}
	v.clampCursor()

	rows := v.model.Rows()
	v.sel.Apply(rows)
	texts := column.Render(v.columns, rows)
	lines := make([]Line, len(rows))
	for i, c := range rows {
		lines[i] = Line{
			Text:        texts[i],
			Path:        c.Path,
			IsDirectory: c.IsDirectory,
			IsRoot:      c.IsRoot,
			IsOpened:    c.IsOpenedTree,
			IsSelected:  c.IsSelected,
		}
	}

	if h := hashLines(lines); !v.written || h != v.lastHash {
		v.host.WriteLines(lines)
		v.lastHash = h
		v.written = true
	}
	v.host.SetCursor(v.cursor)
	return err
}

func hashLines(lines []Line) uint64 {
	d := xxhash.New()
	for _, l := range lines {
		_, _ = d.WriteString(l.Text)
		flags := []byte{'\n', 0}
		if l.IsSelected {
			flags[1] |= 1
		}
		if l.IsOpened {
			flags[1] |= 2
		}
		_, _ = d.Write(flags)
	}
	return d.Sum64()
}

func (v *View) clampCursor() {
	if v.cursor >= v.model.Len() {
		v.cursor = v.model.Len() - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// searchFor puts the cursor on path at the next render, expanding its
// ancestors if needed.
func (v *View) searchFor(rootIndex int, path string) {
	v.search = &searchTarget{root: rootIndex, path: filepath.Clean(path)}
}

// DispatchAction runs verb at cursor. Errors other than a declined
// confirmation are reported to the host and returned.
func (v *View) DispatchAction(verb string, args []string, cursor int) error {
	v.cursor = cursor
	v.clampCursor()
	err := v.dispatcher.Dispatch(verb, args, v.cursor)
	if !action.Silent(err) {
		v.logger.Warn("action failed", "verb", verb, "err", err)
		v.host.Error(err.Error())
	}
	return err
}

// Candidates returns a copy of the visible rows.
func (v *View) Candidates() []tree.Candidate {
	rows := v.model.Rows()
	out := make([]tree.Candidate, len(rows))
	for i, c := range rows {
		out[i] = *c
	}
	return out
}

// Cursor returns the current cursor row.
func (v *View) Cursor() int { return v.cursor }

// Verbs lists the verbs the first root understands.
func (v *View) Verbs() []string {
	if reg := v.Actions(0); reg != nil {
		return reg.Names()
	}
	return nil
}

// RootDirs returns the current directory of every root.
func (v *View) RootDirs() []string {
	var out []string
	for _, r := range v.model.Roots() {
		out = append(out, r.CurrentDirectory)
	}
	return out
}

// WatchedDirs returns every directory whose listing is visible.
func (v *View) WatchedDirs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range v.model.Rows() {
		if (c.IsRoot || c.IsOpenedTree) && !seen[c.Path] {
			seen[c.Path] = true
			out = append(out, c.Path)
		}
	}
	return out
}

// Close stops the running job.
func (v *View) Close() {
	v.opts.Jobs.Stop()
}

// RootAt implements action.Surface.
func (v *View) RootAt(cursor int) int {
	if c := v.model.At(cursor); c != nil {
		return c.RootIndex
	}
	return 0
}

// Actions implements action.Surface.
func (v *View) Actions(rootIndex int) *action.Registry {
	r := v.model.Root(rootIndex)
	if r == nil {
		return nil
	}
	return v.kinds[r.Source.Name()]
}

// ResolveTargets implements action.Surface.
func (v *View) ResolveTargets(cursor, rootIndex int, cursorOnly bool) []*tree.Candidate {
	s := v.sel
	if cursorOnly {
		s = nil
	}
	return selection.ResolveTargets(v.model.Rows(), s, cursor, rootIndex)
}

// HasSelection implements action.Surface.
func (v *View) HasSelection() bool { return !v.sel.Empty() }

// ClearSelection implements action.Surface.
func (v *View) ClearSelection() { v.sel.Clear() }

// Refresh implements action.Surface.
func (v *View) Refresh(e action.Effect) error {
	if e == action.EffectRedraw {
		return v.Redraw(true)
	}
	return v.render()
}

func (v *View) seedSession(r *tree.Root) {
	sess, ok := v.opts.Sessions.Get(r.CurrentDirectory)
	if !ok {
		return
	}
	for _, p := range sess.OpenedCandidates {
		if r.Contains(p) && p != r.CurrentDirectory {
			r.OpenedPaths[filepath.Clean(p)] = true
		}
	}
}

func (v *View) recordHistory(dir string) {
	if err := v.opts.History.Record(context.Background(), dir); err != nil {
		v.logger.Warn("history record failed", "dir", dir, "err", err)
	}
}

func (v *View) trasher() (fileops.Trasher, error) {
	if v.opts.Trasher == nil && v.trasherErr == nil {
		v.opts.Trasher, v.trasherErr = fileops.NewTrasher()
	}
	return v.opts.Trasher, v.trasherErr
}

func expandHome(p string) string {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
