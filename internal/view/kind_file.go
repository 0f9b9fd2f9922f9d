package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marcus/sidetree/internal/action"
	"github.com/marcus/sidetree/internal/column"
	"github.com/marcus/sidetree/internal/sorter"
	"github.com/marcus/sidetree/internal/source"
	"github.com/marcus/sidetree/internal/tree"
)

func (v *View) registerFileActions(reg *action.Registry) {
	var (
		none     = action.Attr{}
		treeOnly = action.Attr{TreeUpdate: true}
		treeCur  = action.Attr{TreeUpdate: true, CursorTarget: true}
		redraw   = action.Attr{Redraw: true}
		marked   = action.Attr{Marked: true}
		markOnly = action.Attr{MarkUpdate: true, NoTargets: true}
		global   = action.Attr{NoTargets: true}
	)

	reg.Register("open", v.open, treeOnly)
	reg.Register("drop", v.drop, treeOnly)
	reg.Register("open_directory", v.openDirectory, treeOnly)
	reg.Register("cd", v.cd, treeOnly)
	reg.Register("open_tree", v.openTree, treeCur)
	reg.Register("open_tree_recursive", v.openTreeRecursive, treeCur)
	reg.Register("open_or_close_tree", v.openOrCloseTree, treeCur)
	reg.Register("close_tree", v.closeTree, treeCur)
	reg.Register("search", v.searchAction, action.Attr{TreeUpdate: true, NoTargets: true})

	reg.Register("copy", v.copy, marked)
	reg.Register("move", v.move, marked)
	reg.Register("link", v.link, marked)
	reg.Register("paste", v.paste, action.Attr{Redraw: true, NoTargets: true})
	reg.Register("remove", v.remove, action.Attr{Redraw: true, Marked: true})
	reg.Register("remove_trash", v.removeTrash, action.Attr{Redraw: true, Marked: true})
	reg.Register("rename", v.rename, action.Attr{Redraw: true, Marked: true})
	reg.Register("new_file", v.newFile, redraw)
	reg.Register("new_directory", v.newDirectory, redraw)
	reg.Register("new_multiple_files", v.newMultipleFiles, redraw)

	reg.Register("toggle_select", v.toggleSelect, markOnly)
	reg.Register("toggle_select_all", v.toggleSelectAll, markOnly)
	reg.Register("toggle_select_visual", v.toggleSelectVisual, markOnly)
	reg.Register("clear_select_all", v.clearSelectAll, markOnly)

	reg.Register("toggle_sort", v.toggleSort, action.Attr{MarkUpdate: true, NoTargets: true, Redraw: true})
	reg.Register("toggle_ignored_files", v.toggleIgnoredFiles, redraw)
	reg.Register("change_ignored_files", v.changeIgnoredFiles, redraw)
	reg.Register("change_filtered_files", v.changeFilteredFiles, redraw)
	reg.Register("toggle_columns", v.toggleColumns, redraw)

	reg.Register("yank_path", v.yankPath, marked)
	reg.Register("print", v.print, marked)
	reg.Register("execute_system", v.executeSystem, marked)
	reg.Register("execute_command", v.executeCommand, action.Attr{Redraw: true, Marked: true})
	reg.Register("preview", v.preview, none)
	reg.Register("call", v.call, action.Attr{Redraw: true, Marked: true})

	reg.Register("add_session", v.addSession, global)
	reg.Register("delete_session", v.deleteSession, global)
	reg.Register("load_session", v.loadSession, global)
	reg.Register("save_session", v.saveSession, global)
	reg.Register("sessions", v.sessions, action.Attr{TreeUpdate: true, NoTargets: true})
	reg.Register("history", v.history, action.Attr{TreeUpdate: true, NoTargets: true})

	reg.Register("check_redraw", v.checkRedraw, global)
	reg.Register("redraw", func(*action.Context) error { return nil }, action.Attr{Redraw: true, NoTargets: true})
	reg.Register("quit", v.quit, global)
}

// open changes into a directory target or opens file targets in the
// host with an optional command such as "vsplit".
func (v *View) open(c *action.Context) error {
	return v.openWith(c, c.Arg(0))
}

func (v *View) drop(c *action.Context) error {
	cmd := c.Arg(0)
	if cmd == "" {
		cmd = "drop"
	}
	return v.openWith(c, cmd)
}

func (v *View) openWith(c *action.Context, command string) error {
	var errs []error
	for _, t := range c.Targets {
		if t.IsDirectory {
			return v.changeDirectory(c.RootIndex, t.Path, false)
		}
		if err := v.host.OpenPath(t.Path, command); err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", t.Path, err))
		}
	}
	return joinErrors(errs)
}

func (v *View) openDirectory(c *action.Context) error {
	if dir := c.Arg(0); dir != "" {
		return v.changeDirectory(c.RootIndex, v.resolvePath(c.RootIndex, dir), false)
	}
	t := c.Targets[0]
	dir := t.Path
	if !t.IsDirectory {
		dir = filepath.Dir(dir)
	}
	return v.changeDirectory(c.RootIndex, dir, false)
}

// cd navigates a root. ".." goes to the parent and puts the cursor on the
// directory just left; no argument goes home.
func (v *View) cd(c *action.Context) error {
	r := v.model.Root(c.RootIndex)
	prev := r.CurrentDirectory

	var dir string
	switch arg := c.Arg(0); arg {
	case "":
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = home
	case "..":
		dir = filepath.Dir(prev)
	default:
		dir = v.resolvePath(c.RootIndex, arg)
	}
	if err := v.changeDirectory(c.RootIndex, dir, c.Arg(1) == "open"); err != nil {
		return err
	}
	if c.Arg(0) == ".." {
		v.searchFor(c.RootIndex, prev)
	}
	return nil
}

// changeDirectory points a root at dir. The cursor position in the old
// directory is remembered and restored when coming back. keepOpen leaves
// the old directory expanded when it is below dir.
func (v *View) changeDirectory(rootIndex int, dir string, keepOpen bool) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &source.NotReadableError{Path: dir, Err: err}
	}

	r := v.model.Root(rootIndex)
	prev := r.CurrentDirectory
	if cur := v.model.At(v.cursor); cur != nil && cur.RootIndex == rootIndex && !cur.IsRoot {
		r.CursorHistory[prev] = cur.Path
	}
	v.sel.ClearRoot(v.model.Rows(), rootIndex)

	if keepOpen && prev != dir {
		r.OpenedPaths[prev] = true
	}
	r.CurrentDirectory = dir
	v.seedSession(r)
	v.recordHistory(dir)

	err = v.model.ChangeDirectory(rootIndex, dir)
	v.sel.Clear()

	if last, ok := r.CursorHistory[dir]; ok {
		v.searchFor(rootIndex, last)
	} else {
		v.cursor = v.model.IndexOf(rootIndex, dir)
	}
	return err
}

// resolvePath interprets p relative to a root's directory.
func (v *View) resolvePath(rootIndex int, p string) string {
	p = expandHome(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(v.model.Root(rootIndex).CurrentDirectory, p)
	}
	return filepath.Clean(p)
}

type treeArgs struct {
	depth  int
	nested bool
	toggle bool
}

func (v *View) parseTreeArgs(args []string) (treeArgs, error) {
	var ta treeArgs
	for _, a := range args {
		switch {
		case a == "toggle":
			ta.toggle = true
		case a == "nested":
			ta.nested = true
		case a == "recursive":
			ta.depth = v.opts.RecursiveDepth
		case strings.HasPrefix(a, "recursive:"):
			n, err := strconv.Atoi(strings.TrimPrefix(a, "recursive:"))
			if err != nil || n < 0 {
				return ta, fmt.Errorf("invalid depth in %q", a)
			}
			ta.depth = n
		case a == "":
		default:
			return ta, fmt.Errorf("unknown open_tree argument %q", a)
		}
	}
	return ta, nil
}

func (v *View) openTree(c *action.Context) error {
	ta, err := v.parseTreeArgs(c.Args)
	if err != nil {
		return err
	}
	return v.expandTargets(c, ta)
}

func (v *View) openTreeRecursive(c *action.Context) error {
	level := c.Arg(0)
	if level == "" {
		level = strconv.Itoa(tree.DefaultDepthLimit)
	}
	n, err := strconv.Atoi(level)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid depth %q", level)
	}
	return v.expandTargets(c, treeArgs{depth: n})
}

func (v *View) openOrCloseTree(c *action.Context) error {
	return v.expandTargets(c, treeArgs{toggle: true})
}

func (v *View) expandTargets(c *action.Context, ta treeArgs) error {
	var errs []error
	for _, t := range c.Targets {
		if t.IsRoot {
			continue
		}
		if !t.IsDirectory {
			if ta.toggle {
				v.closeParent(c.RootIndex, t)
			}
			continue
		}
		if ta.toggle && t.IsOpenedTree {
			v.model.Collapse(c.RootIndex, t.Path)
			continue
		}
		if err := v.model.Expand(c.RootIndex, t.Path, ta.depth); err != nil {
			errs = append(errs, err)
			continue
		}
		if ta.nested {
			if err := v.expandNested(c.RootIndex, t.Path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return joinErrors(errs)
}

// expandNested keeps opening while a directory's only child is itself a
// directory.
func (v *View) expandNested(rootIndex int, path string) error {
	for range tree.MaxDepth {
		i := v.model.IndexOf(rootIndex, path)
		parent := v.model.At(i)
		child := v.model.At(i + 1)
		if child == nil || child.Level != parent.Level+1 || !child.IsDirectory {
			return nil
		}
		if next := v.model.At(i + 2); next != nil && next.Level == child.Level {
			return nil
		}
		if err := v.model.Expand(rootIndex, child.Path, 0); err != nil {
			return err
		}
		path = child.Path
	}
	return nil
}

// closeTree collapses an open directory, or the parent of any other row
// and moves the cursor there.
func (v *View) closeTree(c *action.Context) error {
	for _, t := range c.Targets {
		if t.IsRoot {
			continue
		}
		if t.IsDirectory && t.IsOpenedTree {
			v.model.Collapse(c.RootIndex, t.Path)
			continue
		}
		v.closeParent(c.RootIndex, t)
	}
	return nil
}

func (v *View) closeParent(rootIndex int, t *tree.Candidate) {
	p := v.model.At(v.model.Parent(v.model.IndexOf(rootIndex, t.Path)))
	if p == nil {
		return
	}
	v.model.Collapse(rootIndex, p.Path)
	v.searchFor(rootIndex, p.Path)
}

func (v *View) searchAction(c *action.Context) error {
	if c.Arg(0) == "" {
		return nil
	}
	v.searchFor(c.RootIndex, v.resolvePath(c.RootIndex, c.Arg(0)))
	return nil
}

func (v *View) toggleSelect(c *action.Context) error {
	if row := v.model.At(c.Cursor); row != nil && !row.IsRoot {
		v.sel.Toggle(c.Cursor)
	}
	return nil
}

func (v *View) toggleSelectAll(c *action.Context) error {
	for i, row := range v.model.Rows() {
		if row.RootIndex == c.RootIndex && !row.IsRoot {
			v.sel.Toggle(i)
		}
	}
	return nil
}

// toggleSelectVisual flips marks on the rows between two indices given
// as arguments, skipping root rows and rows of other roots.
func (v *View) toggleSelectVisual(c *action.Context) error {
	start, err1 := strconv.Atoi(c.Arg(0))
	end, err2 := strconv.Atoi(c.Arg(1))
	if err1 != nil || err2 != nil {
		return fmt.Errorf("toggle_select_visual: want start and end rows, got %v", c.Args)
	}
	rows := v.model.Rows()
	v.sel.ToggleRange(start, end, func(i int) bool {
		return i < 0 || i >= len(rows) || rows[i].IsRoot || rows[i].RootIndex != c.RootIndex
	})
	return nil
}

func (v *View) clearSelectAll(*action.Context) error {
	v.sel.Clear()
	return nil
}

// toggleSort switches to the given method, or back to the configured one
// when it is already active.
func (v *View) toggleSort(c *action.Context) error {
	method := c.Arg(0)
	if !sorter.Valid(method) {
		return fmt.Errorf("invalid sort method %q", method)
	}
	r := v.model.Root(c.RootIndex)
	if r.SortMethod == method {
		r.SortMethod = v.opts.SortMethod
	} else {
		r.SortMethod = method
	}
	return nil
}

func (v *View) toggleIgnoredFiles(c *action.Context) error {
	r := v.model.Root(c.RootIndex)
	r.ShowIgnored = !r.ShowIgnored
	return nil
}

func (v *View) changeIgnoredFiles(c *action.Context) error {
	r := v.model.Root(c.RootIndex)
	globs, ok := v.globArg(c, "Ignored files: ", r.IgnoredGlobs)
	if ok {
		r.IgnoredGlobs = globs
	}
	return nil
}

func (v *View) changeFilteredFiles(c *action.Context) error {
	r := v.model.Root(c.RootIndex)
	globs, ok := v.globArg(c, "Filtered files: ", r.FilteredGlobs)
	if ok {
		r.FilteredGlobs = globs
	}
	return nil
}

// globArg reads a comma-separated glob list from the first argument or,
// without one, from a prompt.
func (v *View) globArg(c *action.Context, prompt string, current []string) ([]string, bool) {
	text := c.Arg(0)
	if len(c.Args) == 0 {
		var ok bool
		text, ok = v.host.Input(prompt, strings.Join(current, ","), "")
		if !ok {
			return nil, false
		}
	}
	var globs []string
	for _, g := range strings.Split(text, ",") {
		if g = strings.TrimSpace(g); g != "" {
			globs = append(globs, g)
		}
	}
	return globs, true
}

func (v *View) toggleColumns(c *action.Context) error {
	layout := c.Arg(0)
	if layout == "" || layout == v.layout {
		layout = v.opts.Columns
	}
	cols, err := column.Parse(layout)
	if err != nil {
		return err
	}
	v.columns = cols
	v.layout = layout
	return nil
}

// checkRedraw rebuilds when a root or an open directory changed on disk.
func (v *View) checkRedraw(*action.Context) error {
	if v.model.Stale() {
		return v.Redraw(true)
	}
	return nil
}

func (v *View) quit(*action.Context) error {
	v.host.Quit()
	return nil
}
