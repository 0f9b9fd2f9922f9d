package view

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/marcus/sidetree/internal/action"
	"github.com/marcus/sidetree/internal/fileops"
	"github.com/marcus/sidetree/internal/job"
	"github.com/marcus/sidetree/internal/selection"
	"github.com/marcus/sidetree/internal/tree"
)

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}

func (v *View) copy(c *action.Context) error { return v.setClipboard(c, selection.OpCopy) }
func (v *View) move(c *action.Context) error { return v.setClipboard(c, selection.OpMove) }
func (v *View) link(c *action.Context) error { return v.setClipboard(c, selection.OpLink) }

func (v *View) setClipboard(c *action.Context, op selection.Op) error {
	r := v.model.Root(c.RootIndex)
	v.clip.Set(op, c.Targets, r.Source.Name())
	what := c.Targets[0].Path
	if len(c.Targets) > 1 {
		what = fmt.Sprintf("%d files", len(c.Targets))
	}
	label := op.String()
	v.host.Print(fmt.Sprintf("%s%s to the clipboard: %s", strings.ToUpper(label[:1]), label[1:], what))
	return nil
}

// targetDirectory is where new entries go: the cursor row when it is an
// open directory or a root, otherwise the directory containing it.
func (v *View) targetDirectory(c *action.Context) string {
	row := v.model.At(c.Cursor)
	if row == nil || row.RootIndex != c.RootIndex {
		return v.model.Root(c.RootIndex).CurrentDirectory
	}
	if row.IsRoot || row.IsOpenedTree {
		return row.Path
	}
	return filepath.Dir(row.Path)
}

// paste transfers the clipboard into the target directory. Each
// collision is resolved with the user; failures are collected and the
// remaining candidates still pasted.
func (v *View) paste(c *action.Context) error {
	if v.clip.Empty() {
		v.host.Print("Nothing in the clipboard")
		return nil
	}
	r := v.model.Root(c.RootIndex)
	if v.clip.SourceName != r.Source.Name() {
		return fmt.Errorf("cannot paste %s entries into a %s root", v.clip.SourceName, r.Source.Name())
	}

	dir := v.targetDirectory(c)
	op := v.clip.Op
	var errs []error
	last := ""
	for _, cand := range v.clip.Candidates {
		src := cand.Path
		dest, replace, err := fileops.ResolveDestination(src, filepath.Join(dir, filepath.Base(src)), v.host)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if dest == "" || dest == src {
			continue
		}
		if op != selection.OpLink && cand.IsDirectory && within(src, dest) {
			errs = append(errs, fmt.Errorf("cannot paste %s into itself", src))
			continue
		}
		if replace {
			if err := fileops.Remove(dest); err != nil {
				errs = append(errs, err)
				continue
			}
		}

		switch op {
		case selection.OpCopy:
			err = fileops.Copy(src, dest)
		case selection.OpMove:
			err = fileops.Move(src, dest)
			if err == nil && !cand.IsDirectory {
				v.host.RenameBuffer(src, dest)
			}
		case selection.OpLink:
			err = fileops.Link(src, dest)
		}
		if err != nil {
			v.logger.Warn("paste failed", "op", op, "src", src, "err", err)
			errs = append(errs, err)
			continue
		}
		last = dest
	}

	if op == selection.OpMove || op == selection.OpLink {
		v.clip.Reset()
	}
	if last != "" {
		v.searchFor(c.RootIndex, last)
	}
	return joinErrors(errs)
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (v *View) remove(c *action.Context) error {
	return v.removeTargets(c, nil)
}

func (v *View) removeTrash(c *action.Context) error {
	t, err := v.trasher()
	if err != nil {
		return err
	}
	return v.removeTargets(c, t)
}

// removeTargets deletes the targets after confirmation, or moves them to
// trash when t is set. The root rows are never removed.
func (v *View) removeTargets(c *action.Context, t fileops.Trasher) error {
	targets := make([]*tree.Candidate, 0, len(c.Targets))
	for _, cand := range c.Targets {
		if !cand.IsRoot {
			targets = append(targets, cand)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	if c.Arg(0) != "force" {
		what := targets[0].Path
		if len(targets) > 1 {
			what = fmt.Sprintf("%d files", len(targets))
		}
		if !v.host.Confirm(fmt.Sprintf("Are you sure you want to delete %s?", what)) {
			return action.ErrConfirmationDeclined
		}
	}

	var errs []error
	for _, cand := range targets {
		var err error
		if t != nil {
			_, err = t.Trash(cand.Path)
		} else {
			err = fileops.Remove(cand.Path)
		}
		if err != nil {
			v.logger.Warn("remove failed", "path", cand.Path, "err", err)
			errs = append(errs, err)
			continue
		}
		v.host.DeleteBuffer(cand.Path)
	}
	return joinErrors(errs)
}

// rename prompts for a new name of a single target. Several targets are
// handed to the host's bulk rename.
func (v *View) rename(c *action.Context) error {
	r := v.model.Root(c.RootIndex)
	if len(c.Targets) > 1 {
		paths := make([]string, len(c.Targets))
		for i, t := range c.Targets {
			paths[i] = t.Path
		}
		return v.host.BulkRename(paths, r.CurrentDirectory)
	}

	t := c.Targets[0]
	if t.IsRoot {
		return fmt.Errorf("cannot rename the root %s", t.Path)
	}
	old, err := filepath.Rel(r.CurrentDirectory, t.Path)
	if err != nil {
		old = t.Path
	}
	text := old
	if c.Arg(0) == "new" {
		text = ""
	}
	name, ok := v.host.Input(fmt.Sprintf("Old name: %s\nNew name: ", old), text, "file")
	if !ok || name == "" || name == old {
		return nil
	}

	dest := v.resolvePath(c.RootIndex, name)
	if err := fileops.Rename(t.Path, dest); err != nil {
		return err
	}
	if !t.IsDirectory {
		v.host.RenameBuffer(t.Path, dest)
	}
	v.searchFor(c.RootIndex, dest)
	return nil
}

func (v *View) newFile(c *action.Context) error {
	return v.create(c, "Please input a new filename: ", false)
}

func (v *View) newDirectory(c *action.Context) error {
	return v.create(c, "Please input a new directory name: ", true)
}

func (v *View) create(c *action.Context, prompt string, dir bool) error {
	name, ok := v.host.Input(prompt, "", "file")
	if !ok || strings.TrimSpace(name) == "" {
		return nil
	}
	path, err := v.createOne(c, name, dir)
	if err != nil {
		return err
	}
	v.searchFor(c.RootIndex, path)
	return nil
}

// newMultipleFiles creates every whitespace-separated name. A name that
// already exists is reported and the rest are still created.
func (v *View) newMultipleFiles(c *action.Context) error {
	text, ok := v.host.Input("Please input new filenames: ", "", "file")
	if !ok {
		return nil
	}
	var errs []error
	last := ""
	for _, name := range strings.Fields(text) {
		path, err := v.createOne(c, name, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		last = path
	}
	if last != "" {
		v.searchFor(c.RootIndex, last)
	}
	return joinErrors(errs)
}

// createOne makes name below the target directory. A trailing "/" makes
// a directory.
func (v *View) createOne(c *action.Context, name string, dir bool) (string, error) {
	if strings.HasSuffix(name, "/") {
		dir = true
	}
	clean := strings.TrimRight(name, "/")
	if err := fileops.ValidateName(filepath.Base(clean)); err != nil {
		return "", err
	}
	path := filepath.Join(v.targetDirectory(c), clean)
	if fileops.Exists(path) {
		return "", &fileops.PathExistsError{Path: path}
	}
	if err := fileops.Create(path, dir); err != nil {
		return "", err
	}
	return path, nil
}

func targetPaths(targets []*tree.Candidate) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = t.Path
	}
	return out
}

func (v *View) yankPath(c *action.Context) error {
	text := strings.Join(targetPaths(c.Targets), "\n")
	if err := v.host.Yank(text); err != nil {
		return fmt.Errorf("yank: %w", err)
	}
	v.host.Print("Yanked:\n" + text)
	return nil
}

func (v *View) print(c *action.Context) error {
	for _, p := range targetPaths(c.Targets) {
		v.host.Print(p)
	}
	return nil
}

func (v *View) executeSystem(c *action.Context) error {
	var errs []error
	for _, t := range c.Targets {
		if err := v.host.ExecuteSystem(t.Path); err != nil {
			errs = append(errs, fmt.Errorf("execute %s: %w", t.Path, err))
		}
	}
	return joinErrors(errs)
}

// executeCommand runs a command over the targets. A "*" argument takes
// all targets at once; otherwise the command runs per target with "%"
// replaced by its path. With "async" the command runs as the background
// job instead of printing its output.
func (v *View) executeCommand(c *action.Context) error {
	command := c.Arg(0)
	if command == "" {
		var ok bool
		command, ok = v.host.Input("Command: ", "", "shellcmd")
		if !ok || strings.TrimSpace(command) == "" {
			return nil
		}
	}
	argv := strings.Fields(command)
	cwd := v.model.Root(c.RootIndex).CurrentDirectory
	paths := targetPaths(c.Targets)

	var cmds [][]string
	if containsArg(argv, "*") {
		cmds = [][]string{job.Expand(argv, paths)}
	} else {
		for _, p := range paths {
			cmds = append(cmds, job.ExpandEach(argv, p))
		}
	}

	if c.Arg(1) == "async" {
		// Only one job is kept; the last command wins.
		return v.opts.Jobs.Start(cwd, cmds[len(cmds)-1])
	}

	var errs []error
	for _, cmd := range cmds {
		out, err := job.Output(context.Background(), cwd, cmd)
		if out != "" {
			v.host.Print(out)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cmd[0], err))
		}
	}
	return joinErrors(errs)
}

func containsArg(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

// preview shows the first file target. Images go to the preview helper
// job when one is configured.
func (v *View) preview(c *action.Context) error {
	for _, t := range c.Targets {
		if t.IsDirectory {
			continue
		}
		ext := strings.ToLower(filepath.Ext(t.Path))
		if imageExtensions[ext] && len(v.opts.PreviewHelper) > 0 {
			return v.opts.Jobs.Start(filepath.Dir(t.Path), job.ExpandEach(v.opts.PreviewHelper, t.Path))
		}
		return v.host.Preview(t.Path)
	}
	return nil
}

// call hands the targets to a host function.
func (v *View) call(c *action.Context) error {
	function := c.Arg(0)
	if function == "" {
		return fmt.Errorf("call: function name required")
	}
	payload := map[string]any{
		"cwd":     v.model.Root(c.RootIndex).CurrentDirectory,
		"targets": targetPaths(c.Targets),
		"args":    append([]string(nil), c.Args[1:]...),
		"cursor":  c.Cursor,
	}
	return v.host.Call(function, payload)
}

// addSession stores the root directory, or the given path, with the
// directories currently open.
func (v *View) addSession(c *action.Context) error {
	r := v.model.Root(c.RootIndex)
	path := c.Arg(0)
	var opened []string
	if path == "" {
		path = r.CurrentDirectory
		opened = r.Opened()
	} else {
		path = v.resolvePath(c.RootIndex, path)
	}
	sess, _ := v.opts.Sessions.Add(path, opened)
	v.host.Print(fmt.Sprintf("session %q is created", sess.Name))
	return v.opts.Sessions.Save()
}

func (v *View) deleteSession(c *action.Context) error {
	path := c.Arg(0)
	if path == "" {
		return fmt.Errorf("delete_session: path required")
	}
	if !v.opts.Sessions.Delete(v.resolvePath(c.RootIndex, path)) {
		return fmt.Errorf("no session for %s", path)
	}
	return v.opts.Sessions.Save()
}

func (v *View) loadSession(*action.Context) error {
	return v.opts.Sessions.Load()
}

func (v *View) saveSession(*action.Context) error {
	return v.opts.Sessions.Save()
}

// historyLimit caps the directories offered by the history picker.
const historyLimit = 20

// history offers recently visited directories, newest first, and changes
// into the picked one.
func (v *View) history(c *action.Context) error {
	recent, err := v.opts.History.Recent(context.Background(), historyLimit+1)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	cur := v.model.Root(c.RootIndex).CurrentDirectory
	recent = slices.DeleteFunc(recent, func(p string) bool { return p == cur })
	slices.Reverse(recent)
	if len(recent) > historyLimit {
		recent = recent[:historyLimit]
	}
	if len(recent) == 0 {
		v.host.Print("no directory history")
		return nil
	}

	i := v.host.Choose("Go to directory", recent)
	if i < 0 || i >= len(recent) {
		return nil
	}
	return v.changeDirectory(c.RootIndex, recent[i], false)
}

// sessions offers the saved sessions and changes into the picked one,
// which reopens its directories.
func (v *View) sessions(c *action.Context) error {
	list := v.opts.Sessions.List()
	if len(list) == 0 {
		v.host.Print("no sessions")
		return nil
	}
	choices := make([]string, len(list))
	for i, sess := range list {
		choices[i] = sess.Path
	}

	i := v.host.Choose("Open session", choices)
	if i < 0 || i >= len(list) {
		return nil
	}
	return v.changeDirectory(c.RootIndex, list[i].Path, false)
}
