package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/sidetree/internal/fileops"
	"github.com/marcus/sidetree/internal/ui"
	"github.com/marcus/sidetree/internal/view"
)

// callTimeout bounds a "call" verb's external function.
const callTimeout = 30 * time.Second

// promptMsg asks the model to show a prompt and answer on reply.
type promptMsg struct {
	prompt *ui.Prompt
	reply  chan ui.PromptResult
}

// execMsg asks the model to hand the terminal to cmd.
type execMsg struct {
	cmd  *exec.Cmd
	done chan error
}

// toast is a message queued by a view during an action.
type toast struct {
	text    string
	isError bool
}

// snapshot is what a view produced while an action ran.
type snapshot struct {
	pane    string
	lines   []view.Line
	written bool
	cursor  int
	toasts  []toast
	preview string
	quit    bool
}

// bridge implements view.Host for one pane. Views only call it from the
// goroutine running an action; prompts and terminal handoffs round-trip
// through the bubbletea loop via send.
type bridge struct {
	name   string
	editor string
	logger *slog.Logger
	send   func(tea.Msg)

	// view is set once the pane's view exists and is read only from
	// the action goroutine.
	view *view.View

	mu  sync.Mutex
	out snapshot
}

func newBridge(name, editor string, logger *slog.Logger, send func(tea.Msg)) *bridge {
	return &bridge{
		name:   name,
		editor: editor,
		logger: logger,
		send:   send,
		out:    snapshot{pane: name},
	}
}

// take returns and resets everything recorded since the last call.
func (b *bridge) take() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.out
	b.out = snapshot{pane: b.name, cursor: s.cursor}
	return s
}

func (b *bridge) WriteLines(lines []view.Line) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.lines = lines
	b.out.written = true
}

func (b *bridge) SetCursor(row int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.cursor = row
}

func (b *bridge) ask(p *ui.Prompt) ui.PromptResult {
	if b.send == nil {
		return ui.PromptResult{Index: -1, Cancelled: true}
	}
	reply := make(chan ui.PromptResult, 1)
	b.send(promptMsg{prompt: p, reply: reply})
	return <-reply
}

func (b *bridge) Confirm(question string) bool {
	return b.ask(ui.NewConfirm(question)).Confirmed
}

func (b *bridge) Choose(question string, choices []string) int {
	return b.ask(ui.NewChoose(question, choices)).Index
}

func (b *bridge) Input(prompt, text, completion string) (string, bool) {
	base := ""
	if b.view != nil {
		if dirs := b.view.RootDirs(); len(dirs) > 0 {
			base = dirs[0]
		}
	}
	r := b.ask(ui.NewInput(prompt, text, completion, base))
	return r.Text, !r.Cancelled
}

// exec runs cmd in the foreground terminal and waits for it to exit.
func (b *bridge) exec(cmd *exec.Cmd) error {
	if b.send == nil {
		return errors.New("no terminal to run " + cmd.Path)
	}
	done := make(chan error, 1)
	b.send(execMsg{cmd: cmd, done: done})
	return <-done
}

// editorCommand returns the configured editor split into argv.
func (b *bridge) editorCommand() []string {
	editor := b.editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vim"
	}
	return strings.Fields(editor)
}

// splitCommands are open modes that only make sense inside an editor;
// they open in the configured editor.
var splitCommands = map[string]bool{
	"": true, "edit": true, "split": true, "vsplit": true,
	"tabedit": true, "pedit": true, "drop": true,
}

func (b *bridge) OpenPath(path, command string) error {
	argv := b.editorCommand()
	if !splitCommands[command] {
		argv = strings.Fields(command)
	}
	argv = append(argv, path)
	b.logger.Debug("open", "argv", argv)
	return b.exec(exec.Command(argv[0], argv[1:]...))
}

func (b *bridge) Preview(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.preview = path
	return nil
}

// ExecuteSystem opens path with the desktop's default application.
func (b *bridge) ExecuteSystem(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("execute_system: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (b *bridge) Print(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.toasts = append(b.out.toasts, toast{text: msg})
}

func (b *bridge) Error(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.toasts = append(b.out.toasts, toast{text: msg, isError: true})
}

func (b *bridge) Yank(text string) error {
	return clipboard.WriteAll(text)
}

func (b *bridge) RenameBuffer(oldPath, newPath string) {
	b.logger.Debug("buffer renamed", "old", oldPath, "new", newPath)
}

func (b *bridge) DeleteBuffer(path string) {
	b.logger.Debug("buffer deleted", "path", path)
}

// BulkRename edits the names of paths in the editor, one per line, and
// renames every line that changed.
func (b *bridge) BulkRename(paths []string, cwd string) error {
	f, err := os.CreateTemp("", "sidetree-rename-*.txt")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	for _, p := range paths {
		rel, err := filepath.Rel(cwd, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = p
		}
		fmt.Fprintln(f, rel)
	}
	if err := f.Close(); err != nil {
		return err
	}

	argv := append(b.editorCommand(), f.Name())
	if err := b.exec(exec.Command(argv[0], argv[1:]...)); err != nil {
		return fmt.Errorf("bulk rename: %w", err)
	}

	names, err := readLines(f.Name())
	if err != nil {
		return err
	}
	if len(names) != len(paths) {
		return fmt.Errorf("bulk rename: got %d names for %d files", len(names), len(paths))
	}
	return renameAll(paths, names, cwd)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// renameAll renames paths[i] to names[i], resolved against cwd.
func renameAll(paths, names []string, cwd string) error {
	var errs []error
	for i, src := range paths {
		dst := names[i]
		if !filepath.IsAbs(dst) {
			dst = filepath.Join(cwd, dst)
		}
		dst = filepath.Clean(dst)
		if dst == src {
			continue
		}
		if err := fileops.Rename(src, dst); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Call runs function as an external command with payload as JSON on
// stdin. Its output is shown as a message.
func (b *bridge) Call(function string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	argv := strings.Fields(function)
	if len(argv) == 0 {
		return errors.New("call: no function")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("call %s: %w", function, err)
	}
	if s := strings.TrimSpace(string(out)); s != "" {
		b.Print(s)
	}
	return nil
}

func (b *bridge) Quit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.quit = true
}
