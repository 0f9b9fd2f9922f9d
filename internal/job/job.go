// Package job runs external commands for the browser. At most one
// background job is registered at a time; starting another cancels it.
package job

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Runner owns the single registered background job.
type Runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Start replaces the registered job with a new one running argv in dir.
// It does not wait for the command to finish.
func (r *Runner) Start(dir string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			r.logger.Warn("job failed", "cmd", argv[0], "err", err)
		}
		r.mu.Lock()
		if r.done == done {
			r.cancel = nil
			r.done = nil
		}
		r.mu.Unlock()
		cancel()
	}()
	return nil
}

// Stop cancels the registered job, if any, and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether a job is registered.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done != nil
}

// Output runs argv in dir and returns its combined output.
func Output(ctx context.Context, dir string, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return strings.TrimRight(buf.String(), "\n"), err
}

// Expand substitutes targets into a command line. "*" expands to every
// target; otherwise "%" is replaced by the single target given.
func Expand(args []string, targets []string) []string {
	var out []string
	for _, a := range args {
		if a == "*" {
			out = append(out, targets...)
			continue
		}
		out = append(out, a)
	}
	return out
}

// ExpandEach builds one command per target by replacing "%" in args. When
// no argument contains "%", the target is appended.
func ExpandEach(args []string, target string) []string {
	var out []string
	found := false
	for _, a := range args {
		if strings.Contains(a, "%") {
			found = true
			a = strings.ReplaceAll(a, "%", target)
		}
		out = append(out, a)
	}
	if !found {
		out = append(out, target)
	}
	return out
}
