// Package watcher reports changes in the directories a view shows.
package watcher

import (
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports that something in Dir changed. Bursts are coalesced, so
// Dir is the directory of the last change in the burst.
type Event struct {
	Dir string
}

// Watcher watches a changing set of directories, non-recursively.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	events   chan Event

	mu     sync.Mutex
	dirs   map[string]bool
	timer  *time.Timer
	closed bool
}

// New starts a watcher. Events are delayed until no change arrived for
// debounce.
func New(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w := &Watcher{
		fs:       fw,
		logger:   logger,
		debounce: debounce,
		events:   make(chan Event, 8),
		dirs:     make(map[string]bool),
	}
	go w.loop()
	return w, nil
}

// Events returns the event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Sync makes dirs the watched set.
func (w *Watcher) Sync(dirs []string) {
	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[filepath.Clean(d)] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for d := range w.dirs {
		if !want[d] {
			_ = w.fs.Remove(d)
			delete(w.dirs, d)
		}
	}
	for d := range want {
		if w.dirs[d] {
			continue
		}
		if err := w.fs.Add(d); err != nil {
			// Unreadable directories are simply not watched.
			w.logger.Debug("watch failed", "dir", d, "err", err)
			continue
		}
		w.dirs[d] = true
	}
}

// Watched returns the watched directories in sorted order.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Close stops watching and closes the event channel.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer func() {
		w.mu.Lock()
		w.closed = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		close(w.events)
	}()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.schedule(filepath.Dir(ev.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) schedule(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed {
			return
		}
		select {
		case w.events <- Event{Dir: dir}:
		default:
		}
	})
}
