package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// History records visited directories, most recent last.
type History interface {
	Record(ctx context.Context, path string) error
	Recent(ctx context.Context, limit int) ([]string, error)
	Close() error
}

// MemoryHistory keeps visits in memory without duplicates.
type MemoryHistory struct {
	mu    sync.Mutex
	paths []string
	limit int
}

// NewMemoryHistory keeps at most limit entries (0 means unbounded).
func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{limit: limit}
}

func (h *MemoryHistory) Record(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.paths {
		if p == path {
			h.paths = append(h.paths[:i], h.paths[i+1:]...)
			break
		}
	}
	h.paths = append(h.paths, path)
	if h.limit > 0 && len(h.paths) > h.limit {
		h.paths = h.paths[len(h.paths)-h.limit:]
	}
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	start := 0
	if limit > 0 && len(h.paths) > limit {
		start = len(h.paths) - limit
	}
	return append([]string(nil), h.paths[start:]...), nil
}

func (h *MemoryHistory) Close() error { return nil }

// SQLiteHistory stores visits in a SQLite database so they survive
// restarts.
type SQLiteHistory struct {
	db  *sql.DB
	now func() time.Time
}

const historySchema = `
CREATE TABLE IF NOT EXISTS history (
	path       TEXT PRIMARY KEY,
	visited_at INTEGER NOT NULL,
	visits     INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_history_visited ON history(visited_at);
`

// OpenSQLiteHistory opens or creates the history database at path.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}
	return &SQLiteHistory{db: db, now: time.Now}, nil
}

func (h *SQLiteHistory) Record(ctx context.Context, path string) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO history (path, visited_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET visited_at = excluded.visited_at, visits = visits + 1`,
		path, h.now().UnixNano())
	return err
}

func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT path FROM (
			SELECT path, visited_at FROM history ORDER BY visited_at DESC LIMIT ?
		) ORDER BY visited_at ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Visits returns how often path was recorded.
func (h *SQLiteHistory) Visits(ctx context.Context, path string) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, `SELECT visits FROM history WHERE path = ?`, path).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

func (h *SQLiteHistory) Close() error { return h.db.Close() }
