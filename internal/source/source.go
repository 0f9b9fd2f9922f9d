// Package source lists directory children for the tree model.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RawEntry is a single listed child before it becomes a tree row.
type RawEntry struct {
	Name     string // display label, directories end with "/"
	Path     string // absolute path
	IsDir    bool
	Size     int64 // -1 when the entry could not be stat'ed
	ModTime  time.Time
	Readable bool
}

// CandidateSource enumerates the immediate children of a directory.
// Implementations must not recurse.
type CandidateSource interface {
	Name() string
	ListChildren(dir string) ([]RawEntry, error)
	RootDescriptor(path string) RawEntry
}

// NotReadableError reports a directory that could not be listed.
type NotReadableError struct {
	Path string
	Err  error
}

func (e *NotReadableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s is not readable", e.Path)
	}
	return fmt.Sprintf("%s is not readable: %v", e.Path, e.Err)
}

func (e *NotReadableError) Unwrap() error { return e.Err }

// IsNotReadable reports whether err is (or wraps) a NotReadableError.
func IsNotReadable(err error) bool {
	var nre *NotReadableError
	return errors.As(err, &nre)
}

// FileSource lists the local filesystem.
type FileSource struct {
	home string
}

// NewFileSource creates a filesystem source. The home directory is used
// to abbreviate root labels.
func NewFileSource() *FileSource {
	home, _ := os.UserHomeDir()
	return &FileSource{home: home}
}

// Name returns "file".
func (s *FileSource) Name() string { return "file" }

// ListChildren returns the direct children of dir in directory order.
func (s *FileSource) ListChildren(dir string) ([]RawEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &NotReadableError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotReadableError{Path: dir, Err: errors.New("not a directory")}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &NotReadableError{Path: dir, Err: err}
	}

	out := make([]RawEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.entry(filepath.Join(dir, e.Name()), e))
	}
	return out, nil
}

func (s *FileSource) entry(path string, de fs.DirEntry) RawEntry {
	re := RawEntry{
		Name: de.Name(),
		Path: path,
		Size: -1,
	}

	// Stat follows symlinks so a link to a directory behaves as one.
	info, err := os.Stat(path)
	if err != nil {
		re.IsDir = de.IsDir()
	} else {
		re.IsDir = info.IsDir()
		re.Size = info.Size()
		re.ModTime = info.ModTime()
		re.Readable = true
	}
	if re.IsDir {
		re.Name += "/"
	}
	return re
}

// RootDescriptor describes path as a root row.
func (s *FileSource) RootDescriptor(path string) RawEntry {
	re := RawEntry{
		Name:  s.Abbreviate(path),
		Path:  path,
		IsDir: true,
		Size:  -1,
	}
	if info, err := os.Stat(path); err == nil {
		re.Size = info.Size()
		re.ModTime = info.ModTime()
		re.Readable = true
	}
	if !strings.HasSuffix(re.Name, "/") {
		re.Name += "/"
	}
	return re
}

// Abbreviate replaces the home directory prefix of path with "~".
func (s *FileSource) Abbreviate(path string) string {
	if s.home == "" {
		return path
	}
	if path == s.home {
		return "~"
	}
	if strings.HasPrefix(path, s.home+string(filepath.Separator)) {
		return "~" + path[len(s.home):]
	}
	return path
}
