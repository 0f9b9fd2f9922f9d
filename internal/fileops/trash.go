package fileops

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// MissingDependencyError reports an optional capability that is not
// available on this system.
type MissingDependencyError struct {
	Feature string
	Reason  string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is unavailable: %s", e.Feature, e.Reason)
}

// Trasher moves paths to a recoverable location.
type Trasher interface {
	Trash(path string) (string, error)
}

// DirTrash is a trash directory. When InfoDir is set, a freedesktop
// .trashinfo file is written for each item.
type DirTrash struct {
	FilesDir string
	InfoDir  string
	now      func() time.Time
}

// NewTrasher returns the trash for the current platform.
func NewTrasher() (Trasher, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, &MissingDependencyError{Feature: "trash", Reason: err.Error()}
	}
	switch runtime.GOOS {
	case "darwin":
		return &DirTrash{FilesDir: filepath.Join(home, ".Trash")}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return NewXDGTrash(trashHome(home)), nil
	default:
		return nil, &MissingDependencyError{Feature: "trash", Reason: "no trash location on " + runtime.GOOS}
	}
}

// NewXDGTrash returns a freedesktop trash rooted at dir.
func NewXDGTrash(dir string) *DirTrash {
	return &DirTrash{
		FilesDir: filepath.Join(dir, "files"),
		InfoDir:  filepath.Join(dir, "info"),
	}
}

func trashHome(home string) string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "Trash")
	}
	return filepath.Join(home, ".local", "share", "Trash")
}

// Trash moves path into the trash and returns its new location.
func (t *DirTrash) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", err
	}
	if err := os.MkdirAll(t.FilesDir, 0700); err != nil {
		return "", err
	}

	base := filepath.Base(abs)
	name := base
	for Exists(filepath.Join(t.FilesDir, name)) || (t.InfoDir != "" && Exists(t.infoPath(name))) {
		name = base + uniqueSuffix()
	}

	if t.InfoDir != "" {
		if err := t.writeInfo(name, abs); err != nil {
			return "", err
		}
	}

	dst := filepath.Join(t.FilesDir, name)
	if err := Move(abs, dst); err != nil {
		if t.InfoDir != "" {
			_ = os.Remove(t.infoPath(name))
		}
		return "", err
	}
	return dst, nil
}

func (t *DirTrash) infoPath(name string) string {
	return filepath.Join(t.InfoDir, name+".trashinfo")
}

func (t *DirTrash) writeInfo(name, orig string) error {
	if err := os.MkdirAll(t.InfoDir, 0700); err != nil {
		return err
	}
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	u := url.URL{Path: orig}
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		u.EscapedPath(), now().Format("2006-01-02T15:04:05"))
	return os.WriteFile(t.infoPath(name), []byte(info), 0600)
}

func uniqueSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf(".%d", time.Now().UnixNano())
	}
	return "." + hex.EncodeToString(b)
}
