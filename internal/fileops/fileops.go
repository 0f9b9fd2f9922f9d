// Package fileops performs the filesystem side of copy, move, link,
// create, rename and delete.
package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	cp "github.com/otiai10/copy"
)

// PathExistsError is returned when a create or rename target exists.
type PathExistsError struct {
	Path string
}

func (e *PathExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Path)
}

// Exists reports whether path exists without following a final symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ValidateName checks for invalid filename characters and patterns.
func ValidateName(name string) error {
	if strings.TrimSuffix(name, "/") == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid filename")
	}
	for _, r := range name {
		if r == 0 || (r < 32 && r != '\t') {
			return fmt.Errorf("filename contains invalid characters")
		}
	}
	return nil
}

// Create makes an empty file, or a directory when dir is true. Missing
// parents are created.
func Create(path string, dir bool) error {
	if Exists(path) {
		return &PathExistsError{Path: path}
	}
	if dir {
		return os.MkdirAll(path, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Rename moves src to dst when dst is free. A rename that only changes
// the case of the same file goes through a temporary name for
// case-insensitive filesystems.
func Rename(src, dst string) error {
	if src == dst {
		return nil
	}
	if Exists(dst) {
		if !strings.EqualFold(src, dst) || !sameFile(src, dst) {
			return &PathExistsError{Path: dst}
		}
		tmp := src + ".sidetree-rename-tmp"
		if err := os.Rename(src, tmp); err != nil {
			return fmt.Errorf("rename failed: %w", err)
		}
		if err := os.Rename(tmp, dst); err != nil {
			_ = os.Rename(tmp, src)
			return fmt.Errorf("rename failed: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func sameFile(a, b string) bool {
	ai, err := os.Lstat(a)
	if err != nil {
		return false
	}
	bi, err := os.Lstat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// copyOptions keeps permissions and times and recreates symlinks as
// links rather than following them.
var copyOptions = cp.Options{
	OnSymlink:     func(string) cp.SymlinkAction { return cp.Shallow },
	PreserveTimes: true,
}

// Copy copies a file or a whole directory tree to dst. An existing
// directory at dst is merged into.
func Copy(src, dst string) error {
	return cp.Copy(src, dst, copyOptions)
}

// Move renames src to dst, copying and deleting when they are on
// different filesystems.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := Copy(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// Link creates a symbolic link at dst pointing to src.
func Link(src, dst string) error {
	return os.Symlink(src, dst)
}

// Remove deletes a file, link, or directory tree.
func Remove(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}
