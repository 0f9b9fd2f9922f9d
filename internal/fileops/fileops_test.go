package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"file.txt", false},
		{"dir/", false},
		{"", true},
		{"/", true},
		{".", true},
		{"..", true},
		{"bad\x00name", true},
		{"line\nbreak", true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCreate(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "nested", "new.txt")
	if err := Create(file, false); err != nil {
		t.Fatalf("Create file: %v", err)
	}
	if info, err := os.Stat(file); err != nil || info.IsDir() {
		t.Errorf("file not created: %v", err)
	}

	dir := filepath.Join(tmpDir, "a", "b")
	if err := Create(dir, true); err != nil {
		t.Fatalf("Create dir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("dir not created: %v", err)
	}

	var pee *PathExistsError
	if err := Create(file, false); !errors.As(err, &pee) {
		t.Errorf("second Create = %v, want PathExistsError", err)
	}
}

func TestRename(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "old.txt")
	taken := filepath.Join(tmpDir, "taken.txt")
	writeFile(t, src, "data")
	writeFile(t, taken, "other")

	var pee *PathExistsError
	if err := Rename(src, taken); !errors.As(err, &pee) {
		t.Fatalf("rename onto existing = %v, want PathExistsError", err)
	}

	dst := filepath.Join(tmpDir, "sub", "new.txt")
	if err := Rename(src, dst); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if Exists(src) || readFile(t, dst) != "data" {
		t.Error("rename did not move the file")
	}

	upper := filepath.Join(tmpDir, "sub", "NEW.txt")
	if err := Rename(dst, upper); err != nil {
		t.Fatalf("case-only rename: %v", err)
	}
	if readFile(t, upper) != "data" {
		t.Error("case-only rename lost content")
	}
}

func TestRename_CaseOnlyOntoOtherFile(t *testing.T) {
	tmpDir := t.TempDir()
	lower := filepath.Join(tmpDir, "a.txt")
	upper := filepath.Join(tmpDir, "A.txt")
	writeFile(t, lower, "lower")
	writeFile(t, upper, "upper")
	if sameFile(lower, upper) {
		t.Skip("case-insensitive filesystem")
	}

	var pee *PathExistsError
	if err := Rename(lower, upper); !errors.As(err, &pee) {
		t.Fatalf("Rename = %v, want PathExistsError", err)
	}
	if readFile(t, upper) != "upper" {
		t.Error("existing file was overwritten")
	}
	if readFile(t, lower) != "lower" {
		t.Error("source changed")
	}
}

func TestCopy_PreservesMetadata(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.sh")
	dst := filepath.Join(tmpDir, "dst.sh")
	writeFile(t, src, "#!/bin/sh\n")
	if err := os.Chmod(src, 0750); err != nil {
		t.Fatal(err)
	}
	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(src, old, old); err != nil {
		t.Fatal(err)
	}

	if err := Copy(src, dst); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), old)
	}
	if info.Mode().Perm() != 0750 {
		t.Errorf("mode = %v, want 0750", info.Mode().Perm())
	}
}

func TestCopy_Tree(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "deep", "b.txt"), "b")
	if err := os.Symlink("a.txt", filepath.Join(src, "link")); err != nil {
		t.Skip("symlinks unsupported:", err)
	}

	dst := filepath.Join(tmpDir, "dst")
	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if readFile(t, filepath.Join(dst, "deep", "b.txt")) != "b" {
		t.Error("nested file not copied")
	}
	target, err := os.Readlink(filepath.Join(dst, "link"))
	if err != nil || target != "a.txt" {
		t.Errorf("link = %q, %v", target, err)
	}
	if readFile(t, filepath.Join(src, "a.txt")) != "a" {
		t.Error("source changed")
	}
}

func TestMoveAndLink(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.txt")
	writeFile(t, src, "x")

	moved := filepath.Join(tmpDir, "moved.txt")
	if err := Move(src, moved); err != nil {
		t.Fatal(err)
	}
	if Exists(src) || !Exists(moved) {
		t.Error("move did not relocate the file")
	}

	link := filepath.Join(tmpDir, "link.txt")
	if err := Link(moved, link); err != nil {
		t.Fatal(err)
	}
	if target, _ := os.Readlink(link); target != moved {
		t.Errorf("link target = %q", target)
	}

	if err := Remove(link); err != nil {
		t.Fatal(err)
	}
	if !Exists(moved) {
		t.Error("removing a link removed its target")
	}
}

// scriptedAsker answers prompts from fixed lists.
type scriptedAsker struct {
	choices []Choice
	inputs  []string
	asked   int
}

func (a *scriptedAsker) Choose(string, []string) int {
	if len(a.choices) == 0 {
		return -1
	}
	c := a.choices[0]
	a.choices = a.choices[1:]
	a.asked++
	return int(c)
}

func (a *scriptedAsker) Input(string, string, string) (string, bool) {
	if len(a.inputs) == 0 {
		return "", false
	}
	s := a.inputs[0]
	a.inputs = a.inputs[1:]
	return s, true
}

func TestResolveDestination(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src", "f.txt")
	dest := filepath.Join(tmpDir, "dst", "f.txt")
	writeFile(t, src, "new")
	writeFile(t, dest, "old")
	writeFile(t, filepath.Join(tmpDir, "dst", "taken.txt"), "")

	now := time.Now()
	tests := []struct {
		name        string
		srcTime     time.Time
		asker       *scriptedAsker
		want        string
		wantReplace bool
	}{
		{"force", now, &scriptedAsker{choices: []Choice{ChoiceForce}}, dest, true},
		{"no", now, &scriptedAsker{choices: []Choice{ChoiceNo}}, "", false},
		{"cancel", now, &scriptedAsker{}, "", false},
		{"rename", now, &scriptedAsker{choices: []Choice{ChoiceRename}, inputs: []string{"g.txt"}},
			filepath.Join(tmpDir, "dst", "g.txt"), false},
		{"rename onto taken asks again", now,
			&scriptedAsker{choices: []Choice{ChoiceRename, ChoiceRename}, inputs: []string{"taken.txt", "h.txt"}},
			filepath.Join(tmpDir, "dst", "h.txt"), false},
		{"rename cancelled", now, &scriptedAsker{choices: []Choice{ChoiceRename}}, "", false},
		{"underbar", now, &scriptedAsker{choices: []Choice{ChoiceUnderbar}}, dest + "_", false},
		{"time newer source", now.Add(time.Hour), &scriptedAsker{choices: []Choice{ChoiceTime}}, dest, true},
		{"time older source", now.Add(-48 * time.Hour), &scriptedAsker{choices: []Choice{ChoiceTime}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.Chtimes(src, tt.srcTime, tt.srcTime); err != nil {
				t.Fatal(err)
			}
			if err := os.Chtimes(dest, now, now); err != nil {
				t.Fatal(err)
			}
			got, replace, err := ResolveDestination(src, dest, tt.asker)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || replace != tt.wantReplace {
				t.Errorf("got (%q, %v), want (%q, %v)", got, replace, tt.want, tt.wantReplace)
			}
		})
	}
}

func TestResolveDestination_Free(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "free.txt")
	asker := &scriptedAsker{}
	got, replace, err := ResolveDestination("/src/free.txt", dest, asker)
	if err != nil || got != dest || replace {
		t.Errorf("got (%q, %v, %v)", got, replace, err)
	}
	if asker.asked != 0 {
		t.Error("free destination should not prompt")
	}
}

func TestDirTrash(t *testing.T) {
	tmpDir := t.TempDir()
	trash := NewXDGTrash(filepath.Join(tmpDir, "Trash"))
	trash.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local) }

	victim := filepath.Join(tmpDir, "my file.txt")
	writeFile(t, victim, "bye")
	dst, err := trash.Trash(victim)
	if err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if Exists(victim) {
		t.Error("original still present")
	}
	if readFile(t, dst) != "bye" {
		t.Error("trashed content mismatch")
	}

	info := readFile(t, filepath.Join(tmpDir, "Trash", "info", "my file.txt.trashinfo"))
	if !strings.Contains(info, "Path="+strings.ReplaceAll(victim, " ", "%20")) {
		t.Errorf("info missing escaped path:\n%s", info)
	}
	if !strings.Contains(info, "DeletionDate=2024-05-06T07:08:09") {
		t.Errorf("info missing date:\n%s", info)
	}

	// A second item with the same name gets a distinct slot.
	writeFile(t, victim, "again")
	dst2, err := trash.Trash(victim)
	if err != nil {
		t.Fatal(err)
	}
	if dst2 == dst {
		t.Error("name collision in trash not handled")
	}
}
