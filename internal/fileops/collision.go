package fileops

import (
	"fmt"
	"os"
	"path/filepath"
)

// Choice is an answer to a paste collision.
type Choice int

const (
	ChoiceForce Choice = iota
	ChoiceNo
	ChoiceRename
	ChoiceTime
	ChoiceUnderbar
)

// Choices are the labels offered for a collision, indexed by Choice. The
// letter after "&" is the shortcut.
var Choices = []string{"&Force", "&No", "&Rename", "&Time", "&Underbar"}

// Asker prompts the user during a paste.
type Asker interface {
	// Choose returns the index of the picked choice, or -1 on cancel.
	Choose(question string, choices []string) int
	// Input returns the entered text and false on cancel.
	Input(prompt, text, completion string) (string, bool)
}

// maxCollisionRounds bounds rename/underbar retries.
const maxCollisionRounds = 100

// ResolveDestination decides where src is pasted when dest may already
// exist. It returns the path to write, whether an existing file there
// must be replaced, and "" when the paste of src should be skipped.
func ResolveDestination(src, dest string, ask Asker) (string, bool, error) {
	for range maxCollisionRounds {
		dinfo, err := os.Lstat(dest)
		if os.IsNotExist(err) {
			return dest, false, nil
		}
		if err != nil {
			return "", false, err
		}

		q := fmt.Sprintf("%s already exists. Overwrite?", dest)
		switch Choice(ask.Choose(q, Choices)) {
		case ChoiceForce:
			return dest, true, nil
		case ChoiceRename:
			name, ok := ask.Input(fmt.Sprintf("%s -> ", src), dest, "file")
			if !ok || name == "" {
				return "", false, nil
			}
			if !filepath.IsAbs(name) {
				name = filepath.Join(filepath.Dir(dest), name)
			}
			dest = filepath.Clean(name)
		case ChoiceTime:
			sinfo, err := os.Stat(src)
			if err != nil {
				return "", false, err
			}
			if dinfo.ModTime().Before(sinfo.ModTime()) {
				return dest, true, nil
			}
			return "", false, nil
		case ChoiceUnderbar:
			dest += "_"
		default:
			return "", false, nil
		}
	}
	return "", false, fmt.Errorf("%s: too many attempts to find a free name", src)
}
