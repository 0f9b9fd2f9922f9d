// Package sorter orders listed entries by a colon-separated key chain
// such as "filename" or "extension:Size".
package sorter

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/marcus/sidetree/internal/source"
)

// Default is the method used when none is configured.
const Default = "filename"

type compareFunc func(a, b *source.RawEntry) int

var keys = map[string]compareFunc{
	"filename":  compareFilename,
	"extension": compareExtension,
	"size":      compareSize,
	"time":      compareTime,
}

type key struct {
	cmp     compareFunc
	reverse bool
}

// parse turns a method string into its comparators. Unknown keys are
// dropped; a leading upper-case letter reverses the key.
func parse(method string) []key {
	var chain []key
	for _, part := range strings.Split(method, ":") {
		if part == "" {
			continue
		}
		fn, ok := keys[strings.ToLower(part)]
		if !ok {
			continue
		}
		chain = append(chain, key{
			cmp:     fn,
			reverse: unicode.IsUpper(rune(part[0])),
		})
	}
	return chain
}

// Valid reports whether method contains at least one known key.
func Valid(method string) bool {
	return len(parse(method)) > 0
}

// Sort returns entries with directories first, each group ordered by the
// key chain. The sort is stable, so sorting twice gives the same result.
func Sort(method string, entries []source.RawEntry) []source.RawEntry {
	chain := parse(method)

	out := make([]source.RawEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			out = append(out, e)
		}
	}
	nDirs := len(out)
	for _, e := range entries {
		if !e.IsDir {
			out = append(out, e)
		}
	}

	if len(chain) == 0 {
		return out
	}

	byChain := func(a, b source.RawEntry) int {
		for _, k := range chain {
			c := k.cmp(&a, &b)
			if k.reverse {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
	slices.SortStableFunc(out[:nDirs], byChain)
	slices.SortStableFunc(out[nDirs:], byChain)
	return out
}

func compareFilename(a, b *source.RawEntry) int {
	return NaturalCompare(bareName(a), bareName(b))
}

// bareName drops the "/" directory marker so directories order like files
// of the same name.
func bareName(e *source.RawEntry) string {
	return strings.ToLower(strings.TrimSuffix(e.Name, "/"))
}

func compareExtension(a, b *source.RawEntry) int {
	return cmp.Compare(Extension(a.Name), Extension(b.Name))
}

func compareSize(a, b *source.RawEntry) int {
	return cmp.Compare(a.Size, b.Size)
}

func compareTime(a, b *source.RawEntry) int {
	return cmp.Compare(unixTime(a), unixTime(b))
}

func unixTime(e *source.RawEntry) int64 {
	if e.ModTime.IsZero() {
		return 0
	}
	return e.ModTime.Unix()
}

// Extension returns the final dot suffix of name. Dotfiles without a
// further dot and names ending in a dot have no extension.
func Extension(name string) string {
	name = strings.TrimSuffix(name, "/")
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// NaturalCompare compares a and b treating runs of ASCII digits as
// numbers, so "file2" < "file10".
func NaturalCompare(a, b string) int {
	for a != "" && b != "" {
		ra, restA := nextRun(a)
		rb, restB := nextRun(b)
		aNum, bNum := isDigit(ra[0]), isDigit(rb[0])

		var c int
		switch {
		case aNum && bNum:
			c = compareNumeric(ra, rb)
		case aNum != bNum:
			// A number sorts before text at the same position.
			if aNum {
				c = -1
			} else {
				c = 1
			}
		default:
			c = strings.Compare(ra, rb)
		}
		if c != 0 {
			return c
		}
		a, b = restA, restB
	}
	return cmp.Compare(len(a), len(b))
}

func nextRun(s string) (run, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
