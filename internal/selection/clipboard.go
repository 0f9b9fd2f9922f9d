package selection

import "github.com/marcus/sidetree/internal/tree"

// Op is the pending clipboard operation.
type Op int

const (
	OpNone Op = iota
	OpCopy
	OpMove
	OpLink
)

func (o Op) String() string {
	switch o {
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	case OpLink:
		return "link"
	default:
		return "none"
	}
}

// Clipboard holds candidates waiting to be pasted. It is shared by every
// view of a process.
type Clipboard struct {
	Op         Op
	Candidates []tree.Candidate
	SourceName string
	Mode       string
}

// Set replaces the clipboard contents with copies of cands.
func (c *Clipboard) Set(op Op, cands []*tree.Candidate, sourceName string) {
	c.Op = op
	c.SourceName = sourceName
	c.Mode = ""
	c.Candidates = make([]tree.Candidate, len(cands))
	for i, cand := range cands {
		c.Candidates[i] = *cand
	}
}

// Reset empties the clipboard.
func (c *Clipboard) Reset() {
	c.Op = OpNone
	c.Candidates = nil
	c.SourceName = ""
	c.Mode = ""
}

// Empty reports whether there is nothing to paste.
func (c *Clipboard) Empty() bool {
	return c.Op == OpNone || len(c.Candidates) == 0
}

// Paths returns the clipboard paths in order.
func (c *Clipboard) Paths() []string {
	out := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		out[i] = cand.Path
	}
	return out
}
