package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/sidetree/internal/styles"
)

// PromptKind is the kind of question a prompt asks.
type PromptKind int

const (
	PromptConfirm PromptKind = iota
	PromptChoose
	PromptInput
)

// Prompt is a modal question. Confirm prompts are a two-way choice.
type Prompt struct {
	Kind     PromptKind
	Question string
	Choices  []string
	Cursor   int

	// Completion selects tab completion for input prompts: "file" and
	// "shellcmd" complete paths below BaseDir, anything else disables it.
	Completion string
	BaseDir    string

	input textinput.Model
}

// PromptResult is the answer to a finished prompt.
type PromptResult struct {
	Index     int // chosen index, -1 on cancel
	Text      string
	Confirmed bool
	Cancelled bool
}

// NewConfirm asks a yes/no question.
func NewConfirm(question string) *Prompt {
	return &Prompt{Kind: PromptConfirm, Question: question, Choices: []string{"Yes", "No"}}
}

// NewChoose asks the user to pick one of choices.
func NewChoose(question string, choices []string) *Prompt {
	return &Prompt{Kind: PromptChoose, Question: question, Choices: choices}
}

// NewInput asks for a line of text starting from text.
func NewInput(question, text, completion, baseDir string) *Prompt {
	ti := textinput.New()
	ti.Prompt = ""
	ti.SetValue(text)
	ti.CursorEnd()
	ti.Focus()
	return &Prompt{
		Kind:       PromptInput,
		Question:   question,
		Completion: completion,
		BaseDir:    baseDir,
		input:      ti,
	}
}

// Value returns the current input text.
func (p *Prompt) Value() string { return p.input.Value() }

// Update handles a key. It returns the result once the prompt is done.
func (p *Prompt) Update(msg tea.KeyMsg) (*PromptResult, tea.Cmd) {
	if msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC {
		return &PromptResult{Index: -1, Cancelled: true}, nil
	}
	if p.Kind == PromptInput {
		switch msg.Type {
		case tea.KeyEnter:
			return &PromptResult{Text: p.input.Value(), Confirmed: true}, nil
		case tea.KeyTab:
			if p.Completion == "file" || p.Completion == "shellcmd" {
				p.input.SetValue(CompletePath(p.BaseDir, p.input.Value()))
				p.input.CursorEnd()
			}
			return nil, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return nil, cmd
	}

	switch msg.String() {
	case "enter":
		return p.choose(p.Cursor), nil
	case "left", "h", "up", "k", "shift+tab":
		p.Cursor = (p.Cursor - 1 + len(p.Choices)) % len(p.Choices)
	case "right", "l", "down", "j", "tab":
		p.Cursor = (p.Cursor + 1) % len(p.Choices)
	case "y", "Y":
		if p.Kind == PromptConfirm {
			return p.choose(0), nil
		}
	case "n", "N":
		if p.Kind == PromptConfirm {
			return p.choose(1), nil
		}
	default:
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(p.Choices) {
				return p.choose(i), nil
			}
		}
	}
	return nil, nil
}

func (p *Prompt) choose(i int) *PromptResult {
	return &PromptResult{Index: i, Confirmed: p.Kind != PromptConfirm || i == 0}
}

// View renders the prompt box at most width columns wide.
func (p *Prompt) View(width int) string {
	boxWidth := min(max(width-8, 20), 72)
	var b strings.Builder
	b.WriteString(styles.Title.Render(p.Question))
	b.WriteString("\n\n")

	if p.Kind == PromptInput {
		p.input.Width = boxWidth - 6
		b.WriteString(p.input.View())
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render("enter confirm · esc cancel"))
	} else {
		var items []string
		for i, c := range p.Choices {
			label := c
			if p.Kind == PromptChoose {
				label = fmt.Sprintf("%d %s", i+1, c)
			}
			if i == p.Cursor {
				items = append(items, styles.ChoiceActive.Render(label))
			} else {
				items = append(items, styles.ChoiceInactive.Render(label))
			}
		}
		if p.Kind == PromptChoose && len(p.Choices) > 3 {
			b.WriteString(lipgloss.JoinVertical(lipgloss.Left, items...))
		} else {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, items...))
		}
	}
	return styles.ModalBox.Width(boxWidth).Render(b.String())
}

// CompletePath completes the last word of text as a path below base. A
// unique match gets a trailing separator when it is a directory; several
// matches complete to their longest common prefix.
func CompletePath(base, text string) string {
	head, word := "", text
	if i := strings.LastIndexByte(text, ' '); i >= 0 {
		head, word = text[:i+1], text[i+1:]
	}

	dir, prefix := filepath.Split(word)
	lookup := dir
	if !filepath.IsAbs(lookup) {
		lookup = filepath.Join(base, lookup)
	}
	entries, err := os.ReadDir(lookup)
	if err != nil {
		return text
	}

	var matches []os.DirEntry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return text
	case 1:
		name := matches[0].Name()
		if matches[0].IsDir() {
			name += string(filepath.Separator)
		}
		return head + dir + name
	}

	common := matches[0].Name()
	for _, m := range matches[1:] {
		n := m.Name()
		i := 0
		for i < len(common) && i < len(n) && common[i] == n[i] {
			i++
		}
		common = common[:i]
	}
	return head + dir + common
}
