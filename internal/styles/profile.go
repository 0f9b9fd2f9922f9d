package styles

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ApplyColorProfile sets the lipgloss color profile for the TUI and
// returns it. NO_COLOR disables colors; CLICOLOR is ignored.
func ApplyColorProfile() termenv.Profile {
	profile := DetectProfile(termenv.ColorProfile(), os.Getenv("NO_COLOR"), os.Getenv("TERM"), os.Getenv("COLORTERM"))
	lipgloss.SetColorProfile(profile)
	return profile
}

// DetectProfile upgrades the detected profile when TERM or COLORTERM
// promise more than the terminal reported.
func DetectProfile(detected termenv.Profile, noColor, term, colorterm string) termenv.Profile {
	if strings.TrimSpace(noColor) != "" {
		return termenv.Ascii
	}
	term = strings.ToLower(term)
	colorterm = strings.ToLower(colorterm)
	switch {
	case detected == termenv.Ascii:
		if strings.Contains(term, "256color") {
			return termenv.ANSI256
		}
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		return termenv.TrueColor
	case strings.Contains(term, "256color") && detected == termenv.ANSI:
		return termenv.ANSI256
	}
	return detected
}

// ChromaFormatter names the chroma formatter matching profile.
func ChromaFormatter(profile termenv.Profile) string {
	switch profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	}
	return "noop"
}

// MarkdownStyle resolves "auto" to the glamour style matching the
// terminal background.
func MarkdownStyle(name string) string {
	if name != "auto" {
		return name
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
