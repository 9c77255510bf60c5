package components

import (
	"strings"

	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// the loaded file and its load time on the right.
func RenderStatusBar(width int, file, loadTime string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	left := keyStyle.Render(" ?") + style.Render(" help  ") +
		keyStyle.Render("u") + style.Render(" upload  ") +
		keyStyle.Render("r") + style.Render(" reload  ") +
		keyStyle.Render("q") + style.Render(" quit")

	right := ""
	if file != "" {
		right = file
		if loadTime != "" {
			right += " · " + loadTime
		}
		right += " "
	}

	maxRight := width - lipgloss.Width(left) - 1
	if maxRight < 0 {
		maxRight = 0
	}
	if lipgloss.Width(right) > maxRight {
		runes := []rune(right)
		if maxRight > 1 && len(runes) > maxRight {
			right = "…" + string(runes[len(runes)-maxRight+1:])
		} else {
			right = ""
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + style.Render(strings.Repeat(" ", padding)+right)
}
