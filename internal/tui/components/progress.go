package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a progress bar followed by its percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)

	var barColor lipgloss.Color
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	default:
		barColor = t.Cyan
	}

	bar := progress.New(
		progress.WithSolidFill(string(barColor)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(pct) + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ShareBar renders a solid bar whose length is share/maxShare of width.
func ShareBar(share, maxShare float64, width int, color lipgloss.Color) string {
	t := theme.Active
	if width < 1 {
		return ""
	}
	n := 0
	if maxShare > 0 {
		n = int(share / maxShare * float64(width))
	}
	if n > width {
		n = width
	}
	if n < 0 {
		n = 0
	}
	if n == 0 && share > 0 {
		n = 1
	}

	filled := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	empty := lipgloss.NewStyle().Background(t.Surface)
	return filled.Render(strings.Repeat("█", n)) + empty.Render(strings.Repeat(" ", width-n))
}

// ColorForShare returns a warmer color as a share of spend grows.
func ColorForShare(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 50:
		return t.Red
	case pct >= 25:
		return t.Orange
	case pct >= 10:
		return t.Yellow
	default:
		return t.Green
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
