package tui

import (
	"strings"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/tui/components"
	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func severityColor(s model.Severity) lipgloss.Color {
	t := theme.Active
	switch s {
	case model.SeverityCritical:
		return t.Red
	case model.SeverityWarning:
		return t.Orange
	default:
		return t.Blue
	}
}

func (a App) renderAdviceTab(cw int) string {
	t := theme.Active
	recs := a.summary.Recommendations
	innerW := components.CardInnerWidth(cw)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(recs) == 0 {
		return components.ContentCard("Optimization Recommendations",
			muted.Render("No recommendations for this period."), cw)
	}

	offset := a.scroll
	if offset > len(recs)-1 {
		offset = len(recs) - 1
	}

	var body strings.Builder
	for i, r := range recs[offset:] {
		if i > 0 {
			body.WriteString("\n\n")
		}
		color := severityColor(r.Severity)
		badge := lipgloss.NewStyle().
			Foreground(t.Background).
			Background(color).
			Bold(true).
			Padding(0, 1).
			Render(strings.ToUpper(string(r.Severity)))
		title := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true).
			Render(" " + truncStr(r.Title, innerW-lipgloss.Width(badge)-14))
		amount := ""
		if !r.Amount.IsZero() {
			amount = lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).
				Render("  " + cli.FormatCost(r.Amount))
		}

		body.WriteString(badge + title + amount)
		body.WriteString("\n")
		body.WriteString(muted.Width(innerW).Render(r.Detail))
	}

	return components.ContentCard("Optimization Recommendations", body.String(), cw)
}
