package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/tui/components"
	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderShareTab renders a scrollable cost table for one dimension.
// height is the content zone height; the table fills it.
func (a App) renderShareTab(title, nameHeader string, rows []model.CostShare, cw, height int) string {
	t := theme.Active

	innerW := components.CardInnerWidth(cw)
	costW, shareW, recW := 12, 7, 8
	compact := a.isCompactLayout()
	if compact {
		recW = 0
	}
	barW := 0
	if !compact {
		barW = 20
	}

	gaps := 2
	if recW > 0 {
		gaps++
	}
	if barW > 0 {
		gaps++
	}
	nameW := innerW - costW - shareW - recW - barW - gaps
	if nameW < 12 {
		nameW = 12
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	costStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	nameColors := []lipgloss.Color{t.BlueBright, t.Cyan, t.Magenta, t.Yellow, t.Green}
	nameStyles := make([]lipgloss.Style, len(nameColors))
	for i, c := range nameColors {
		nameStyles[i] = lipgloss.NewStyle().Foreground(c).Background(t.Surface)
	}

	var body strings.Builder
	header := fmt.Sprintf("%-*s %*s %*s", nameW, nameHeader, costW, "Cost", shareW, "Share")
	if barW > 0 {
		header += " " + strings.Repeat(" ", barW)
	}
	if recW > 0 {
		header += fmt.Sprintf(" %*s", recW, "Records")
	}
	body.WriteString(headerStyle.Render(header))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", lipgloss.Width(header))))

	if len(rows) == 0 {
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render("No data"))
		return components.ContentCard(title, body.String(), cw)
	}

	// Card border (2) + title + table header + rule + scroll hint.
	visible := height - 6
	if visible < 1 {
		visible = 1
	}
	offset := a.scroll
	if offset > len(rows)-1 {
		offset = len(rows) - 1
	}
	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}

	maxShare := rows[0].SharePercent
	for _, r := range rows {
		if r.SharePercent > maxShare {
			maxShare = r.SharePercent
		}
	}

	for i := offset; i < end; i++ {
		r := rows[i]
		body.WriteString("\n")
		body.WriteString(nameStyles[i%len(nameStyles)].Render(fmt.Sprintf("%-*s", nameW, truncStr(r.Name, nameW))))
		body.WriteString(costStyle.Render(fmt.Sprintf(" %*s", costW, cli.FormatCost(r.Cost))))
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", shareW, cli.FormatShare(r.SharePercent))))
		if barW > 0 {
			body.WriteString(space)
			body.WriteString(components.ShareBar(r.SharePercent, maxShare, barW, components.ColorForShare(r.SharePercent)))
		}
		if recW > 0 {
			body.WriteString(mutedStyle.Render(fmt.Sprintf(" %*s", recW, cli.FormatNumber(int64(r.Records)))))
		}
	}

	if offset > 0 || end < len(rows) {
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(fmt.Sprintf("%d-%d of %d  (j/k to scroll)", offset+1, end, len(rows))))
	}

	return components.ContentCard(title, body.String(), cw)
}
