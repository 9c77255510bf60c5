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

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary
	k := s.KPIs
	var b strings.Builder

	// Row 1: Metric cards
	peak := components.Metric{Label: "Peak Day", Value: "-"}
	if k.PeakDay != "" {
		peak = components.Metric{Label: "Peak Day", Value: cli.FormatCost(k.PeakDayCost), Delta: k.PeakDay}
	}
	top := components.Metric{Label: "Top Service", Value: "-"}
	if len(s.ServiceBreakdown) > 0 {
		ts := s.ServiceBreakdown[0]
		top = components.Metric{
			Label: "Top Service",
			Value: truncStr(ts.Name, 24),
			Delta: fmt.Sprintf("%s (%s)", cli.FormatCost(ts.Cost), cli.FormatShare(ts.SharePercent)),
		}
	}

	cards := []components.Metric{
		{Label: "Total Cost", Value: cli.FormatCost(s.TotalCost), Delta: cli.FormatNumber(int64(k.RecordCount)) + " records"},
		{Label: "Avg / Day", Value: cli.FormatCost(k.AverageDailyCost), Delta: fmt.Sprintf("%d days", k.Days)},
		peak,
		top,
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Daily cost chart
	if len(s.DailyCosts) > 0 {
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Costs (%d days)", len(s.DailyCosts)),
			components.DailyCostChart(s.DailyCosts, t.Blue, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: Top services + top resource groups
	halves := components.LayoutRow(cw, 2)
	svcTitle := fmt.Sprintf("Top Services (%d)", k.ServiceCount)
	grpTitle := fmt.Sprintf("Top Resource Groups (%d)", k.ResourceGroupCount)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(svcTitle, a.topShares(s.ServiceBreakdown, components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard(grpTitle, a.topShares(s.ResourceGroupCosts, components.CardInnerWidth(cw)), cw))
	} else {
		b.WriteString(components.CardRow([]string{
			components.ContentCard(svcTitle, a.topShares(s.ServiceBreakdown, components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard(grpTitle, a.topShares(s.ResourceGroupCosts, components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}

	// Row 4: Data quality, only when something was left out
	if q := qualityLines(s); len(q) > 0 {
		b.WriteString("\n")
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		for i := range q {
			q[i] = warn.Render("! ") + lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(q[i])
		}
		b.WriteString(components.ContentCard("Data Quality", strings.Join(q, "\n"), cw))
	}

	return b.String()
}

// topShares renders the first TopN rows as name, bar and share.
func (a App) topShares(rows []model.CostShare, innerW int) string {
	t := theme.Active
	if len(rows) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No data")
	}

	limit := a.opts.TopN
	if len(rows) < limit {
		limit = len(rows)
	}

	nameW := innerW / 3
	if nameW < 10 {
		nameW = 10
	}
	costW := 12
	barW := innerW - nameW - costW - 3
	if barW < 1 {
		barW = 1
	}

	maxShare := 0.0
	for _, r := range rows[:limit] {
		if r.SharePercent > maxShare {
			maxShare = r.SharePercent
		}
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	costStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var body strings.Builder
	for i, r := range rows[:limit] {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(r.Name, nameW))))
		body.WriteString(space)
		body.WriteString(components.ShareBar(r.SharePercent, maxShare, barW, components.ColorForShare(r.SharePercent)))
		body.WriteString(space)
		body.WriteString(costStyle.Render(fmt.Sprintf("%*s", costW, cli.FormatCost(r.Cost))))
	}
	if rest := len(rows) - limit; rest > 0 {
		body.WriteString("\n")
		body.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render(fmt.Sprintf("+ %d more", rest)))
	}
	return body.String()
}

// qualityLines describes records that did not land in every aggregate.
func qualityLines(s model.DashboardSummary) []string {
	var lines []string
	q := s.Quality
	if s.Source.SkippedRows > 0 {
		lines = append(lines, fmt.Sprintf("%d blank rows skipped", s.Source.SkippedRows))
	}
	if q.MissingCost > 0 {
		lines = append(lines, fmt.Sprintf("%d rows without a cost counted as zero", q.MissingCost))
	}
	if q.MissingDate > 0 {
		lines = append(lines, fmt.Sprintf("%d rows without a date (%s not in daily costs)",
			q.MissingDate, cli.FormatCost(s.Unattributed.Daily)))
	}
	if q.MissingService > 0 {
		lines = append(lines, fmt.Sprintf("%d rows without a service (%s unattributed)",
			q.MissingService, cli.FormatCost(s.Unattributed.Service)))
	}
	if q.MissingResourceGroup > 0 {
		lines = append(lines, fmt.Sprintf("%d rows without a resource group (%s unattributed)",
			q.MissingResourceGroup, cli.FormatCost(s.Unattributed.ResourceGroup)))
	}
	return lines
}
