package components

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// chartBar is one column of the daily chart: a single day, or a run of
// consecutive days when the chart is too narrow to give each its own bar.
type chartBar struct {
	Start time.Time
	Days  int
	Cost  float64 // mean cost per day across the run
}

// DailyCostChart renders the daily series as vertical bars over a
// currency Y axis with date labels underneath. The highest bar is drawn
// in the bright accent. Charts too small for an axis degrade to a
// sparkline.
func DailyCostChart(days []model.DailyCost, color lipgloss.Color, width, height int) string {
	if len(days) == 0 {
		return ""
	}
	t := theme.Active
	surface := lipgloss.NewStyle().Background(t.Surface)

	if width < 20 || height < 3 {
		vals := make([]float64, len(days))
		for i, d := range days {
			vals[i] = d.Cost.InexactFloat64()
		}
		return surface.Foreground(color).Render(cli.RenderSparkline(vals))
	}

	peak := 0.0
	for _, d := range days {
		peak = max(peak, d.Cost.InexactFloat64())
	}
	step, ticks := costAxis(peak, max(2, height/2))
	rowsPerTick := max(1, height/ticks)
	rows := rowsPerTick * ticks
	top := step * float64(ticks)

	labels := make([]string, ticks+1)
	labelW := 0
	for i := range labels {
		if i == 0 {
			labels[i] = "0"
		} else {
			labels[i] = cli.FormatCostCompact(decimal.NewFromFloat(step * float64(i)))
		}
		labelW = max(labelW, lipgloss.Width(labels[i]))
	}

	plotW := max(5, width-labelW-1)
	bars := chartBars(days, (plotW+1)/2)
	barW := min(5, max(1, (plotW+1)/len(bars)-1))
	axisLen := len(bars)*(barW+1) - 1

	peakBar := 0
	for i, b := range bars {
		if b.Cost > bars[peakBar].Cost {
			peakBar = i
		}
	}

	axis := surface.Foreground(t.TextDim)
	fill := surface.Foreground(color)
	highlight := surface.Foreground(t.AccentBright)

	var sb strings.Builder
	for row := rows; row >= 1; row-- {
		label := ""
		if row%rowsPerTick == 0 {
			label = labels[row/rowsPerTick]
		}
		sb.WriteString(axis.Render(padLeft(label, labelW) + "│"))

		for i, b := range bars {
			if i > 0 {
				sb.WriteString(surface.Render(" "))
			}
			level := 0
			if top > 0 && b.Cost > 0 {
				level = int(math.Round(b.Cost / top * float64(rows*8)))
			}
			cell := min(8, max(0, level-(row-1)*8))
			style := fill
			if i == peakBar {
				style = highlight
			}
			sb.WriteString(style.Render(strings.Repeat(string(eighths[cell]), barW)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(axis.Render(padLeft(labels[0], labelW) + "└" + strings.Repeat("─", axisLen)))
	sb.WriteString("\n")
	sb.WriteString(surface.Render(strings.Repeat(" ", labelW+1)))
	sb.WriteString(axis.Render(xAxisLabels(bars, barW, axisLen)))
	return sb.String()
}

// chartBars merges consecutive days so at most maxBars columns remain.
func chartBars(days []model.DailyCost, maxBars int) []chartBar {
	per := 1
	if maxBars > 0 && len(days) > maxBars {
		per = (len(days) + maxBars - 1) / maxBars
	}

	bars := make([]chartBar, 0, (len(days)+per-1)/per)
	for start := 0; start < len(days); start += per {
		end := min(len(days), start+per)
		sum := decimal.Zero
		for _, d := range days[start:end] {
			sum = sum.Add(d.Cost)
		}
		n := end - start
		bars = append(bars, chartBar{
			Start: days[start].Date,
			Days:  n,
			Cost:  sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64(),
		})
	}
	return bars
}

// costAxis picks a round tick step (1, 2, 2.5 or 5 times a power of ten)
// so that at most maxTicks ticks cover peak.
func costAxis(peak float64, maxTicks int) (step float64, ticks int) {
	if peak <= 0 || maxTicks < 1 {
		return 1, 1
	}
	rough := peak / float64(maxTicks)
	mag := math.Pow(10, math.Floor(math.Log10(rough)))
	step = 10 * mag
	for _, m := range []float64{1, 2, 2.5, 5} {
		if m*mag >= rough {
			step = m * mag
			break
		}
	}
	return step, max(1, int(math.Ceil(peak/step)))
}

// xAxisLabels places a date label under each bar that has room for one.
func xAxisLabels(bars []chartBar, barW, axisLen int) string {
	starts := make([]time.Time, len(bars))
	for i, b := range bars {
		starts[i] = b.Start
	}

	line := []byte(strings.Repeat(" ", axisLen))
	next := 0
	for i, lbl := range DateLabels(starts) {
		pos := i * (barW + 1)
		if lbl == "" || pos < next || pos+len(lbl) > axisLen {
			continue
		}
		copy(line[pos:], lbl)
		next = pos + len(lbl) + 1
	}
	return strings.TrimRight(string(line), " ")
}

func padLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// DateLabels builds compact X-axis labels for an ascending date series:
// a month abbreviation at the start and at month boundaries, otherwise
// the day of month.
func DateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	prevMonth := time.Month(0)
	for i, dt := range dates {
		switch {
		case dt.IsZero():
			labels[i] = ""
		case i == 0 || dt.Month() != prevMonth:
			labels[i] = dt.Format("Jan")
		default:
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}
