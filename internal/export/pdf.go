package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"
)

var (
	headerColor       = [3]int{0, 120, 212}
	headerTextColor   = [3]int{255, 255, 255}
	sectionTitleColor = [3]int{0, 90, 158}
	bodyTextColor     = [3]int{40, 40, 40}
	lineColor         = [3]int{200, 200, 200}
)

// Rows per breakdown table in the PDF; the rest are summed into "Other".
const pdfTableRows = 15

func writePDF(w io.Writer, s model.DashboardSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Generated by azcost on %s", s.GeneratedAt.Format("2006-01-02 15:04 MST"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	row := func(cells ...string) {
		widths := []float64{100, 45, 45}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "B", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	title := "  Azure Cost Dashboard"
	if s.Source.Name != "" {
		title += " - " + s.Source.Name
	}
	pdf.CellFormat(0, 12, tr(title), "", 1, "L", true, 0, "")

	section("Summary")
	row("Total cost", cli.FormatCost(s.TotalCost), "")
	row("Period", s.KPIs.PeriodStart+" to "+s.KPIs.PeriodEnd, fmt.Sprintf("%d days", s.KPIs.Days))
	row("Average daily cost", cli.FormatCost(s.KPIs.AverageDailyCost), "")
	if s.KPIs.PeakDay != "" {
		row("Peak day", s.KPIs.PeakDay, cli.FormatCost(s.KPIs.PeakDayCost))
	}
	row("Records", cli.FormatNumber(int64(s.KPIs.RecordCount)), "")

	shareTable := func(title string, rows []model.CostShare) {
		if len(rows) == 0 {
			return
		}
		section(title)
		pdf.SetFont("Arial", "B", 10)
		row("Name", "Cost", "Share")
		pdf.SetFont("Arial", "", 10)
		for i, c := range rows {
			if i == pdfTableRows {
				rest := rows[i:]
				other, share := decimal.Zero, 0.0
				for _, r := range rest {
					other = other.Add(r.Cost)
					share += r.SharePercent
				}
				row(fmt.Sprintf("Other (%d)", len(rest)), cli.FormatCost(other), cli.FormatShare(share))
				break
			}
			row(cli.Truncate(c.Name, 55), cli.FormatCost(c.Cost), cli.FormatShare(c.SharePercent))
		}
	}
	shareTable("Cost by Service", s.ServiceBreakdown)
	shareTable("Cost by Resource Group", s.ResourceGroupCosts)

	if len(s.DailyCosts) > 0 {
		section("Daily Costs")
		for _, d := range s.DailyCosts {
			row(d.Day, cli.FormatCost(d.Cost), fmt.Sprintf("%d rows", d.Records))
		}
	}

	if len(s.Recommendations) > 0 {
		section("Optimization Recommendations")
		for _, r := range s.Recommendations {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(190, 5, tr(fmt.Sprintf("[%s] %s", r.Severity, r.Title)), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(190, 5, tr(r.Detail), "", "L", false)
			pdf.Ln(2)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}
