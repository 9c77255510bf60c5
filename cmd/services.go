package cmd

import (
	"fmt"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:     "services",
	Aliases: []string{"service"},
	Short:   "Cost breakdown by Azure service",
	RunE:    runServices,
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}

func runServices(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	s := result.Summary
	if len(s.ServiceBreakdown) == 0 {
		fmt.Println("\n  No service data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("COST BY SERVICE  " + periodLabel(s)))
	fmt.Println()
	fmt.Print(renderShares("Service", s.ServiceBreakdown, s.Unattributed.Service))
	return nil
}

// renderShares renders one breakdown as a table. A non-zero unattributed
// amount is listed after the named rows.
func renderShares(nameHeader string, rows []model.CostShare, unattributed decimal.Decimal) string {
	peak := 0.0
	for _, r := range rows {
		peak = max(peak, r.SharePercent)
	}

	out := make([][]string, 0, len(rows)+2)
	for _, r := range rows {
		out = append(out, []string{
			cli.Truncate(r.Name, 40),
			cli.FormatNumber(int64(r.Records)),
			cli.FormatCost(r.Cost),
			cli.FormatShare(r.SharePercent),
			cli.RenderHorizontalBar(r.SharePercent, peak, 20),
		})
	}
	if !unattributed.IsZero() {
		out = append(out, []string{"---"})
		out = append(out, []string{cli.RenderMuted("(unattributed)"), "", cli.FormatCost(unattributed), "", ""})
	}

	return cli.RenderTable(cli.Table{
		Headers: []string{nameHeader, "Records", "Cost", "Share", ""},
		Rows:    out,
	})
}
