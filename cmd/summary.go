package cmd

import (
	"fmt"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Cost summary with headline KPIs",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	s := result.Summary
	if s.IsEmpty() {
		fmt.Println("\n  No cost records found.")
		if flagSince != "" || flagUntil != "" || flagService != "" || flagGroup != "" {
			fmt.Println("  Try widening the --since/--until/--service/--group filters.")
		}
		return nil
	}
	k := s.KPIs

	fmt.Println()
	fmt.Println(cli.RenderTitle("AZURE COSTS  " + periodLabel(s)))
	fmt.Println()

	rows := [][]string{
		{"Total Cost", cli.FormatCost(s.TotalCost)},
		{"Records", cli.FormatNumber(int64(k.RecordCount))},
		{"Days", cli.FormatNumber(int64(k.Days))},
		{"---"},
		{"Cost/day", cli.FormatCost(k.AverageDailyCost)},
	}
	if k.PeakDay != "" {
		rows = append(rows, []string{"Peak Day", fmt.Sprintf("%s  (%s)", cli.FormatCost(k.PeakDayCost), k.PeakDay)})
	}
	rows = append(rows, []string{"---"})

	if k.TopService != "" {
		top := s.ServiceBreakdown[0]
		rows = append(rows, []string{"Top Service",
			fmt.Sprintf("%s  %s", cli.Truncate(top.Name, 28), cli.FormatShare(top.SharePercent))})
	}
	rows = append(rows, []string{"Services", cli.FormatNumber(int64(k.ServiceCount))})
	if k.TopResourceGroup != "" {
		top := s.ResourceGroupCosts[0]
		rows = append(rows, []string{"Top Resource Group",
			fmt.Sprintf("%s  %s", cli.Truncate(top.Name, 28), cli.FormatShare(top.SharePercent))})
	}
	rows = append(rows, []string{"Resource Groups", cli.FormatNumber(int64(k.ResourceGroupCount))})

	if appConfig.Budget.Monthly != nil {
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Monthly Budget", cli.FormatCost(decimal.NewFromFloat(*appConfig.Budget.Monthly))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if n := len(s.Recommendations); n > 0 {
		fmt.Printf("\n  %d recommendations. Run `azcost recommend` for details.\n", n)
	}
	printQualityWarnings(s)
	return nil
}

// printQualityWarnings notes records left out of a breakdown.
func printQualityWarnings(s model.DashboardSummary) {
	q := s.Quality
	if q.MissingCost > 0 {
		console.Warning("%d rows without a cost were counted as zero", q.MissingCost)
	}
	if q.MissingDate > 0 {
		console.Warning("%d rows without a date (%s not in daily costs)",
			q.MissingDate, cli.FormatCost(s.Unattributed.Daily))
	}
	if q.MissingService > 0 {
		console.Warning("%d rows without a service (%s unattributed)",
			q.MissingService, cli.FormatCost(s.Unattributed.Service))
	}
	if q.MissingResourceGroup > 0 {
		console.Warning("%d rows without a resource group (%s unattributed)",
			q.MissingResourceGroup, cli.FormatCost(s.Unattributed.ResourceGroup))
	}
}
