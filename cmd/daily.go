package cmd

import (
	"fmt"

	"github.com/theirongolddev/azcost/internal/cli"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily cost table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	s := result.Summary
	if len(s.DailyCosts) == 0 {
		fmt.Println("\n  No dated records for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY COSTS  " + periodLabel(s)))
	fmt.Println()

	vals := make([]float64, len(s.DailyCosts))
	peak := 0.0
	for i, d := range s.DailyCosts {
		vals[i] = d.Cost.InexactFloat64()
		peak = max(peak, vals[i])
	}
	fmt.Printf("  %s\n\n", cli.RenderSparkline(vals))

	var dated decimal.Decimal
	records := 0
	rows := make([][]string, 0, len(s.DailyCosts)+2)
	for i, d := range s.DailyCosts {
		dated = dated.Add(d.Cost)
		records += d.Records
		rows = append(rows, []string{
			d.Day,
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Records)),
			cli.FormatCost(d.Cost),
			cli.RenderHorizontalBar(vals[i], peak, 20),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", "", cli.FormatNumber(int64(records)), cli.FormatCost(dated), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Records", "Cost", ""},
		Rows:    rows,
	}))

	if s.Quality.MissingDate > 0 {
		console.Warning("%d rows without a date (%s) are not shown",
			s.Quality.MissingDate, cli.FormatCost(s.Unattributed.Daily))
	}
	return nil
}
