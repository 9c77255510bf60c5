package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:     "recommend",
	Aliases: []string{"advice"},
	Short:   "Cost optimization recommendations",
	RunE:    runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	s := result.Summary
	fmt.Println()
	fmt.Println(cli.RenderTitle("RECOMMENDATIONS  " + periodLabel(s)))
	fmt.Println()

	if len(s.Recommendations) == 0 {
		fmt.Println("  No recommendations for this period.")
		fmt.Println()
		return nil
	}

	for i, r := range s.Recommendations {
		fmt.Printf("  %d. %s %s", i+1, cli.RenderSeverity(r.Severity), r.Title)
		if !r.Amount.IsZero() {
			fmt.Printf("  %s", cli.FormatCost(r.Amount))
		}
		fmt.Println()
		for _, line := range wrap(r.Detail, 72) {
			fmt.Printf("     %s\n", cli.RenderMuted(line))
		}
		fmt.Println()
	}

	rows := make([][]string, 0, 3)
	counts := make(map[model.Severity]int)
	for _, r := range s.Recommendations {
		counts[r.Severity]++
	}
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo} {
		if counts[sev] > 0 {
			rows = append(rows, []string{cli.RenderSeverity(sev), cli.FormatNumber(int64(counts[sev]))})
		}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Severity", "Count"},
		Rows:    rows,
	}))
	return nil
}

// wrap breaks s into lines of at most width runes on word boundaries.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
