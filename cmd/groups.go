package cmd

import (
	"fmt"

	"github.com/theirongolddev/azcost/internal/cli"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:     "groups",
	Aliases: []string{"rg"},
	Short:   "Cost breakdown by resource group",
	RunE:    runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	s := result.Summary
	if len(s.ResourceGroupCosts) == 0 {
		fmt.Println("\n  No resource group data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("COST BY RESOURCE GROUP  " + periodLabel(s)))
	fmt.Println()
	fmt.Print(renderShares("Resource Group", s.ResourceGroupCosts, s.Unattributed.ResourceGroup))
	return nil
}
