package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/pipeline"
	"github.com/theirongolddev/azcost/internal/store"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <SQL>",
	Short: "Run SQL against the loaded records",
	Long: "Load the CSV into an in-memory SQLite database and run a query.\n\n" +
		"Tables: " + strings.Join(store.Tables, ", ") + ".\n" +
		"Columns outside date, service, resource group and cost are in usage_extra.",
	Example: `  azcost query -f costs.csv "SELECT * FROM service_costs LIMIT 5"
  azcost query -f costs.csv "SELECT column_name, COUNT(*) FROM usage_extra GROUP BY 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(_ *cobra.Command, args []string) error {
	sqlText := strings.TrimSpace(strings.Join(args, " "))
	if sqlText == "" {
		return errors.New("empty query")
	}

	result, err := loadData()
	if err != nil {
		return err
	}
	opts, err := pipelineOptions()
	if err != nil {
		return err
	}

	ds := result.Dataset
	ds.Records = pipeline.FilterByTime(ds.Records, opts.Since, opts.Until)
	ds.Records = pipeline.FilterByService(ds.Records, opts.Service)
	ds.Records = pipeline.FilterByResourceGroup(ds.Records, opts.ResourceGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	db, err := store.Open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Load(ctx, ds); err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	logger.WithField("records", len(ds.Records)).Debug("records loaded into sqlite")

	res, err := db.Query(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(res.Columns) == 0 {
		console.Success("Statement executed")
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: res.Columns,
		Rows:    res.Rows,
	}))
	fmt.Printf("  %s rows\n", cli.FormatNumber(int64(len(res.Rows))))
	return nil
}
