package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/client"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a CSV to a running dashboard server",
	Example: `  azcost serve &
  azcost push -f costs.csv`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Server address (default from config, 127.0.0.1:8787)")
	rootCmd.AddCommand(pushCmd)
}

func runPush(_ *cobra.Command, _ []string) error {
	path, err := resolveFile()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := client.New(serveAddr())
	status := console.Status("Processing file...")
	s, err := c.Upload(ctx, path)
	status.Stop()

	var apiErr *client.Error
	switch {
	case errors.Is(err, client.ErrBusy):
		return errors.New("the server is still processing another upload; try again shortly")
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return errors.New(apiErr.Message)
	case err != nil:
		return err
	}

	console.Success("Uploaded %s to %s", s.Source.Name, c.BaseURL())
	fmt.Printf("  Total cost %s across %s records (%s)\n",
		cli.FormatCost(s.TotalCost), cli.FormatNumber(int64(s.KPIs.RecordCount)), periodLabel(*s))
	return nil
}
