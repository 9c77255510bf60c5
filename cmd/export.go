package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/azcost/internal/export"

	"github.com/spf13/cobra"
)

var (
	flagExportFormats []string
	flagExportDir     string
	flagExportName    string
	flagExportStdout  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the summary as CSV, JSON, YAML or PDF",
	Example: `  azcost export -f costs.csv --format pdf
  azcost export -f costs.csv --format csv,json --dir reports
  azcost export -f costs.csv --format json --stdout | jq .total_cost`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSliceVar(&flagExportFormats, "format", []string{"csv"}, "Output formats: csv, json, yaml, pdf")
	exportCmd.Flags().StringVar(&flagExportDir, "dir", "", "Output directory (default: current directory)")
	exportCmd.Flags().StringVar(&flagExportName, "name", "azcost_report", "Base file name; a timestamp is appended")
	exportCmd.Flags().BoolVar(&flagExportStdout, "stdout", false, "Write a single format to stdout instead of a file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	formats := make([]export.Format, 0, len(flagExportFormats))
	for _, name := range flagExportFormats {
		f, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return errors.New("--format needs at least one format")
	}
	if flagExportStdout && len(formats) != 1 {
		return errors.New("--stdout takes exactly one format")
	}

	result, err := loadData()
	if err != nil {
		return err
	}

	if flagExportStdout {
		return export.Write(os.Stdout, formats[0], result.Summary)
	}

	for _, f := range formats {
		path, err := export.ToFile(result.Summary, f, flagExportDir, flagExportName)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", f, err)
		}
		logger.WithField("format", f).WithField("path", path).Debug("report written")
		console.Success("Wrote %s", path)
	}
	return nil
}
