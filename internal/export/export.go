// Package export writes dashboard summaries as CSV, JSON, YAML or PDF reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/azcost/internal/model"
)

// Format is a report file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML, FormatPDF}

// ParseFormat resolves a user-supplied format name. "yml" is accepted
// for YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML, FormatPDF:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, json, yaml or pdf)", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Write renders the summary to w in the given format.
func Write(w io.Writer, f Format, s model.DashboardSummary) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case FormatPDF:
		return writePDF(w, s)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// ToFile writes the summary to a timestamped file named base_YYYYMMDD_HHMMSS.ext
// under dir (the working directory when empty) and returns its absolute path.
func ToFile(s model.DashboardSummary, f Format, dir, base string) (string, error) {
	path, err := generateFilename(base, dir, string(f), time.Now())
	if err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s file: %w", strings.ToUpper(string(f)), err)
	}
	if err := Write(file, f, s); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return filepath.Abs(path)
}

func generateFilename(base, dir, ext string, now time.Time) (string, error) {
	if base == "" {
		base = "azcost_report"
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %q: %w", dir, err)
	}
	name := fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), ext)
	return filepath.Join(dir, name), nil
}

// writeCSV flattens the summary into one table with a section column so
// spreadsheets can pivot on it.
func writeCSV(w io.Writer, s model.DashboardSummary) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"section", "name", "cost", "share_percent", "records", "detail"},
		{"summary", "total_cost", s.TotalCost.String(), "", strconv.Itoa(s.KPIs.RecordCount), ""},
		{"summary", "average_daily_cost", s.KPIs.AverageDailyCost.String(), "", "", ""},
		{"summary", "period", "", "", strconv.Itoa(s.KPIs.Days), s.KPIs.PeriodStart + " to " + s.KPIs.PeriodEnd},
	}
	for _, d := range s.DailyCosts {
		rows = append(rows, []string{"daily", d.Day, d.Cost.String(), "", strconv.Itoa(d.Records), ""})
	}
	for _, c := range s.ServiceBreakdown {
		rows = append(rows, shareRow("service", c))
	}
	for _, c := range s.ResourceGroupCosts {
		rows = append(rows, shareRow("resource_group", c))
	}
	for _, r := range s.Recommendations {
		rows = append(rows, []string{
			"recommendation", r.Title, r.Amount.String(), "", "",
			fmt.Sprintf("[%s] %s", r.Severity, r.Detail),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}

func shareRow(section string, c model.CostShare) []string {
	return []string{
		section, c.Name, c.Cost.String(),
		strconv.FormatFloat(c.SharePercent, 'f', 2, 64),
		strconv.Itoa(c.Records), "",
	}
}
