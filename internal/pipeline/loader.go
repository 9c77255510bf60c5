package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/theirongolddev/azcost/internal/config"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Dataset source.Dataset
	Summary model.DashboardSummary
}

// ProgressFunc is called during loading to report progress.
// current is the number of bytes read so far, total is the input size
// or 0 when unknown.
type ProgressFunc = source.ProgressFunc

// OptionsFromConfig builds pipeline options from loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Rules:  cfg.Recommendations,
		Budget: cfg.Budget.Monthly,
	}
}

// ParseOptionsFromConfig builds CSV ingestion options from configured
// header aliases.
func ParseOptionsFromConfig(cfg config.Config) source.ParseOptions {
	aliases := make(map[source.Role][]string)
	add := func(r source.Role, names []string) {
		if len(names) > 0 {
			aliases[r] = names
		}
	}
	add(source.RoleDate, cfg.Columns.Date)
	add(source.RoleService, cfg.Columns.Service)
	add(source.RoleResourceGroup, cfg.Columns.ResourceGroup)
	add(source.RoleCost, cfg.Columns.Cost)
	return source.ParseOptions{Aliases: aliases}
}

// Load reads a CSV export from disk and aggregates it.
func Load(path string, parseOpts source.ParseOptions, opts Options, progressFn ProgressFunc) (*LoadResult, error) {
	parseOpts.Progress = progressFn
	ds, err := source.ReadFile(path, parseOpts)
	if err != nil {
		return nil, err
	}
	return finish(ds, opts)
}

// LoadReader reads a CSV export from r and aggregates it. name labels
// the summary's source.
func LoadReader(r io.Reader, name string, parseOpts source.ParseOptions, opts Options, progressFn ProgressFunc) (*LoadResult, error) {
	parseOpts.Progress = progressFn
	ds, err := source.Parse(r, parseOpts)
	if err != nil {
		return nil, err
	}
	ds.Name = name
	return finish(ds, opts)
}

func finish(ds source.Dataset, opts Options) (*LoadResult, error) {
	summary, err := Process(ds, opts)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", ds.Name, err)
	}
	summary.GeneratedAt = time.Now().UTC()
	return &LoadResult{Dataset: ds, Summary: summary}, nil
}

// IsParseError reports whether err came from reading or tokenizing the
// input rather than from aggregating it.
func IsParseError(err error) bool {
	var pe *source.ParseError
	return errors.As(err, &pe)
}

// UserMessage renders a load error the way every front end shows it.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *source.ParseError
	if errors.As(err, &pe) {
		return "Error parsing CSV: " + pe.Error()
	}
	return "Error processing data: " + err.Error()
}
