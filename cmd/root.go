// Package cmd implements the azcost CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/config"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/pipeline"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagFile    string
	flagConfig  string
	flagQuiet   bool
	flagVerbose bool
	flagSince   string
	flagUntil   string
	flagService string
	flagGroup   string
)

var (
	appConfig = config.DefaultConfig()
	console   = cli.NewConsole(false)
	logger    = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "azcost",
	Short: "Azure cost dashboard",
	Long:  "Turn an Azure billing CSV export into cost totals, daily trends, breakdowns and recommendations.",
	RunE:  runSummary,

	PersistentPreRunE: setup,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		console.Error("%s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Azure billing CSV export")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (.toml, .yaml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&flagSince, "since", "", "First day to include (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagUntil, "until", "", "Last day to include (YYYY-MM-DD, inclusive)")
	rootCmd.PersistentFlags().StringVar(&flagService, "service", "", "Filter to service (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagGroup, "group", "", "Filter to resource group (substring match)")
}

// setup loads configuration and prepares the logger and console before
// any command runs.
func setup(_ *cobra.Command, _ []string) error {
	console = cli.NewConsole(flagQuiet)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appConfig = cfg
	cli.SetCurrency(cfg.General.Currency)

	configureLogger(logger, cfg.Logging, flagVerbose)
	logger.WithField("config", configSource()).Debug("configuration loaded")
	return nil
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		cfg, err := config.LoadFile(flagConfig)
		if err != nil {
			return cfg, fmt.Errorf("loading config %s: %w", flagConfig, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func configSource() string {
	switch {
	case flagConfig != "":
		return flagConfig
	case config.Exists():
		return config.ConfigPath()
	default:
		return "defaults"
	}
}

func configureLogger(l *logrus.Logger, cfg config.LoggingConfig, verbose bool) {
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// pipelineOptions combines configured thresholds with the filter flags.
func pipelineOptions() (pipeline.Options, error) {
	opts := pipeline.OptionsFromConfig(appConfig)
	opts.Service = flagService
	opts.ResourceGroup = flagGroup

	var err error
	if opts.Since, err = parseDay("since", flagSince); err != nil {
		return opts, err
	}
	if opts.Until, err = parseDay("until", flagUntil); err != nil {
		return opts, err
	}
	if !opts.Until.IsZero() {
		// --until names the last day shown; the filter bound is exclusive.
		opts.Until = opts.Until.AddDate(0, 0, 1)
	}
	if !opts.Since.IsZero() && !opts.Until.IsZero() && !opts.Since.Before(opts.Until) {
		return opts, fmt.Errorf("--since %s is after --until %s", flagSince, flagUntil)
	}
	return opts, nil
}

func parseDay(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DayLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, v)
	}
	return t, nil
}

// resolveFile returns --file, falling back to general.default_file.
func resolveFile() (string, error) {
	if flagFile != "" {
		return flagFile, nil
	}
	if appConfig.General.DefaultFile != "" {
		return appConfig.General.DefaultFile, nil
	}
	return "", errors.New("no input file: pass --file or set general.default_file (see `azcost setup`)")
}

// loadError presents pipeline failures the way every front end does.
type loadError struct {
	err error
}

func (e *loadError) Error() string { return pipeline.UserMessage(e.err) }
func (e *loadError) Unwrap() error { return e.err }

// loadData is the shared data loading path used by all commands.
func loadData() (*pipeline.LoadResult, error) {
	path, err := resolveFile()
	if err != nil {
		return nil, err
	}
	opts, err := pipelineOptions()
	if err != nil {
		return nil, err
	}

	log := logger.WithField("file", path)
	start := time.Now()

	status := console.Status("Processing file...")
	result, err := pipeline.Load(path, pipeline.ParseOptionsFromConfig(appConfig), opts, func(current, total int64) {
		status.Progress("Parsing", current, total)
	})
	status.Stop()
	if err != nil {
		log.WithError(err).Debug("load failed")
		return nil, &loadError{err: err}
	}

	s := result.Summary
	log.WithFields(logrus.Fields{
		"rows":     s.Source.Rows,
		"records":  s.KPIs.RecordCount,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("summary built")

	console.Success("Loaded %s records from %s (%s)",
		cli.FormatNumber(int64(s.KPIs.RecordCount)), s.Source.Name, cli.FormatBytes(s.Source.Bytes))
	if s.Source.SkippedRows > 0 {
		console.Warning("%d blank rows skipped", s.Source.SkippedRows)
	}
	return result, nil
}

// periodLabel describes the summary's date range for titles.
func periodLabel(s model.DashboardSummary) string {
	if s.KPIs.PeriodStart == "" {
		return "no dated records"
	}
	if s.KPIs.PeriodStart == s.KPIs.PeriodEnd {
		return s.KPIs.PeriodStart
	}
	return s.KPIs.PeriodStart + " to " + s.KPIs.PeriodEnd
}
