package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theirongolddev/azcost/internal/config"
	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the form's string-typed inputs.
type setupValues struct {
	currency    string
	topN        string
	theme       string
	budget      string
	defaultFile string
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	v := setupValues{
		currency:    orDefault(cfg.General.Currency, "USD"),
		topN:        strconv.Itoa(cfg.General.TopN),
		theme:       cfg.Appearance.Theme,
		defaultFile: cfg.General.DefaultFile,
	}
	if cfg.Budget.Monthly != nil {
		v.budget = strconv.FormatFloat(*cfg.Budget.Monthly, 'f', -1, 64)
	}

	fmt.Println()
	fmt.Println("  Welcome to azcost!")
	fmt.Println()

	if err := newSetupForm(&v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	if err := applySetup(&cfg, v); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup always writes TOML, so only a .toml --config is rewritten in place.
	path := config.ConfigPath()
	if strings.EqualFold(filepath.Ext(flagConfig), ".toml") {
		path = flagConfig
	}
	if err := config.SaveFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `azcost setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func newSetupForm(v *setupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Currency").
				Description("Symbol used when printing costs").
				Options(huh.NewOptions("USD", "EUR", "GBP", "JPY", "INR", "AUD", "CAD")...).
				Value(&v.currency),
			huh.NewInput().
				Title("Top N").
				Description("Services and resource groups listed on the overview").
				Value(&v.topN).
				Validate(validateTopN),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly budget").
				Description("Enables the budget pace recommendation; leave empty to skip").
				Placeholder("e.g. 5000").
				Value(&v.budget).
				Validate(validateBudget),
			huh.NewInput().
				Title("Default CSV file").
				Description("Used when --file is not given; leave empty to skip").
				Value(&v.defaultFile).
				Validate(validateDefaultFile),
		),
	)
}

func applySetup(cfg *config.Config, v setupValues) error {
	cfg.General.Currency = v.currency
	cfg.Appearance.Theme = v.theme
	cfg.General.DefaultFile = strings.TrimSpace(v.defaultFile)

	n, err := strconv.Atoi(strings.TrimSpace(v.topN))
	if err != nil {
		return fmt.Errorf("top N: %w", err)
	}
	cfg.General.TopN = n

	cfg.Budget.Monthly = nil
	if b := strings.TrimSpace(v.budget); b != "" {
		f, err := strconv.ParseFloat(b, 64)
		if err != nil {
			return fmt.Errorf("monthly budget: %w", err)
		}
		cfg.Budget.Monthly = &f
	}
	return nil
}

func validateTopN(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 50 {
		return errors.New("enter a number between 1 and 50")
	}
	return nil
}

func validateBudget(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return errors.New("enter a positive amount or leave empty")
	}
	return nil
}

func validateDefaultFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("cannot open %s", s)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}
