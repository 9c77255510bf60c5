package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/config"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	switch {
	case flagConfig != "":
		fmt.Printf("  Config file: %s\n", flagConfig)
		fmt.Println("  Status: loaded (--config)")
	case config.Exists():
		fmt.Printf("  Config file: %s\n", config.ConfigPath())
		fmt.Println("  Status: loaded")
	default:
		fmt.Printf("  Config file: %s\n", config.ConfigPath())
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Currency:      %s\n", orDefault(cfg.General.Currency, "USD"))
	fmt.Printf("    Top N:         %d\n", cfg.General.TopN)
	fmt.Printf("    Default file:  %s\n", orDefault(cfg.General.DefaultFile, "not set"))
	fmt.Println()

	fmt.Println("  [Columns]")
	c := cfg.Columns
	if len(c.Date)+len(c.Service)+len(c.ResourceGroup)+len(c.Cost) == 0 {
		fmt.Println("    Built-in header aliases only")
	} else {
		printAliases("Date", c.Date)
		printAliases("Service", c.Service)
		printAliases("Resource group", c.ResourceGroup)
		printAliases("Cost", c.Cost)
	}
	fmt.Println()

	fmt.Println("  [Recommendations]")
	r := cfg.Recommendations
	fmt.Printf("    Service share warn: %s\n", cli.FormatPercent(r.ServiceShareWarn))
	fmt.Printf("    Group share warn:   %s\n", cli.FormatPercent(r.GroupShareWarn))
	fmt.Printf("    Spike factor:       %.1fx (min %d days, max %d spikes)\n", r.SpikeFactor, r.SpikeMinDays, r.MaxSpikes)
	fmt.Printf("    Trend warn:         %s\n", cli.FormatPercent(r.TrendWarn))
	if len(r.Disabled) > 0 {
		fmt.Printf("    Disabled rules:     %s\n", strings.Join(r.Disabled, ", "))
	}
	fmt.Println()

	fmt.Println("  [Budget]")
	if cfg.Budget.Monthly != nil {
		fmt.Printf("    Monthly budget: %s\n", cli.FormatCost(decimal.NewFromFloat(*cfg.Budget.Monthly)))
	} else {
		fmt.Println("    Monthly budget: not set")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Upload limit:  %d MiB\n", cfg.Server.MaxUploadMB)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Printf("    CORS origins:  %s\n", strings.Join(cfg.Server.AllowedOrigins, ", "))
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Println()

	fmt.Println("  Run `azcost setup` to reconfigure.")
	return nil
}

func printAliases(role string, names []string) {
	if len(names) > 0 {
		fmt.Printf("    %-15s %s\n", role+":", strings.Join(names, ", "))
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
