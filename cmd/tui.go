package cmd

import (
	"fmt"

	"github.com/theirongolddev/azcost/internal/pipeline"
	"github.com/theirongolddev/azcost/internal/tui"
	"github.com/theirongolddev/azcost/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	opts, err := pipelineOptions()
	if err != nil {
		return err
	}

	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Without a file the dashboard opens on its file prompt.
	file, _ := resolveFile()

	app := tui.NewApp(tui.Options{
		File:         file,
		ParseOptions: pipeline.ParseOptionsFromConfig(appConfig),
		Pipeline:     opts,
		TopN:         appConfig.General.TopN,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
