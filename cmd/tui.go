package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/pipeline"
	"github.com/theirongolddev/ocburn/internal/tui"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
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
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling always emits ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		Load:            dashboardLoader(),
		AutoRefresh:     cfg.TUI.AutoRefresh,
		RefreshInterval: cfg.RefreshInterval(),
		SessionPrefix:   cfg.General.SessionPrefix,
		NeedSetup:       !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// dashboardLoader rereads the config on every load so changes made in the
// setup form apply to the next refresh.
func dashboardLoader() tui.LoadFunc {
	return func(ctx context.Context, fn pipeline.ProgressFunc) (*model.Report, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		opts := aggregateOptions(cfg)
		opts.Progress = fn
		if flagLocalOnly {
			return pipeline.LoadLocalReport(ctx, opts, localDevice(cfg))
		}
		return pipeline.Aggregate(ctx, opts)
	}
}
