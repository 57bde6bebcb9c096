package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/config"
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
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Message store:   %s\n", cfg.StoreDir())
	fmt.Printf("    Session prefix:  %s\n", cfg.General.SessionPrefix)
	fmt.Printf("    Fetch timeout:   %s\n", cfg.FetchTimeout())
	fmt.Printf("    Fetch workers:   %d\n", cfg.General.MaxFetchWorkers)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Listen address:  %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh:    %v (every %s)\n", cfg.TUI.AutoRefresh, cfg.RefreshInterval())
	fmt.Println()

	fmt.Printf("  [Devices] %d configured, %d enabled\n", len(cfg.Devices), len(cfg.EnabledDevices()))
	for _, d := range cfg.Devices {
		state := "enabled"
		if !d.IsEnabled() {
			state = "disabled"
		}
		fmt.Printf("    %-12s %-20s %-32s %s\n", d.ID, d.DisplayName(), d.URL, state)
	}
	fmt.Println()

	fmt.Println("  Run `ocburn setup` to reconfigure.")
	return nil
}
