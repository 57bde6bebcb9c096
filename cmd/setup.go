package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/source"
	"github.com/theirongolddev/ocburn/internal/tui"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Environment overrides are not written back to the file.
	cfg, err := config.LoadFile(config.ConfigPath())
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}

	found, _ := source.ScanDir(cfg.StoreDir(), cfg.General.SessionPrefix)

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(len(found), &vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	vals.Apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `ocburn setup` anytime to reconfigure.")
	fmt.Println("  Add other machines with `ocburn devices add`.")
	fmt.Println()
	return nil
}
