package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/remote"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"device"},
	Short:   "List and manage the device registry",
	RunE:    runDevicesList,
}

var devicesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a device running `ocburn serve`",
	Args:  cobra.NoArgs,
	RunE:  runDevicesAdd,
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a device from the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesRemove,
}

var devicesEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Include a device in aggregation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setDeviceEnabled(args[0], true) },
}

var devicesDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Exclude a device from aggregation without removing it",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setDeviceEnabled(args[0], false) },
}

var devicesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe each enabled remote device",
	RunE:  runDevicesCheck,
}

var (
	addName string
	addURL  string
	addID   string
)

func init() {
	devicesAddCmd.Flags().StringVar(&addName, "name", "", "Display name")
	devicesAddCmd.Flags().StringVar(&addURL, "url", "", "Base URL of the device's ocburn server, or \"local\"")
	devicesAddCmd.Flags().StringVar(&addID, "id", "", "Registry id (derived from the name when empty)")

	devicesCmd.AddCommand(devicesAddCmd, devicesRemoveCmd, devicesEnableCmd, devicesDisableCmd, devicesCheckCmd)
	rootCmd.AddCommand(devicesCmd)
}

func runDevicesList(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadFile(config.ConfigPath())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		state := "enabled"
		if !d.IsEnabled() {
			state = cli.Muted("disabled")
		}
		rows = append(rows, []string{d.ID, d.DisplayName(), d.URL, state})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Devices",
		Headers:  []string{"ID", "Name", "URL", "State"},
		Rows:     rows,
		LeftCols: 4,
	}))
	return nil
}

func runDevicesAdd(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadFile(config.ConfigPath())
	if err != nil {
		return err
	}

	if addName == "" || addURL == "" {
		if err := deviceForm(&addName, &addURL).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("device form: %w", err)
		}
	}

	id := addID
	if id == "" {
		id = deviceID(addName)
	}
	if cfg.FindDevice(id) >= 0 {
		id = id + "-" + uuid.NewString()[:4]
	}

	d := config.Device{ID: id, Name: strings.TrimSpace(addName), URL: addURL}
	if err := cfg.AddDevice(d); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Added %s (%s)\n", id, d.URL)
	return nil
}

func deviceForm(name, url *string) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Device name").
			Value(name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Server URL").
			Description("Where `ocburn serve` listens on that machine, e.g. http://10.0.0.4:5858").
			Value(url).
			Validate(func(s string) error {
				return config.ValidateDeviceURL(strings.TrimRight(strings.TrimSpace(s), "/"))
			}),
	))
}

var nonIDChars = regexp.MustCompile(`[^a-z0-9]+`)

// deviceID slugs a display name, falling back to a random short id.
func deviceID(name string) string {
	id := strings.Trim(nonIDChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if id == "" {
		return uuid.NewString()[:8]
	}
	return id
}

func runDevicesRemove(_ *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(config.ConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.RemoveDevice(args[0]); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Removed %s\n", args[0])
	return nil
}

func setDeviceEnabled(id string, enabled bool) error {
	cfg, err := config.LoadFile(config.ConfigPath())
	if err != nil {
		return err
	}
	if !cfg.SetEnabled(id, enabled) {
		return fmt.Errorf("%w: %s", config.ErrUnknownDevice, id)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("  %s %s\n", id, state)
	return nil
}

func runDevicesCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := remote.NewClient(cfg.FetchTimeout())

	var rows [][]string
	for _, d := range cfg.EnabledDevices() {
		if d.IsLocal() {
			continue
		}
		start := time.Now()
		sessions, err := client.FetchSessions(cmd.Context(), d.URL)
		took := time.Since(start).Round(time.Millisecond).String()
		if err != nil {
			rows = append(rows, []string{d.DisplayName(), d.URL, cli.Muted("unreachable"), "-", took})
			continue
		}
		rows = append(rows, []string{d.DisplayName(), d.URL, "ok", cli.FormatNumber(int64(len(sessions))), took})
	}
	if len(rows) == 0 {
		fmt.Println("\n  No remote devices enabled.")
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Device check",
		Headers:  []string{"Device", "URL", "State", "Sessions", "Took"},
		Rows:     rows,
		LeftCols: 3,
	}))
	return nil
}
