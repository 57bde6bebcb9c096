package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

// SetupValues are the answers collected by the setup form.
type SetupValues struct {
	DataDir     string
	LocalName   string
	Theme       string
	AutoRefresh bool
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	vals := SetupValues{
		DataDir:     cfg.StoreDir(),
		LocalName:   config.DefaultLocalDeviceName,
		Theme:       cfg.Appearance.Theme,
		AutoRefresh: cfg.TUI.AutoRefresh,
	}
	if d, ok := cfg.LocalDevice(); ok {
		vals.LocalName = d.DisplayName()
	}
	return vals
}

// NewSetupForm builds the first-run wizard. sessions is the number of
// sessions found in the current store, shown as a hint.
func NewSetupForm(sessions int, vals *SetupValues) *huh.Form {
	intro := "No sessions found yet. Point ocburn at opencode's message store below."
	if sessions > 0 {
		intro = fmt.Sprintf("Found %d sessions in %s.", sessions, vals.DataDir)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to ocburn").
				Description(intro),
			huh.NewInput().
				Title("Message store").
				Description("Directory holding one ses_* folder per session.").
				Value(&vals.DataDir),
			huh.NewInput().
				Title("Name for this machine").
				Description("Shown next to sessions when other devices are added.").
				Value(&vals.LocalName),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.Theme),
			huh.NewConfirm().
				Title("Refresh the dashboard automatically?").
				Value(&vals.AutoRefresh),
		),
	).WithShowHelp(true)
}

// Apply writes the answers into cfg. A store path equal to the default is
// left unset so the default keeps tracking the home directory.
func (v SetupValues) Apply(cfg *config.Config) {
	dir := strings.TrimSpace(v.DataDir)
	if dir == config.DefaultDataDir() {
		dir = ""
	}
	cfg.General.DataDir = dir
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	cfg.TUI.AutoRefresh = v.AutoRefresh

	name := strings.TrimSpace(v.LocalName)
	for i, d := range cfg.Devices {
		if d.IsLocal() {
			if name != "" {
				cfg.Devices[i].Name = name
			}
			return
		}
	}
	cfg.Devices = append([]config.Device{{
		ID:   config.DefaultLocalDeviceID,
		Name: name,
		URL:  config.LocalURL,
	}}, cfg.Devices...)
}

// saveSetup persists the wizard answers and activates the chosen theme.
func saveSetup(vals SetupValues) error {
	cfg, err := config.LoadFile(config.ConfigPath())
	if err != nil {
		cfg = config.DefaultConfig()
	}
	vals.Apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
