package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// LocalURL is the device URL sentinel meaning "scan this machine's store".
const LocalURL = "local"

// Default values.
const (
	DefaultSessionPrefix   = "ses_"
	DefaultFetchTimeoutMs  = 3000
	DefaultMaxFetchWorkers = 8
	DefaultAddr            = "127.0.0.1:5858"
	DefaultRefreshSec      = 30
	DefaultLocalDeviceID   = "local"
	DefaultLocalDeviceName = "This machine"
)

// Config holds all ocburn configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Devices    []Device         `toml:"devices"`
}

// GeneralConfig holds store location and fetch settings.
type GeneralConfig struct {
	DataDir         string `toml:"data_dir,omitempty"`
	SessionPrefix   string `toml:"session_prefix"`
	FetchTimeoutMs  int    `toml:"fetch_timeout_ms"`
	MaxFetchWorkers int    `toml:"max_fetch_workers"`
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig controls dashboard refresh.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// Device is one entry of the device registry.
type Device struct {
	ID      string `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	URL     string `toml:"url" json:"url"`
	Enabled *bool  `toml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the device takes part in aggregation. Devices
// without an explicit flag are enabled.
func (d Device) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// IsLocal reports whether the device is this machine.
func (d Device) IsLocal() bool {
	return d.URL == LocalURL
}

// DisplayName returns the name, falling back to the id.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// DefaultConfig returns the default configuration: one local device.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			SessionPrefix:   DefaultSessionPrefix,
			FetchTimeoutMs:  DefaultFetchTimeoutMs,
			MaxFetchWorkers: DefaultMaxFetchWorkers,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: DefaultRefreshSec,
		},
		Devices: []Device{
			{ID: DefaultLocalDeviceID, Name: DefaultLocalDeviceName, URL: LocalURL},
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ocburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ocburn")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns opencode's message store location.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "opencode", "storage", "message")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies environment overrides (including a .env file in the working dir).
func Load() (Config, error) {
	cfg, err := LoadFile(ConfigPath())
	if err != nil {
		return cfg, err
	}
	_ = godotenv.Load()
	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadFile reads the config at path without environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config location
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// A file that declares its own devices replaces the default registry.
	cfg.Devices = nil
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}
	if !md.IsDefined("devices") {
		cfg.Devices = DefaultConfig().Devices
	}
	cfg.normalize()

	return cfg, nil
}

// ApplyEnv overrides file values from OCBURN_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("OCBURN_DATA_DIR")); v != "" {
		cfg.General.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("OCBURN_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("OCBURN_FETCH_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.General.FetchTimeoutMs = int(d.Milliseconds())
		} else if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.General.FetchTimeoutMs = ms
		}
	}
}

func (c *Config) normalize() {
	if c.General.SessionPrefix == "" {
		c.General.SessionPrefix = DefaultSessionPrefix
	}
	if c.General.FetchTimeoutMs <= 0 {
		c.General.FetchTimeoutMs = DefaultFetchTimeoutMs
	}
	if c.General.MaxFetchWorkers <= 0 {
		c.General.MaxFetchWorkers = DefaultMaxFetchWorkers
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.TUI.RefreshIntervalSec <= 0 {
		c.TUI.RefreshIntervalSec = DefaultRefreshSec
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating parent directories.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// StoreDir returns the session store root, honoring the configured override.
func (c Config) StoreDir() string {
	if c.General.DataDir != "" {
		return c.General.DataDir
	}
	return DefaultDataDir()
}

// FetchTimeout returns the per-device remote fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	if c.General.FetchTimeoutMs <= 0 {
		return DefaultFetchTimeoutMs * time.Millisecond
	}
	return time.Duration(c.General.FetchTimeoutMs) * time.Millisecond
}

// RefreshInterval returns the TUI auto-refresh period.
func (c Config) RefreshInterval() time.Duration {
	if c.TUI.RefreshIntervalSec <= 0 {
		return DefaultRefreshSec * time.Second
	}
	return time.Duration(c.TUI.RefreshIntervalSec) * time.Second
}

// EnabledDevices returns registry entries that take part in aggregation.
func (c Config) EnabledDevices() []Device {
	var out []Device
	for _, d := range c.Devices {
		if d.IsEnabled() {
			out = append(out, d)
		}
	}
	return out
}

// FindDevice returns the index of the device with the given id, or -1.
func (c Config) FindDevice(id string) int {
	for i, d := range c.Devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// LocalDevice returns the first enabled local device, if any.
func (c Config) LocalDevice() (Device, bool) {
	for _, d := range c.Devices {
		if d.IsLocal() && d.IsEnabled() {
			return d, true
		}
	}
	return Device{}, false
}

// SetEnabled flips a device's enabled flag. It returns false if no device
// has the id.
func (c *Config) SetEnabled(id string, enabled bool) bool {
	i := c.FindDevice(id)
	if i < 0 {
		return false
	}
	v := enabled
	c.Devices[i].Enabled = &v
	return true
}

// Registry errors.
var (
	ErrDuplicateDevice = errors.New("config: device id already registered")
	ErrUnknownDevice   = errors.New("config: no device with that id")
	ErrInvalidURL      = errors.New("config: device url must be \"local\" or an http(s) base url")
)

// ValidateDeviceURL accepts the local sentinel or an absolute http(s) URL.
func ValidateDeviceURL(raw string) error {
	if raw == LocalURL {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// AddDevice appends d to the registry after validating its id and URL.
func (c *Config) AddDevice(d Device) error {
	d.ID = strings.TrimSpace(d.ID)
	d.URL = strings.TrimRight(strings.TrimSpace(d.URL), "/")
	if d.ID == "" {
		return errors.New("config: device id is required")
	}
	if c.FindDevice(d.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, d.ID)
	}
	if err := ValidateDeviceURL(d.URL); err != nil {
		return err
	}
	c.Devices = append(c.Devices, d)
	return nil
}

// RemoveDevice drops the device with the given id.
func (c *Config) RemoveDevice(id string) error {
	i := c.FindDevice(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	c.Devices = append(c.Devices[:i], c.Devices[i+1:]...)
	return nil
}

// IsLoopbackAddr reports whether a listen address only accepts connections
// from this machine. An empty host binds every interface.
func IsLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
