// Package cmd implements the ocburn CLI commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/pipeline"
	"github.com/theirongolddev/ocburn/internal/remote"
)

var (
	flagDataDir   string
	flagQuiet     bool
	flagVerbose   bool
	flagLocalOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "ocburn",
	Short: "opencode session metrics",
	Long:  "Token, cost and outcome metrics for opencode sessions across your devices.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "opencode message store (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagLocalOnly, "local", "l", false, "Only this machine, skip remote devices")
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	return cfg, nil
}

func aggregateOptions(cfg config.Config) pipeline.Options {
	opts := pipeline.OptionsFromConfig(cfg, remote.NewClient(cfg.FetchTimeout()))
	opts.Progress = progressPrinter()
	return opts
}

// loadReport is the shared data path used by the reporting commands.
func loadReport(ctx context.Context) (*model.Report, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	opts := aggregateOptions(cfg)

	if !showProgress() {
		opts.Progress = nil
	} else {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", cfg.StoreDir())
	}

	start := time.Now()
	var rep *model.Report
	if flagLocalOnly {
		rep, err = pipeline.LoadLocalReport(ctx, opts, localDevice(cfg))
	} else {
		rep, err = pipeline.Aggregate(ctx, opts)
	}
	if err != nil {
		return nil, cfg, err
	}

	if showProgress() {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s sessions in %s          \n",
			cli.FormatNumber(int64(len(rep.Sessions))),
			time.Since(start).Round(time.Millisecond))
	}
	for _, d := range rep.Metrics.Devices {
		if !d.Reachable {
			fmt.Fprintf(os.Stderr, "  %s unreachable, skipped\n", d.Name)
		}
	}
	return rep, cfg, nil
}

// showProgress gates stderr progress to interactive terminals.
func showProgress() bool {
	if flagQuiet {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func progressPrinter() pipeline.ProgressFunc {
	return func(current, total int) {
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Reading [%d/%d]", current, total)
		}
	}
}

// localDevice returns the registry entry describing this machine, or a
// default one when the registry has none enabled.
func localDevice(cfg config.Config) config.Device {
	if d, ok := cfg.LocalDevice(); ok {
		return d
	}
	return config.Device{ID: config.DefaultLocalDeviceID, Name: config.DefaultLocalDeviceName, URL: config.LocalURL}
}
