package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/monitor"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the fleet and print usage changes as they happen",
	RunE:  runWatch,
}

var (
	watchInterval time.Duration
	watchSound    bool
	watchNoNotify bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 15*time.Second, "Polling interval")
	watchCmd.Flags().BoolVar(&watchSound, "sound", false, "Play a sound with desktop notifications")
	watchCmd.Flags().BoolVar(&watchNoNotify, "no-notify", false, "Disable desktop notifications")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := aggregateOptions(cfg)
	opts.Progress = nil
	local := localDevice(cfg)

	src := func(ctx context.Context) (*model.Report, error) {
		if flagLocalOnly {
			return pipeline.LoadLocalReport(ctx, opts, local)
		}
		return pipeline.Aggregate(ctx, opts)
	}

	mcfg := monitor.Config{Interval: watchInterval}
	if !watchNoNotify {
		mcfg.Notifier = monitor.NewDesktopNotifier(watchSound)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "  Watching every %s (Ctrl+C to stop)\n", watchInterval)
	return monitor.New(mcfg, src).Run(ctx, printEvent)
}

func printEvent(ev monitor.Event) {
	ts := ev.Timestamp.Local().Format("15:04:05")
	switch ev.Type {
	case monitor.EventSnapshot:
		fmt.Printf("%s  %d sessions, %d active, today %s / %s\n", ts,
			ev.Snapshot.Sessions, ev.Snapshot.Active,
			cli.FormatTokens(ev.Snapshot.TodayTokens), cli.FormatCost(ev.Snapshot.TodayCostUSD))
	case monitor.EventDelta:
		fmt.Printf("%s  %s tokens  %s  (%d active)\n", ts,
			cli.FormatSignedTokens(ev.Delta.Tokens), cli.FormatSignedCost(ev.Delta.CostUSD), ev.Snapshot.Active)
	case monitor.EventCompleted:
		fmt.Printf("%s  finished  %s  %s\n", ts, cli.Truncate(ev.Title, 40), cli.Muted(ev.DeviceID))
	case monitor.EventError:
		fmt.Printf("%s  %s  %s  %s\n", ts, cli.Alert("error"), cli.Truncate(ev.Title, 40), cli.Muted(ev.DeviceID))
	}
}
