package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve this machine's sessions over HTTP for other devices",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	opts := aggregateOptions(cfg)
	opts.Progress = nil

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Serving %s on http://%s (Ctrl+C to stop)\n", cfg.StoreDir(), addr)
		if config.IsLoopbackAddr(addr) {
			fmt.Fprintln(os.Stderr, "  Only reachable from this machine. Use --addr 0.0.0.0:5858 so other devices can fetch it.")
		}
	}
	return server.New(server.Config{
		Addr:    addr,
		Options: opts,
		Local:   localDevice(cfg),
	}).Run(ctx)
}
