package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Today's sessions by starting hour (local time)",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(cmd *cobra.Command, _ []string) error {
	rep, _, err := loadReport(cmd.Context())
	if err != nil {
		return err
	}

	hours := pipeline.AggregateTodayHourly(rep.Sessions, rep.Metrics.GeneratedAt)

	fmt.Println()
	fmt.Println(cli.RenderTitle("TODAY BY HOUR"))
	fmt.Println()

	peak := hours[0]
	for _, h := range hours {
		if h.Tokens > peak.Tokens {
			peak = h
		}
	}
	if peak.Tokens == 0 {
		fmt.Println("  No sessions started today.")
		return nil
	}

	const barWidth = 40
	for _, h := range hours {
		bar := strings.Repeat("█", int(h.Tokens*barWidth/peak.Tokens))
		fmt.Printf("  %02d:00 │ %3d │ %7s │ %s\n", h.Hour, h.Sessions, cli.FormatTokens(h.Tokens), bar)
	}
	fmt.Printf("\n  Peak: %02d:00 (%s tokens, %s)\n\n", peak.Hour, cli.FormatTokens(peak.Tokens), cli.FormatCost(peak.Cost))
	return nil
}
