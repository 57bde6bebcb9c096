package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session list, newest first",
	RunE:  runSessions,
}

var (
	sessionsLimit   int
	sessionsDevice  string
	sessionsProject string
	sessionsActive  bool
)

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Number of sessions to show (0 for all)")
	sessionsCmd.Flags().StringVar(&sessionsDevice, "device", "", "Only sessions from this device id")
	sessionsCmd.Flags().StringVarP(&sessionsProject, "project", "p", "", "Filter to project path (substring match)")
	sessionsCmd.Flags().BoolVarP(&sessionsActive, "active", "a", false, "Only sessions still in progress")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	rep, cfg, err := loadReport(cmd.Context())
	if err != nil {
		return err
	}

	sessions := rep.Sessions
	if sessionsDevice != "" {
		sessions = pipeline.FilterByDevice(sessions, sessionsDevice)
	}
	if sessionsProject != "" {
		sessions = pipeline.FilterByProject(sessions, sessionsProject)
	}
	if sessionsActive {
		sessions = pipeline.FilterActive(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No matching sessions.")
		return nil
	}

	total := len(sessions)
	if sessionsLimit > 0 && total > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  (showing %d of %d)", len(sessions), total)))
	fmt.Println()

	multiDevice := len(rep.Metrics.Devices) > 1
	headers := []string{"Session", "Started", "Status", "Duration", "Tokens", "Ctx", "Cost"}
	if multiDevice {
		headers = append([]string{"Device"}, headers...)
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		row := []string{
			cli.ShortID(s.ID, cfg.General.SessionPrefix, 14),
			s.Started,
			cli.RenderStatus(s),
			s.DurationFormatted,
			cli.FormatTokens(s.TotalTokens),
			cli.FormatPercent(s.ContextPercentage),
			s.Cost,
		}
		if multiDevice {
			row = append([]string{cli.Truncate(s.DeviceName, 12)}, row...)
		}
		rows = append(rows, row)
	}

	left := 3
	if multiDevice {
		left = 4
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  headers,
		Rows:     rows,
		LeftCols: left,
	}))
	return nil
}
