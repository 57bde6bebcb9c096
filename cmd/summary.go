package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Fleet summary: today's spend, activity and per-device rollup",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	rep, _, err := loadReport(cmd.Context())
	if err != nil {
		return err
	}

	if len(rep.Sessions) == 0 {
		fmt.Println("\n  No opencode sessions found.")
		fmt.Println("  Run opencode first, or point --data-dir at its message store.")
		return nil
	}

	m := rep.Metrics
	var totalTokens int64
	var totalCost float64
	for _, s := range rep.Sessions {
		totalTokens += s.TotalTokens
		totalCost += s.CostVal
	}
	agents := m.AgentStats.Total()

	fmt.Println()
	fmt.Println(cli.RenderTitle("OPENCODE USAGE"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Today Cost", m.TodayCost},
			{"Today Tokens", cli.FormatTokens(m.TodayTokens)},
			{"Active Sessions", cli.FormatNumber(int64(m.ActiveCount))},
			{cli.Separator},
			{"Sessions", cli.FormatNumber(int64(len(rep.Sessions)))},
			{"Total Tokens", cli.FormatTokens(totalTokens)},
			{"Total Cost", cli.FormatCost(totalCost)},
			{cli.Separator},
			{"Assistant Calls", cli.FormatNumber(agents.Calls)},
			{"Success Rate", cli.FormatRatio(agents.SuccessRate())},
		},
	}))

	hourly := pipeline.AggregateTodayHourly(rep.Sessions, m.GeneratedAt)
	values := make([]float64, len(hourly))
	for i, h := range hourly {
		values[i] = float64(h.Tokens)
	}
	fmt.Printf("\n  Today by hour  %s\n", cli.RenderSparkline(values))
	fmt.Println(cli.Muted("                 00" + strings.Repeat(" ", 10) + "12" + strings.Repeat(" ", 8) + "23"))

	if len(m.Devices) > 1 {
		fmt.Println()
		rows := make([][]string, 0, len(m.Devices))
		for _, d := range m.Devices {
			state := "ok"
			if !d.Reachable {
				state = "unreachable"
			}
			rows = append(rows, []string{
				d.Name,
				state,
				cli.FormatNumber(int64(d.Sessions)),
				cli.FormatNumber(int64(d.Active)),
				cli.FormatTokens(d.Tokens),
				cli.FormatCost(d.CostVal),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Devices",
			Headers:  []string{"Device", "State", "Sessions", "Active", "Tokens", "Cost"},
			Rows:     rows,
			LeftCols: 2,
		}))
	}

	return nil
}
