package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

var sessionCmd = &cobra.Command{
	Use:   "session <id>",
	Short: "Detailed statistics for one session (id or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	rep, cfg, err := loadReport(cmd.Context())
	if err != nil {
		return err
	}

	id := args[0]
	s, ok := pipeline.FindSession(rep.Sessions, id)
	if !ok {
		s, ok = pipeline.FindSession(rep.Sessions, cfg.General.SessionPrefix+id)
	}
	if !ok {
		return fmt.Errorf("no single session matches %q", id)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(cli.Truncate(s.Name, 50)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Field", "Value"},
		Rows:    sessionRows(s),
	}))

	if len(s.ModelsUsed) > 0 {
		fmt.Println()
		rows := make([][]string, 0, len(s.ModelsUsed))
		for _, u := range s.ModelsUsed {
			rows = append(rows, []string{u.Name, cli.FormatTokens(u.Tokens), u.Cost})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Models",
			Headers: []string{"Model", "Tokens", "Cost"},
			Rows:    rows,
		}))
	}

	if len(s.AgentStats) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(outcomeTable("Agents", s.AgentStats)))
	}

	fmt.Printf("\n  %s\n\n", cli.Muted(cli.Truncate(s.LatestPreview, 200)))
	return nil
}

func sessionRows(s model.SessionStats) [][]string {
	finish := "-"
	if s.FinishReason != nil {
		finish = *s.FinishReason
	}
	rows := [][]string{
		{"ID", s.ID},
		{"Device", s.DeviceName},
		{"Project", s.ProjectPath},
		{"Agent", s.Agent},
		{"Model", s.Provider + "/" + s.Model},
		{"Status", cli.RenderStatus(s)},
		{"Started", s.Started},
		{"Last Activity", s.LastActivity + " (" + s.TimeSinceActivity + ")"},
		{"Duration", s.Duration},
		{cli.Separator},
		{"Messages", fmt.Sprintf("%d (%d interactions)", s.MessageCount, s.Interactions)},
		{"Input Tokens", cli.FormatNumber(s.InputTokens)},
		{"Output Tokens", cli.FormatNumber(s.OutputTokens)},
		{"Cache Read", cli.FormatNumber(s.CacheReadTokens)},
		{"Cache Write", cli.FormatNumber(s.CacheWriteTokens)},
		{"Total Tokens", cli.FormatNumber(s.TotalTokens)},
		{"Rate", fmt.Sprintf("%s/min %s", cli.FormatTokens(s.TokensPerMinute), cli.RenderRate(s.RateLevel))},
		{cli.Separator},
		{"Context", fmt.Sprintf("%s / %s", cli.FormatTokens(s.CurrentTurnContext), cli.FormatTokens(s.ContextWindow))},
		{"Context Used", cli.RenderGauge(s.ContextPercentage, 20) + " " + cli.FormatPercent(s.ContextPercentage)},
	}
	if s.ContextOverage > 0 {
		rows = append(rows, []string{"Compact Needed", cli.FormatTokens(s.ContextCompactNeeded)})
	}
	rows = append(rows,
		[]string{"Cost", s.Cost},
	)
	if s.HasCacheData {
		rows = append(rows,
			[]string{"Cache Hit Rate", cli.FormatPercent(s.CacheHitRate)},
			[]string{"Cache Savings", s.CacheSavings},
		)
	}
	if s.HasLatency {
		rows = append(rows, []string{"Avg Latency", s.AvgLatency})
	}
	if s.HasFileChanges {
		rows = append(rows, []string{"Files Changed", fmt.Sprintf("%d (+%d -%d)", s.FilesChanged, s.LinesAdded, s.LinesDeleted)})
	}
	rows = append(rows,
		[]string{cli.Separator},
		[]string{"Last Turn", s.LatestDuration},
		[]string{"Finish", finish},
	)
	return rows
}
