package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/tally"
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Assistant call outcomes per agent or model",
	RunE:  runOutcomes,
}

var outcomesBy string

func init() {
	outcomesCmd.Flags().StringVar(&outcomesBy, "by", "agent", "Group by: agent or model")
	rootCmd.AddCommand(outcomesCmd)
}

func runOutcomes(cmd *cobra.Command, _ []string) error {
	if outcomesBy != "agent" && outcomesBy != "model" {
		return fmt.Errorf("invalid --by %q: want agent or model", outcomesBy)
	}

	rep, _, err := loadReport(cmd.Context())
	if err != nil {
		return err
	}

	set, title := rep.Metrics.AgentStats, "Agents"
	if outcomesBy == "model" {
		set, title = rep.Metrics.ModelStats, "Models"
	}
	if len(set) == 0 {
		fmt.Println("\n  No assistant calls recorded.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("OUTCOMES"))
	fmt.Println()
	fmt.Print(cli.RenderTable(outcomeTable(title, set)))
	return nil
}

// outcomeTable renders a tally set with a totals row.
func outcomeTable(title string, set tally.Set) cli.Table {
	row := func(name string, t tally.Tally) []string {
		return []string{
			name,
			cli.FormatNumber(t.Calls),
			cli.FormatNumber(t.Success),
			cli.FormatNumber(t.Failed),
			cli.FormatNumber(t.ToolCalls),
			cli.FormatNumber(t.Length),
			cli.FormatNumber(t.Other),
			cli.FormatRatio(t.SuccessRate()),
			cli.FormatTokens(t.Tokens),
			cli.FormatCost(t.Cost),
		}
	}

	keys := set.Keys()
	rows := make([][]string, 0, len(keys)+2)
	for _, k := range keys {
		if t := set[k]; t != nil {
			rows = append(rows, row(k, *t))
		}
	}
	if len(keys) > 1 {
		rows = append(rows, []string{cli.Separator}, row("TOTAL", set.Total()))
	}

	return cli.Table{
		Title:   title,
		Headers: []string{"Name", "Calls", "Success", "Failed", "Tools", "Length", "Other", "Rate", "Tokens", "Cost"},
		Rows:    rows,
	}
}
