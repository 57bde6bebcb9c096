package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/pipeline"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Spend per model across sessions",
	RunE:  runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, _ []string) error {
	rep, _, err := loadReport(cmd.Context())
	if err != nil {
		return err
	}

	rows := pipeline.AggregateModelCosts(rep.Sessions)
	if len(rows) == 0 {
		fmt.Println("\n  No model usage recorded.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("COST BY MODEL"))
	fmt.Println()

	var total float64
	var tokens int64
	out := make([][]string, 0, len(rows)+2)
	for _, r := range rows {
		total += r.CostVal
		tokens += r.Tokens
		out = append(out, []string{
			r.Model,
			cli.FormatNumber(int64(r.Sessions)),
			cli.FormatTokens(r.Tokens),
			cli.FormatCost(r.CostVal),
			cli.FormatRatio(r.Share),
		})
	}
	out = append(out, []string{cli.Separator}, []string{"TOTAL", "", cli.FormatTokens(tokens), cli.FormatCost(total), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Sessions", "Tokens", "Cost", "Share"},
		Rows:    out,
	}))
	return nil
}
