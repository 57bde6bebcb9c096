package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/tally"
	"github.com/theirongolddev/ocburn/internal/tui/components"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

func (a App) renderOutcomesTab(cw int) string {
	if a.report == nil {
		return components.ContentCard("Outcomes", "No data", cw)
	}
	m := a.report.Metrics
	return components.ContentCard("By agent", renderTallyTable(m.AgentStats, cw), cw) + "\n" +
		components.ContentCard("By model", renderTallyTable(m.ModelStats, cw), cw)
}

// renderTallyTable lays out one row per key with a stacked outcome bar.
func renderTallyTable(set tally.Set, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	keys := set.Keys()
	if len(keys) == 0 {
		return muted.Render("No assistant calls yet")
	}

	const cols = "%7s %7s %7s %7s %7s %7s %7s %8s"
	nums := fmt.Sprintf(cols, "Calls", "Success", "Failed", "Tools", "Length", "Other", "Rate", "Cost")
	nameW := 18
	barW := max(inner-nameW-lipgloss.Width(nums)-2, 0)

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("%-*s %s", nameW, "Name", nums)))
	if barW > 0 {
		b.WriteString(header.Render(" " + strings.Repeat(" ", barW)))
	}
	b.WriteString("\n")

	for _, k := range keys {
		tl := set[k]
		if tl == nil {
			continue
		}
		line := fmt.Sprintf("%-*s "+cols, nameW, cli.Truncate(k, nameW),
			cli.FormatNumber(tl.Calls),
			cli.FormatNumber(tl.Success),
			cli.FormatNumber(tl.Failed),
			cli.FormatNumber(tl.ToolCalls),
			cli.FormatNumber(tl.Length),
			cli.FormatNumber(tl.Other),
			cli.FormatRatio(tl.SuccessRate()),
			cli.FormatCost(tl.Cost))
		b.WriteString(row.Render(line))
		if barW > 0 {
			b.WriteString(row.Render(" ") + outcomeBar(*tl, barW))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// outcomeBar splits width cells between the outcome buckets.
func outcomeBar(tl tally.Tally, width int) string {
	t := theme.Active
	if tl.Calls == 0 {
		return lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", width))
	}
	parts := []struct {
		n     int64
		color lipgloss.Color
	}{
		{tl.Success, t.Green},
		{tl.ToolCalls, t.Blue},
		{tl.Length, t.Yellow},
		{tl.Other, t.TextDim},
		{tl.Failed, t.Red},
	}

	var b strings.Builder
	used := 0
	for i, p := range parts {
		cells := int(p.n * int64(width) / tl.Calls)
		if i == len(parts)-1 {
			cells = width - used
		}
		cells = min(cells, width-used)
		if cells <= 0 {
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(p.color).Background(t.Surface).Render(strings.Repeat("█", cells)))
		used += cells
	}
	return b.String()
}
