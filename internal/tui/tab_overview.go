package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/pipeline"
	"github.com/theirongolddev/ocburn/internal/tui/components"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	if a.report == nil {
		return components.ContentCard("Overview", "No data", cw)
	}
	m := a.report.Metrics
	sessions := a.report.Sessions

	var totalTokens int64
	var totalCost float64
	for _, s := range sessions {
		totalTokens += s.TotalTokens
		totalCost += s.CostVal
	}
	calls := m.AgentStats.Total()

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Today", Value: m.TodayCost, Note: cli.FormatTokens(m.TodayTokens) + " tokens"},
		{Label: "Active", Value: cli.FormatNumber(int64(m.ActiveCount)), Note: fmt.Sprintf("of %d sessions", len(sessions))},
		{Label: "All sessions", Value: cli.FormatCost(totalCost), Note: cli.FormatTokens(totalTokens) + " tokens"},
		{Label: "Success rate", Value: cli.FormatRatio(calls.SuccessRate()), Note: cli.FormatNumber(calls.Calls) + " calls"},
	}, cw))
	b.WriteString("\n")

	hourly := pipeline.AggregateTodayHourly(sessions, m.GeneratedAt)
	values := make([]float64, len(hourly))
	labels := make([]string, len(hourly))
	for i, h := range hourly {
		values[i] = float64(h.Tokens)
		labels[i] = fmt.Sprintf("%02d", h.Hour)
	}
	chartW := components.CardInnerWidth(cw)
	chart := components.BarChart(values, labels, t.Accent, chartW, 8, func(v float64) string {
		return cli.FormatTokens(int64(v))
	})
	b.WriteString(components.ContentCard("Tokens today by start hour", chart, cw))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Recent", a.renderRecentSessions(widths[0]), widths[0]),
		components.ContentCard("Top agents", a.renderTopAgents(widths[1]), widths[1]),
	}))
	return b.String()
}

func (a App) renderRecentSessions(w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	sessions := a.report.Sessions
	if len(sessions) == 0 {
		return muted.Render("No sessions yet")
	}

	var lines []string
	for _, s := range sessions[:min(len(sessions), 6)] {
		tail := fmt.Sprintf(" %6s %7s", s.DurationFormatted, s.Cost)
		nameW := max(inner-lipgloss.Width(tail)-2, 6)
		lines = append(lines, statusGlyph(s)+row.Render(fmt.Sprintf(" %-*s", nameW, cli.Truncate(s.Name, nameW)))+muted.Render(tail))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderTopAgents(w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	set := a.report.Metrics.AgentStats
	keys := set.Keys()
	if len(keys) == 0 {
		return muted.Render("No assistant calls yet")
	}

	var lines []string
	for _, k := range keys[:min(len(keys), 6)] {
		tl := set[k]
		tail := fmt.Sprintf(" %6s %6s %7s", cli.FormatNumber(tl.Calls), cli.FormatRatio(tl.SuccessRate()), cli.FormatCost(tl.Cost))
		nameW := max(inner-lipgloss.Width(tail)-1, 6)
		lines = append(lines, row.Render(fmt.Sprintf(" %-*s", nameW, cli.Truncate(k, nameW)))+muted.Render(tail))
	}
	return strings.Join(lines, "\n")
}
