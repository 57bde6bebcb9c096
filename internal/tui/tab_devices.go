package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/tui/components"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

func (a App) renderDevicesTab(cw int) string {
	t := theme.Active
	if a.report == nil {
		return components.ContentCard("Devices", "No data", cw)
	}

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	ok := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	down := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	const cols = "%-24s %-12s %9s %7s %9s %9s"
	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf(cols, "Device", "State", "Sessions", "Active", "Tokens", "Cost")))
	b.WriteString("\n")

	for _, d := range a.report.Metrics.Devices {
		state := ok.Render(fmt.Sprintf("%-12s", "● online"))
		if d.Local {
			state = ok.Render(fmt.Sprintf("%-12s", "● local"))
		}
		if !d.Reachable {
			state = down.Render(fmt.Sprintf("%-12s", "✗ offline"))
		}
		name := row.Render(fmt.Sprintf("%-24s ", cli.Truncate(d.Name, 24)))
		nums := row.Render(fmt.Sprintf(" %9s %7s %9s %9s",
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatNumber(int64(d.Active)),
			cli.FormatTokens(d.Tokens),
			cli.FormatCost(d.CostVal)))
		b.WriteString(name + state + nums + "\n")
	}

	b.WriteString("\n")
	b.WriteString(muted.Render("Add devices with `ocburn devices add`; each runs `ocburn serve`."))
	return components.ContentCard(fmt.Sprintf("Devices (%d)", len(a.report.Metrics.Devices)), b.String(), cw)
}
