package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the last load.
type StatusInfo struct {
	LoadTime    string
	Refreshing  bool
	AutoRefresh bool
	Unreachable int
	Err         string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")

	var right []string
	switch {
	case info.Err != "":
		right = append(right, warn.Render(info.Err))
	case info.Unreachable > 0:
		right = append(right, warn.Render(fmt.Sprintf("%d device(s) unreachable", info.Unreachable)))
	}
	if info.Refreshing {
		right = append(right, accent.Render("refreshing…"))
	} else if info.AutoRefresh {
		right = append(right, base.Render("auto"))
	}
	if info.LoadTime != "" {
		right = append(right, base.Render("load "+info.LoadTime))
	}
	r := strings.Join(right, base.Render("  ")) + base.Render(" ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(r), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + r
}
