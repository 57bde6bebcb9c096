package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ocburn/internal/cli"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/tui/components"
	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

// sessionsState holds the sessions tab state.
type sessionsState struct {
	cursor     int
	offset     int // first visible row of the list
	activeOnly bool

	searching   bool
	searchInput textinput.Model
	searchQuery string
}

func (s *sessionsState) clamp(n int) {
	s.cursor = min(s.cursor, n-1)
	s.cursor = max(s.cursor, 0)
}

func (s *sessionsState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "name, project, agent, model or device"
	ti.CharLimit = 100
	ti.Width = 40
	return ti
}

// visibleSessions applies the active-only toggle and search query.
func (a App) visibleSessions() []model.SessionStats {
	var out []model.SessionStats
	q := strings.ToLower(a.sessState.searchQuery)
	for _, s := range a.sessions() {
		if a.sessState.activeOnly && !s.IsActive() {
			continue
		}
		if q != "" && !matchesSearch(s, q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchesSearch(s model.SessionStats, q string) bool {
	for _, field := range []string{s.ID, s.Name, s.ProjectPath, s.Agent, s.Model, s.DeviceName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// updateSessionsKey handles sessions-tab bindings. ok is false when the key
// should fall through to the global bindings.
func (a App) updateSessionsKey(key string) (App, tea.Cmd, bool) {
	n := len(a.visibleSessions())
	switch key {
	case "/":
		a.sessState.searching = true
		a.sessState.searchInput = newSearchInput()
		a.sessState.searchInput.SetValue(a.sessState.searchQuery)
		return a, a.sessState.searchInput.Focus(), true
	case "esc":
		a.sessState.searchQuery = ""
		a.sessState.cursor, a.sessState.offset = 0, 0
		return a, nil, true
	case "a":
		a.sessState.activeOnly = !a.sessState.activeOnly
		a.sessState.cursor, a.sessState.offset = 0, 0
		return a, nil, true
	case "j", "down":
		a.sessState.move(1, n)
		return a, nil, true
	case "k", "up":
		a.sessState.move(-1, n)
		return a, nil, true
	case "g", "home":
		a.sessState.cursor, a.sessState.offset = 0, 0
		return a, nil, true
	case "G", "end":
		a.sessState.cursor = n - 1
		a.sessState.clamp(n)
		return a, nil, true
	}
	return a, nil, false
}

// updateSessionsSearch handles keys while the search box is focused.
func (a App) updateSessionsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.sessState.searchQuery = strings.TrimSpace(a.sessState.searchInput.Value())
		a.sessState.searching = false
		a.sessState.cursor, a.sessState.offset = 0, 0
		return a, nil
	case "esc":
		a.sessState.searching = false
		return a, nil
	}
	var cmd tea.Cmd
	a.sessState.searchInput, cmd = a.sessState.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderSessionsTab(cw, h int) string {
	t := theme.Active
	sessions := a.visibleSessions()

	title := fmt.Sprintf("Sessions (%d)", len(sessions))
	if a.sessState.activeOnly {
		title += " · active"
	}
	if a.sessState.searchQuery != "" {
		title += fmt.Sprintf(" · %q", a.sessState.searchQuery)
	}

	var search string
	if a.sessState.searching {
		search = components.ContentCard("Search", a.sessState.searchInput.View(), cw) + "\n"
		h -= lipgloss.Height(search)
	}

	if len(sessions) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return search + components.ContentCard(title, muted.Render("No sessions match."), cw)
	}

	cursor := min(a.sessState.cursor, len(sessions)-1)
	sel := sessions[cursor]

	if a.isCompactLayout() {
		listH := max(h/2, 6)
		list := components.ContentCard(title, a.renderSessionList(sessions, cursor, cw, listH), cw)
		detail := components.ContentCard(cli.Truncate(sel.Name, cw-8), a.renderSessionDetail(sel, cw), cw)
		return search + list + "\n" + detail
	}

	leftW := max(cw*2/5, 44)
	rightW := cw - leftW
	list := components.ContentCard(title, a.renderSessionList(sessions, cursor, leftW, h), leftW)
	detail := components.ContentCard(cli.Truncate(sel.Name, rightW-8), a.renderSessionDetail(sel, rightW), rightW)
	return search + components.CardRow([]string{list, detail})
}

func (a App) renderSessionList(sessions []model.SessionStats, cursor, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	visible := max(h-4, 3) // border + title
	offset := a.sessState.offset
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(sessions))

	var b strings.Builder
	for i := offset; i < end; i++ {
		s := sessions[i]
		marker := statusGlyph(s)

		started := s.Started
		if len(started) >= 16 {
			started = started[5:16] // MM-DD HH:MM
		}
		tail := fmt.Sprintf(" %s %8s %8s", started, cli.FormatTokens(s.TotalTokens), s.Cost)
		nameW := max(inner-2-lipgloss.Width(tail), 6)
		line := fmt.Sprintf(" %-*s%s", nameW, cli.Truncate(s.Name, nameW), tail)

		style := row
		if i == cursor {
			style = selected
		}
		b.WriteString(marker + style.Render(line))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderSessionDetail(s model.SessionStats, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	heading := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	field := func(name, v string) string {
		return label.Render(fmt.Sprintf("%-14s", name)) + value.Render(v) + "\n"
	}

	var b strings.Builder
	b.WriteString(muted.Render(cli.Truncate(s.ProjectPath, inner)) + "\n")
	b.WriteString(muted.Render(strings.Repeat("─", inner)) + "\n")

	b.WriteString(field("ID", cli.ShortID(s.ID, a.opts.SessionPrefix, max(inner-14, 8))))
	b.WriteString(field("Status", s.Status+statusSuffix(s)))
	b.WriteString(field("Device", s.DeviceName))
	b.WriteString(field("Agent / Model", s.Agent+" · "+s.Model))
	b.WriteString(field("Started", s.Started+"  ("+s.Duration+")"))
	b.WriteString(field("Last activity", s.TimeSinceActivity))
	b.WriteString(field("Messages", fmt.Sprintf("%d  (%d interactions)", s.MessageCount, s.Interactions)))
	b.WriteString("\n")

	b.WriteString(heading.Render("TOKENS") + "\n")
	b.WriteString(field("Input", cli.FormatNumber(s.InputTokens)))
	b.WriteString(field("Output", cli.FormatNumber(s.OutputTokens)))
	b.WriteString(field("Cache r / w", cli.FormatNumber(s.CacheReadTokens)+" / "+cli.FormatNumber(s.CacheWriteTokens)))
	b.WriteString(field("Rate", fmt.Sprintf("%s/min  %s", cli.FormatTokens(s.TokensPerMinute), s.RateLevel)))
	b.WriteString(field("Cost", s.Cost))
	if s.HasCacheData {
		b.WriteString(field("Cache hit", fmt.Sprintf("%d%%  saved %s", s.CacheHitRate, s.CacheSavings)))
	}
	b.WriteString("\n")

	b.WriteString(heading.Render("CONTEXT") + "\n")
	barW := max(min(inner-22, 40), 10)
	pct := float64(s.CurrentTurnContext) / float64(max(s.ContextWindow, 1))
	b.WriteString(components.ContextBar("Window", pct, 14, barW) + "\n")
	b.WriteString(field("Current", cli.FormatTokens(s.CurrentTurnContext)+" of "+cli.FormatTokens(s.ContextWindow)))
	if s.ContextOverage > 0 {
		b.WriteString(field("Compact by", cli.FormatTokens(s.ContextCompactNeeded)))
	}

	if len(s.ModelsUsed) > 1 {
		b.WriteString("\n" + heading.Render("MODELS") + "\n")
		for _, u := range s.ModelsUsed {
			b.WriteString(field(cli.Truncate(u.Name, 13), cli.FormatTokens(u.Tokens)+"  "+u.Cost))
		}
	}

	b.WriteString("\n" + heading.Render("LATEST") + "\n")
	for _, line := range wrap(s.LatestPreview, inner, 4) {
		b.WriteString(value.Render(line) + "\n")
	}
	b.WriteString(muted.Render("[/] search  [a] active only  [j/k] navigate"))
	return b.String()
}

// statusGlyph marks errored and in-progress sessions in lists.
func statusGlyph(s model.SessionStats) string {
	t := theme.Active
	switch {
	case s.HasError:
		return lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render("✗")
	case s.IsActive():
		return lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Render("●")
	}
	return lipgloss.NewStyle().Background(t.Surface).Render(" ")
}

func statusSuffix(s model.SessionStats) string {
	var parts []string
	if s.HasError {
		parts = append(parts, "error")
	}
	if s.FinishReason != nil {
		parts = append(parts, *s.FinishReason)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// wrap breaks s into at most maxLines lines of width w, on word boundaries.
func wrap(s string, w, maxLines int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		if cur.Len() > 0 && lipgloss.Width(cur.String())+1+lipgloss.Width(word) > w {
			lines = append(lines, cur.String())
			cur.Reset()
			if len(lines) == maxLines {
				lines[maxLines-1] = cli.Truncate(lines[maxLines-1], w-1) + "…"
				return lines
			}
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(cli.Truncate(word, w))
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
