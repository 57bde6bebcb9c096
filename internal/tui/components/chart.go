package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ocburn/internal/tui/theme"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders one block glyph per value, scaled to the maximum.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		b.WriteRune(sparkBlocks[min(max(idx, 0), len(sparkBlocks)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(b.String())
}

// BarChart renders vertical bars, height rows tall, with the peak value on
// the y axis and labels under every step-th bar. Narrow widths fall back to
// a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int, format func(float64) string) string {
	n := len(values)
	if n == 0 {
		return ""
	}
	const axisW = 7
	barW := (width - axisW - 1 - (n - 1)) / n
	if barW < 1 || height < 3 {
		return Sparkline(values, color)
	}
	barW = min(barW, 4)

	t := theme.Active
	bg := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.0f", v) }
	}

	var b strings.Builder
	for row := height; row >= 1; row-- {
		label := ""
		if row == height {
			label = format(peak)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))
		for i, v := range values {
			if i > 0 {
				b.WriteString(bg.Render(" "))
			}
			cells := 0.0
			if peak > 0 {
				cells = v / peak * float64(height)
			}
			switch {
			case cells >= float64(row):
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case cells > float64(row-1):
				idx := int((cells - float64(row-1)) * float64(len(sparkBlocks)-1))
				b.WriteString(bar.Render(strings.Repeat(string(sparkBlocks[idx]), barW)))
			default:
				b.WriteString(bg.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	axisLen := n*barW + n - 1
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		line := []rune(strings.Repeat(" ", axisLen))
		step := max(1, 3*4/(barW+1))
		for i := 0; i < n; i += step {
			pos := i * (barW + 1)
			for j, r := range labels[i] {
				if pos+j < len(line) {
					line[pos+j] = r
				}
			}
		}
		b.WriteString("\n")
		b.WriteString(axis.Render(strings.Repeat(" ", axisW+1) + strings.TrimRight(string(line), " ")))
	}
	return b.String()
}
