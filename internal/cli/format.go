// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTokens shortens a token count: 950 -> "950", 12_300 -> "12.3K",
// 4_500_000 -> "4.5M".
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	}
	return strconv.FormatInt(n, 10)
}

// FormatCost renders a USD amount with cents below $100 and whole dollars
// (comma grouped) above.
func FormatCost(cost float64) string {
	if cost < 0 {
		return "-" + FormatCost(-cost)
	}
	if cost >= 100 {
		return "$" + FormatNumber(int64(cost+0.5))
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatSignedCost renders a cost change with an explicit sign.
func FormatSignedCost(delta float64) string {
	if delta < 0 {
		return "-" + FormatCost(-delta)
	}
	return "+" + FormatCost(delta)
}

// FormatSignedTokens renders a token change with an explicit sign.
func FormatSignedTokens(delta int64) string {
	if delta < 0 {
		return "-" + FormatTokens(-delta)
	}
	return "+" + FormatTokens(delta)
}

// FormatNumber adds comma separators to an integer: 1234567 -> "1,234,567".
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatRatio formats a 0-1 fraction as a percentage.
func FormatRatio(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatPercent formats a whole-number percentage.
func FormatPercent(p int) string {
	return strconv.Itoa(p) + "%"
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// ShortID trims the common session prefix for narrow tables.
func ShortID(id, prefix string, n int) string {
	return Truncate(strings.TrimPrefix(id, prefix), n)
}
