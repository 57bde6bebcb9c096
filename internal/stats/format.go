package stats

import (
	"fmt"
	"time"
)

func splitClock(durationMs int64) (h, m, s int64) {
	total := durationMs / 1000
	if total < 0 {
		total = 0
	}
	return total / 3600, total / 60 % 60, total % 60
}

// FormatClock renders a duration as HH:MM:SS. Negative durations render as
// zero.
func FormatClock(durationMs int64) string {
	h, m, s := splitClock(durationMs)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatCompact renders a duration with its two largest units:
// "1h 1m", "1m 5s" or "42s".
func FormatCompact(durationMs int64) string {
	h, m, s := splitClock(durationMs)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatSince renders time since last activity with its single largest
// unit, e.g. "2d ago" or "12s ago".
func FormatSince(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int64(d / (24 * time.Hour))
	if days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	secs := int64(d / time.Second)
	switch {
	case secs > 3600:
		return fmt.Sprintf("%dh ago", secs/3600)
	case secs > 60:
		return fmt.Sprintf("%dm ago", secs/60)
	}
	return fmt.Sprintf("%ds ago", secs)
}
