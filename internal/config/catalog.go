package config

import "strings"

// Context window sizes in tokens.
const (
	DefaultContextWindow = 200_000
	ClaudeContextWindow  = 200_000
	GeminiProWindow      = 2_000_000
)

// CacheSavingsPerMTok is the rough saving per million cache-read tokens:
// about $3/M at the input rate versus $0.30/M at the cache rate.
const CacheSavingsPerMTok = 2.7

// ContextWindow returns the context window size for a model id. Matching is
// case-insensitive on substrings, so "gemini-2.5-pro-preview" resolves to the
// Gemini Pro window.
func ContextWindow(model string) int64 {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "gemini") && strings.Contains(m, "pro"):
		return GeminiProWindow
	case strings.Contains(m, "claude"):
		return ClaudeContextWindow
	}
	return DefaultContextWindow
}

// CacheSavings estimates the dollars saved by cache reads.
func CacheSavings(cacheReadTokens int64) float64 {
	return float64(cacheReadTokens) / 1_000_000 * CacheSavingsPerMTok
}

// NormalizeModelName strips a trailing date suffix from a model id so
// tallies for dated snapshots read alongside their base model in tables.
// e.g., "claude-opus-4-5-20251101" -> "claude-opus-4-5"
func NormalizeModelName(raw string) string {
	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if isAllDigits(last) && len(last) >= 8 {
			return strings.Join(parts[:len(parts)-1], "-")
		}
	}
	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
