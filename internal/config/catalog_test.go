package config

import (
	"math"
	"testing"
)

func TestContextWindow(t *testing.T) {
	tests := []struct {
		model string
		want  int64
	}{
		{"gemini-1.5-pro", 2_000_000},
		{"Gemini-2.5-PRO-preview", 2_000_000},
		{"gemini-2.0-flash", 200_000},
		{"claude-3-opus", 200_000},
		{"anthropic/Claude-Sonnet-4", 200_000},
		{"gpt-4o", 200_000},
		{"Unknown", 200_000},
		{"", 200_000},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := ContextWindow(tt.model); got != tt.want {
				t.Errorf("ContextWindow(%q) = %d, want %d", tt.model, got, tt.want)
			}
		})
	}
}

func TestCacheSavings(t *testing.T) {
	if got := CacheSavings(1_000_000); math.Abs(got-2.7) > 1e-9 {
		t.Errorf("CacheSavings(1M) = %v, want 2.7", got)
	}
	if got := CacheSavings(0); got != 0 {
		t.Errorf("CacheSavings(0) = %v, want 0", got)
	}
}

func TestNormalizeModelName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"claude-opus-4-5-20251101", "claude-opus-4-5"},
		{"claude-sonnet-4", "claude-sonnet-4"},
		{"gpt-4o-2024", "gpt-4o-2024"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := NormalizeModelName(tt.in); got != tt.want {
			t.Errorf("NormalizeModelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
