package model

import "github.com/theirongolddev/ocburn/internal/tally"

// Session status values.
const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
)

// Token rate levels.
const (
	RateLow    = "LOW"
	RateMedium = "MEDIUM"
	RateHigh   = "HIGH"
)

// RecentTokens is the token block of the last message that carried one.
type RecentTokens struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheWrite int64 `json:"cache_write"`
	CacheRead  int64 `json:"cache_read"`
}

// ModelUsage tracks per-model token usage within a session.
type ModelUsage struct {
	Name    string  `json:"name"`
	Tokens  int64   `json:"tokens"`
	Cost    string  `json:"cost"`
	CostVal float64 `json:"cost_val"`
}

// SessionStats is the reconciled statistics record for one session. It is a
// pure function of the session's message files at read time and is never
// stored. JSON names match what remote devices serve at /api/sessions.
type SessionStats struct {
	ID         string `json:"id"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	Name       string `json:"name"`

	Started           string `json:"started"`
	Timestamp         int64  `json:"timestamp"`
	DurationMs        int64  `json:"duration_ms"`
	Duration          string `json:"duration"`
	DurationFormatted string `json:"duration_formatted"`

	Model       string `json:"model"`
	Provider    string `json:"provider"`
	Agent       string `json:"agent"`
	ProjectPath string `json:"project_path"`

	Status               string `json:"status"`
	LastActivity         string `json:"last_activity"`
	LastActivityMs       int64  `json:"last_activity_ms"`
	TimeSinceActivity    string `json:"time_since_activity"`
	SecondsSinceActivity int64  `json:"seconds_since_activity"`

	MessageCount int `json:"message_count"`
	Interactions int `json:"interactions"`

	InputTokens      int64        `json:"input_tokens"`
	OutputTokens     int64        `json:"output_tokens"`
	CacheWriteTokens int64        `json:"cache_write_tokens"`
	CacheReadTokens  int64        `json:"cache_read_tokens"`
	ReasoningTokens  int64        `json:"reasoning_tokens"`
	TotalTokens      int64        `json:"total_tokens"`
	RecentTokens     RecentTokens `json:"recent_tokens"`
	TokensPerMinute  int64        `json:"tokens_per_minute"`
	RateLevel        string       `json:"rate_level"`

	ContextSize             int64 `json:"context_size"`
	CurrentTurnContext      int64 `json:"current_turn_context"`
	TotalAccumulatedContext int64 `json:"total_accumulated_context"`
	ContextWindow           int64 `json:"context_window"`
	ContextPercentage       int   `json:"context_percentage"`
	ContextRemaining        int64 `json:"context_remaining"`
	ContextOverage          int64 `json:"context_overage"`
	ContextCompactNeeded    int64 `json:"context_compact_needed"`
	TimePercentage          int   `json:"time_percentage"`

	Cost    string  `json:"cost"`
	CostVal float64 `json:"cost_val"`

	LatestPreview  string  `json:"latest_preview"`
	LatestDuration string  `json:"latest_duration"`
	HasError       bool    `json:"has_error"`
	FinishReason   *string `json:"finish_reason"`

	ModelsUsed []ModelUsage `json:"models_used"`

	AvgLatency   string `json:"avg_latency"`
	CacheHitRate int    `json:"cache_hit_rate"`
	CacheSavings string `json:"cache_savings"`

	FilesChanged int64 `json:"files_changed"`
	LinesAdded   int64 `json:"lines_added"`
	LinesDeleted int64 `json:"lines_deleted"`

	HasTokenData   bool `json:"has_token_data"`
	HasCostData    bool `json:"has_cost_data"`
	HasLatency     bool `json:"has_latency"`
	HasCacheData   bool `json:"has_cache_data"`
	HasReasoning   bool `json:"has_reasoning"`
	HasFileChanges bool `json:"has_file_changes"`

	AgentStats tally.Set `json:"agent_stats"`
	ModelStats tally.Set `json:"model_stats"`
}

// IsActive reports whether the session is still in progress.
func (s SessionStats) IsActive() bool {
	return s.Status == StatusActive
}
