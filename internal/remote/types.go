package remote

import (
	"bytes"
	"encoding/json"

	"github.com/theirongolddev/ocburn/internal/coerce"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/tally"
)

// sessionsResponse is the /api/sessions envelope. Sessions stay raw so a
// malformed entry can be dropped on its own.
type sessionsResponse struct {
	Sessions sessionList `json:"sessions"`
}

// sessionList decodes a JSON array of raw values; anything else is empty.
type sessionList []json.RawMessage

func (l *sessionList) UnmarshalJSON(raw []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*l = nil
		return nil
	}
	*l = items
	return nil
}

// wireSession mirrors model.SessionStats with every scalar decoded through
// the coerce types. Devices may run older dashboards that emit strings where
// numbers are expected, or the reverse.
type wireSession struct {
	ID                coerce.String `json:"id"`
	Name              coerce.String `json:"name"`
	Started           coerce.String `json:"started"`
	Timestamp         coerce.Int    `json:"timestamp"`
	DurationMs        coerce.Int    `json:"duration_ms"`
	Duration          coerce.String `json:"duration"`
	DurationFormatted coerce.String `json:"duration_formatted"`

	Model       coerce.String `json:"model"`
	Provider    coerce.String `json:"provider"`
	Agent       coerce.String `json:"agent"`
	ProjectPath coerce.String `json:"project_path"`

	Status               coerce.String `json:"status"`
	LastActivity         coerce.String `json:"last_activity"`
	LastActivityMs       coerce.Int    `json:"last_activity_ms"`
	TimeSinceActivity    coerce.String `json:"time_since_activity"`
	SecondsSinceActivity coerce.Int    `json:"seconds_since_activity"`

	MessageCount coerce.Int `json:"message_count"`
	Interactions coerce.Int `json:"interactions"`

	InputTokens      coerce.Int      `json:"input_tokens"`
	OutputTokens     coerce.Int      `json:"output_tokens"`
	CacheWriteTokens coerce.Int      `json:"cache_write_tokens"`
	CacheReadTokens  coerce.Int      `json:"cache_read_tokens"`
	ReasoningTokens  coerce.Int      `json:"reasoning_tokens"`
	TotalTokens      coerce.Int      `json:"total_tokens"`
	RecentTokens     json.RawMessage `json:"recent_tokens"`
	TokensPerMinute  coerce.Int      `json:"tokens_per_minute"`
	RateLevel        coerce.String   `json:"rate_level"`

	ContextSize             coerce.Int `json:"context_size"`
	CurrentTurnContext      coerce.Int `json:"current_turn_context"`
	TotalAccumulatedContext coerce.Int `json:"total_accumulated_context"`
	ContextWindow           coerce.Int `json:"context_window"`
	ContextPercentage       coerce.Int `json:"context_percentage"`
	ContextRemaining        coerce.Int `json:"context_remaining"`
	ContextOverage          coerce.Int `json:"context_overage"`
	ContextCompactNeeded    coerce.Int `json:"context_compact_needed"`
	TimePercentage          coerce.Int `json:"time_percentage"`

	Cost    coerce.String `json:"cost"`
	CostVal coerce.Float  `json:"cost_val"`

	LatestPreview  coerce.String  `json:"latest_preview"`
	LatestDuration coerce.String  `json:"latest_duration"`
	HasError       coerce.Bool    `json:"has_error"`
	FinishReason   *coerce.String `json:"finish_reason"`

	ModelsUsed json.RawMessage `json:"models_used"`

	AvgLatency   coerce.String `json:"avg_latency"`
	CacheHitRate coerce.Int    `json:"cache_hit_rate"`
	CacheSavings coerce.String `json:"cache_savings"`

	FilesChanged coerce.Int `json:"files_changed"`
	LinesAdded   coerce.Int `json:"lines_added"`
	LinesDeleted coerce.Int `json:"lines_deleted"`

	HasTokenData   coerce.Bool `json:"has_token_data"`
	HasCostData    coerce.Bool `json:"has_cost_data"`
	HasLatency     coerce.Bool `json:"has_latency"`
	HasCacheData   coerce.Bool `json:"has_cache_data"`
	HasReasoning   coerce.Bool `json:"has_reasoning"`
	HasFileChanges coerce.Bool `json:"has_file_changes"`

	AgentStats json.RawMessage `json:"agent_stats"`
	ModelStats json.RawMessage `json:"model_stats"`
}

type wireRecent struct {
	Input      coerce.Int `json:"input"`
	Output     coerce.Int `json:"output"`
	CacheWrite coerce.Int `json:"cache_write"`
	CacheRead  coerce.Int `json:"cache_read"`
}

type wireUsage struct {
	Name    coerce.String `json:"name"`
	Tokens  coerce.Int    `json:"tokens"`
	Cost    coerce.String `json:"cost"`
	CostVal coerce.Float  `json:"cost_val"`
}

type wireTally struct {
	Calls     coerce.Int   `json:"calls"`
	Success   coerce.Int   `json:"success"`
	Failed    coerce.Int   `json:"failed"`
	ToolCalls coerce.Int   `json:"tool_calls"`
	Length    coerce.Int   `json:"length"`
	Other     coerce.Int   `json:"other"`
	Tokens    coerce.Int   `json:"tokens"`
	Cost      coerce.Float `json:"cost"`
}

func (w wireSession) toModel() model.SessionStats {
	s := model.SessionStats{
		ID:                string(w.ID),
		Name:              string(w.Name),
		Started:           string(w.Started),
		Timestamp:         int64(w.Timestamp),
		DurationMs:        int64(w.DurationMs),
		Duration:          string(w.Duration),
		DurationFormatted: string(w.DurationFormatted),

		Model:       string(w.Model),
		Provider:    string(w.Provider),
		Agent:       string(w.Agent),
		ProjectPath: string(w.ProjectPath),

		Status:               string(w.Status),
		LastActivity:         string(w.LastActivity),
		LastActivityMs:       int64(w.LastActivityMs),
		TimeSinceActivity:    string(w.TimeSinceActivity),
		SecondsSinceActivity: int64(w.SecondsSinceActivity),

		MessageCount: int(w.MessageCount),
		Interactions: int(w.Interactions),

		InputTokens:      int64(w.InputTokens),
		OutputTokens:     int64(w.OutputTokens),
		CacheWriteTokens: int64(w.CacheWriteTokens),
		CacheReadTokens:  int64(w.CacheReadTokens),
		ReasoningTokens:  int64(w.ReasoningTokens),
		TotalTokens:      int64(w.TotalTokens),
		TokensPerMinute:  int64(w.TokensPerMinute),
		RateLevel:        string(w.RateLevel),

		ContextSize:             int64(w.ContextSize),
		CurrentTurnContext:      int64(w.CurrentTurnContext),
		TotalAccumulatedContext: int64(w.TotalAccumulatedContext),
		ContextWindow:           int64(w.ContextWindow),
		ContextPercentage:       int(w.ContextPercentage),
		ContextRemaining:        int64(w.ContextRemaining),
		ContextOverage:          int64(w.ContextOverage),
		ContextCompactNeeded:    int64(w.ContextCompactNeeded),
		TimePercentage:          int(w.TimePercentage),

		Cost:    string(w.Cost),
		CostVal: float64(w.CostVal),

		LatestPreview:  string(w.LatestPreview),
		LatestDuration: string(w.LatestDuration),
		HasError:       bool(w.HasError),

		AvgLatency:   string(w.AvgLatency),
		CacheHitRate: int(w.CacheHitRate),
		CacheSavings: string(w.CacheSavings),

		FilesChanged: int64(w.FilesChanged),
		LinesAdded:   int64(w.LinesAdded),
		LinesDeleted: int64(w.LinesDeleted),

		HasTokenData:   bool(w.HasTokenData),
		HasCostData:    bool(w.HasCostData),
		HasLatency:     bool(w.HasLatency),
		HasCacheData:   bool(w.HasCacheData),
		HasReasoning:   bool(w.HasReasoning),
		HasFileChanges: bool(w.HasFileChanges),

		AgentStats: decodeTallies(w.AgentStats),
		ModelStats: decodeTallies(w.ModelStats),
	}
	if w.FinishReason != nil {
		f := string(*w.FinishReason)
		s.FinishReason = &f
	}

	var rt wireRecent
	if decodeObject(w.RecentTokens, &rt) {
		s.RecentTokens = model.RecentTokens{
			Input:      int64(rt.Input),
			Output:     int64(rt.Output),
			CacheWrite: int64(rt.CacheWrite),
			CacheRead:  int64(rt.CacheRead),
		}
	}

	var usage []json.RawMessage
	if err := json.Unmarshal(w.ModelsUsed, &usage); err == nil {
		for _, raw := range usage {
			var u wireUsage
			if decodeObject(raw, &u) {
				s.ModelsUsed = append(s.ModelsUsed, model.ModelUsage{
					Name:    string(u.Name),
					Tokens:  int64(u.Tokens),
					Cost:    string(u.Cost),
					CostVal: float64(u.CostVal),
				})
			}
		}
	}

	return s
}

// decodeTallies reads an agent_stats or model_stats object. Entries whose
// value is not an object are dropped; counters inside coerce to integers.
func decodeTallies(raw json.RawMessage) tally.Set {
	set := tally.Set{}
	var entries map[string]json.RawMessage
	if !decodeObject(raw, &entries) {
		return set
	}
	for key, v := range entries {
		var wt wireTally
		if !decodeObject(v, &wt) {
			continue
		}
		set[key] = &tally.Tally{
			Calls:     int64(wt.Calls),
			Success:   int64(wt.Success),
			Failed:    int64(wt.Failed),
			ToolCalls: int64(wt.ToolCalls),
			Length:    int64(wt.Length),
			Other:     int64(wt.Other),
			Tokens:    int64(wt.Tokens),
			Cost:      float64(wt.Cost),
		}
	}
	return set
}

func decodeObject(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
