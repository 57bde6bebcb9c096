// Package stats reduces a session's message fragments into one SessionStats
// record.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/tally"
)

const (
	unknown = "Unknown"

	// activeWindow is how recently a session must have moved to count as live.
	activeWindow = 15 * time.Minute
	// sessionCeiling is the duration time_percentage is measured against.
	sessionCeiling = 5 * time.Hour

	rateHigh   = 50_000
	rateMedium = 10_000

	previewRunes   = 200
	noPreview      = "No content"
	timestampStyle = "2006-01-02 15:04:05"
)

// accumulator is the running state of the single pass over a session.
type accumulator struct {
	interactions int

	model, provider, agent, projectPath string

	input, output, cacheRead, cacheWrite, reasoning int64
	tokenMessages                                   int

	cost    float64
	hasCost bool

	files, additions, deletions int64

	latencyTotal int64
	latencyCount int

	finish *string

	usage      map[string]*model.ModelUsage
	usageOrder []string

	agents tally.Set
	models tally.Set
}

func newAccumulator() *accumulator {
	return &accumulator{
		model:       unknown,
		provider:    unknown,
		agent:       unknown,
		projectPath: unknown,
		usage:       make(map[string]*model.ModelUsage),
		agents:      tally.Set{},
		models:      tally.Set{},
	}
}

func (a *accumulator) add(m model.Message) {
	switch m.Role {
	case model.RoleUser:
		a.interactions++
	case model.RoleAssistant:
		if m.Finish != nil {
			f := *m.Finish
			a.finish = &f
		}
		if m.Time.Created != nil && m.Time.Completed != nil && *m.Time.Created != 0 && *m.Time.Completed != 0 {
			if lat := *m.Time.Completed - *m.Time.Created; lat > 0 {
				a.latencyTotal += lat
				a.latencyCount++
			}
		}
	}

	if m.Path != nil && m.Path.Cwd != nil {
		a.projectPath = *m.Path.Cwd
	}
	if m.Agent != nil {
		a.agent = *m.Agent
	}
	if m.ModelID != nil {
		a.model = *m.ModelID
	}
	if m.ProviderID != nil {
		a.provider = *m.ProviderID
	}
	if m.Model != nil {
		if m.Model.ModelID != nil {
			a.model = *m.Model.ModelID
		}
		if m.Model.ProviderID != nil {
			a.provider = *m.Model.ProviderID
		}
	}

	msgModel, ok := m.EffectiveModel()
	if !ok {
		msgModel = unknown
	}

	var msgIn, msgOut int64
	if m.Tokens != nil {
		a.tokenMessages++
		msgIn, msgOut = m.Tokens.Input, m.Tokens.Output
		a.input += msgIn
		a.output += msgOut
		a.cacheRead += m.Tokens.CacheRead
		a.cacheWrite += m.Tokens.CacheWrite
		a.reasoning += m.Tokens.Reasoning
	}

	var msgCost float64
	if m.Cost != nil {
		a.hasCost = true
		msgCost = *m.Cost
	}
	a.cost += msgCost

	if msgModel != unknown {
		u, seen := a.usage[msgModel]
		if !seen {
			u = &model.ModelUsage{Name: msgModel}
			a.usage[msgModel] = u
			a.usageOrder = append(a.usageOrder, msgModel)
		}
		u.Tokens += msgIn + msgOut
		u.CostVal += msgCost
	}

	if m.Role == model.RoleAssistant {
		finish := ""
		if m.Finish != nil {
			finish = *m.Finish
		}
		outcome := tally.Classify(m.HasError(), finish)
		msgAgent := unknown
		if m.Agent != nil {
			msgAgent = *m.Agent
		}
		a.agents.Record(msgAgent, outcome, msgIn+msgOut, msgCost)
		a.models.Record(msgModel, outcome, msgIn+msgOut, msgCost)
	}

	// Summary counters are summed as if every message carried a per-turn
	// diff. opencode may write cumulative values, in which case these
	// overcount.
	if m.Summary != nil {
		a.files += m.Summary.Files
		a.additions += m.Summary.Additions
		a.deletions += m.Summary.Deletions
	}
}

// Sort orders messages by creation time, missing times first. The sort is
// stable so equal timestamps keep their directory order.
func Sort(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedMs() < msgs[j].CreatedMs()
	})
}

// Calculate reduces a session's messages into its statistics record. It
// returns false when msgs is empty. msgs is sorted in place.
func Calculate(id string, msgs []model.Message, now time.Time) (model.SessionStats, bool) {
	if len(msgs) == 0 {
		return model.SessionStats{}, false
	}
	Sort(msgs)

	first, last := msgs[0], msgs[len(msgs)-1]

	start := first.CreatedMs()
	end := start
	switch {
	case last.Time.Completed != nil:
		end = *last.Time.Completed
	case last.Time.Created != nil:
		end = *last.Time.Created
	}
	durationMs := end - start

	acc := newAccumulator()
	for _, m := range msgs {
		acc.add(m)
	}

	s := model.SessionStats{
		ID:                id,
		Name:              id,
		Timestamp:         start,
		Started:           formatLocal(start),
		DurationMs:        durationMs,
		Duration:          FormatClock(durationMs),
		DurationFormatted: FormatCompact(durationMs),

		Model:       acc.model,
		Provider:    acc.provider,
		Agent:       acc.agent,
		ProjectPath: acc.projectPath,

		MessageCount: len(msgs),
		Interactions: acc.interactions,

		InputTokens:      acc.input,
		OutputTokens:     acc.output,
		CacheWriteTokens: acc.cacheWrite,
		CacheReadTokens:  acc.cacheRead,
		ReasoningTokens:  acc.reasoning,
		TotalTokens:      acc.input + acc.output,

		Cost:    fmt.Sprintf("$%.4f", acc.cost),
		CostVal: acc.cost,

		FinishReason: acc.finish,

		FilesChanged: acc.files,
		LinesAdded:   acc.additions,
		LinesDeleted: acc.deletions,

		HasTokenData:   acc.tokenMessages > 0,
		HasCostData:    acc.hasCost,
		HasCacheData:   acc.cacheRead > 0,
		HasReasoning:   acc.reasoning > 0,
		HasFileChanges: acc.files > 0,

		AgentStats: acc.agents,
		ModelStats: acc.models,
	}
	if first.Summary != nil && first.Summary.Title != "" {
		s.Name = first.Summary.Title
	}

	s.ModelsUsed = make([]model.ModelUsage, 0, len(acc.usageOrder))
	for _, name := range acc.usageOrder {
		u := *acc.usage[name]
		u.Cost = fmt.Sprintf("$%.2f", u.CostVal)
		s.ModelsUsed = append(s.ModelsUsed, u)
	}

	s.RecentTokens = recentTokens(msgs)
	s.TokensPerMinute = TokensPerMinute(acc.input+acc.output, durationMs)
	s.RateLevel = RateLevel(s.TokensPerMinute)

	applyContext(&s, config.ContextWindow(acc.model))
	s.TimePercentage = timePercentage(durationMs)

	s.LatestPreview = preview(last)
	s.LatestDuration = fmt.Sprintf("%ds", latestDurationSec(last))
	s.HasError = last.HasError()

	s.LastActivityMs = end
	s.LastActivity = formatLocal(end)
	since := now.Sub(time.UnixMilli(end))
	s.SecondsSinceActivity = int64(since / time.Second)
	s.TimeSinceActivity = FormatSince(since)
	s.Status = status(last, since)

	avg := 0.0
	if acc.latencyCount > 0 {
		avg = float64(acc.latencyTotal) / float64(acc.latencyCount) / 1000
	}
	s.AvgLatency = fmt.Sprintf("%.1f", avg)
	s.HasLatency = avg > 0

	s.CacheHitRate = CacheHitRate(acc.input, acc.cacheRead)
	s.CacheSavings = fmt.Sprintf("%.2f", config.CacheSavings(acc.cacheRead))

	return s, true
}

func recentTokens(msgs []model.Message) model.RecentTokens {
	for i := len(msgs) - 1; i >= 0; i-- {
		if t := msgs[i].Tokens; t != nil {
			return model.RecentTokens{
				Input:      t.Input,
				Output:     t.Output,
				CacheWrite: t.CacheWrite,
				CacheRead:  t.CacheRead,
			}
		}
	}
	return model.RecentTokens{}
}

// applyContext fills the context window fields from the most recent turn.
func applyContext(s *model.SessionStats, window int64) {
	current := s.RecentTokens.Input + s.RecentTokens.CacheRead
	s.ContextSize = current
	s.CurrentTurnContext = current
	s.TotalAccumulatedContext = s.InputTokens + s.CacheReadTokens
	s.ContextWindow = window
	s.ContextPercentage = ContextPercentage(current, window)
	s.ContextRemaining = max(0, window-current)
	s.ContextOverage = max(0, current-window)
	s.ContextCompactNeeded = s.ContextOverage
}

// ContextPercentage returns current/window as a whole percentage in [0,100].
func ContextPercentage(current, window int64) int {
	if window <= 0 {
		return 0
	}
	pct := int(float64(current) / float64(window) * 100)
	return min(100, max(0, pct))
}

// CacheHitRate returns the share of prompt tokens served from cache as a
// whole percentage, or 0 with no prompt tokens.
func CacheHitRate(input, cacheRead int64) int {
	denom := input + cacheRead
	if denom <= 0 {
		return 0
	}
	return int(float64(cacheRead) / float64(denom) * 100)
}

// TokensPerMinute returns the session's input+output throughput.
func TokensPerMinute(tokens, durationMs int64) int64 {
	minutes := float64(durationMs) / 1000 / 60
	if minutes <= 0 {
		return 0
	}
	return int64(float64(tokens) / minutes)
}

// RateLevel buckets a tokens-per-minute figure.
func RateLevel(tpm int64) string {
	switch {
	case tpm > rateHigh:
		return model.RateHigh
	case tpm > rateMedium:
		return model.RateMedium
	}
	return model.RateLow
}

func timePercentage(durationMs int64) int {
	secs := durationMs / 1000
	pct := int(float64(secs) / sessionCeiling.Seconds() * 100)
	return min(100, max(0, pct))
}

func status(last model.Message, since time.Duration) string {
	if since >= activeWindow {
		return model.StatusCompleted
	}
	switch last.Role {
	case model.RoleUser:
		return model.StatusActive
	case model.RoleAssistant:
		if last.Time.Completed == nil || *last.Time.Completed == 0 {
			return model.StatusActive
		}
	}
	return model.StatusCompleted
}

func preview(last model.Message) string {
	if last.Preview == nil {
		return noPreview
	}
	r := []rune(*last.Preview)
	if len(r) > previewRunes {
		r = r[:previewRunes]
	}
	return string(r)
}

func latestDurationSec(last model.Message) int64 {
	c, d := last.Time.Created, last.Time.Completed
	if c == nil || d == nil || *c == 0 || *d == 0 {
		return 0
	}
	return (*d - *c) / 1000
}

func formatLocal(ms int64) string {
	return time.UnixMilli(ms).Local().Format(timestampStyle)
}
