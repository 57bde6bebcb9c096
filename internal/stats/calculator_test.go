package stats

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/tally"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

// far is a clock reading long after every fixture, so sessions are completed.
var far = time.UnixMilli(1_000_000_000_000)

func TestCalculate_Empty(t *testing.T) {
	if _, ok := Calculate("ses_x", nil, far); ok {
		t.Error("Calculate on no messages returned ok")
	}
}

func TestCalculate_TwoMessageSession(t *testing.T) {
	msgs := []model.Message{
		{
			Role: model.RoleUser,
			Time: model.MessageTime{Created: i64(1000)},
		},
		{
			Role:   model.RoleAssistant,
			Time:   model.MessageTime{Created: i64(1000), Completed: i64(3000)},
			Tokens: &model.Tokens{Input: 10, Output: 20},
			Cost:   f64(0.01),
			Finish: str("stop"),
		},
	}

	s, ok := Calculate("ses_abc", msgs, far)
	if !ok {
		t.Fatal("Calculate returned !ok")
	}

	if s.Interactions != 1 {
		t.Errorf("Interactions = %d, want 1", s.Interactions)
	}
	if s.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", s.MessageCount)
	}
	if s.DurationFormatted != "2s" {
		t.Errorf("DurationFormatted = %q, want 2s", s.DurationFormatted)
	}
	if s.Duration != "00:00:02" {
		t.Errorf("Duration = %q", s.Duration)
	}
	if s.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", s.TotalTokens)
	}
	if s.Cost != "$0.0100" {
		t.Errorf("Cost = %q, want $0.0100", s.Cost)
	}
	if s.Name != "ses_abc" {
		t.Errorf("Name = %q, want id fallback", s.Name)
	}

	ag := s.AgentStats["Unknown"]
	if ag == nil || ag.Calls != 1 || ag.Success != 1 || ag.Tokens != 30 {
		t.Errorf("AgentStats[Unknown] = %+v", ag)
	}
	mo := s.ModelStats["Unknown"]
	if mo == nil || mo.Calls != 1 || mo.Success != 1 {
		t.Errorf("ModelStats[Unknown] = %+v", mo)
	}
	if s.FinishReason == nil || *s.FinishReason != "stop" {
		t.Errorf("FinishReason = %v", s.FinishReason)
	}
	if s.AvgLatency != "2.0" || !s.HasLatency {
		t.Errorf("AvgLatency = %q HasLatency = %v", s.AvgLatency, s.HasLatency)
	}
	if s.Status != model.StatusCompleted {
		t.Errorf("Status = %q", s.Status)
	}
}

func TestCalculate_OrderIndependent(t *testing.T) {
	build := func(order []int64) []model.Message {
		out := make([]model.Message, 0, len(order))
		for _, c := range order {
			out = append(out, model.Message{
				Role:    model.RoleAssistant,
				Time:    model.MessageTime{Created: i64(c), Completed: i64(c + 10)},
				Summary: &model.Summary{Title: "title-" + string(rune('a'+c/50))},
			})
		}
		return out
	}

	a, _ := Calculate("s", build([]int64{100, 50, 200}), far)
	b, _ := Calculate("s", build([]int64{50, 100, 200}), far)
	c, _ := Calculate("s", build([]int64{200, 100, 50}), far)

	for _, got := range []model.SessionStats{a, b, c} {
		if got.Timestamp != 50 {
			t.Errorf("Timestamp = %d, want 50", got.Timestamp)
		}
		if got.DurationMs != 160 {
			t.Errorf("DurationMs = %d, want 160", got.DurationMs)
		}
		if got.Name != "title-b" {
			t.Errorf("Name = %q, want title of earliest message", got.Name)
		}
	}
}

func TestCalculate_MissingCreatedSortsFirst(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Time: model.MessageTime{Created: i64(500)}},
		{Role: model.RoleUser},
	}
	s, _ := Calculate("s", msgs, far)
	if s.Timestamp != 0 {
		t.Errorf("Timestamp = %d, want 0 for missing created", s.Timestamp)
	}
	if s.DurationMs != 500 {
		t.Errorf("DurationMs = %d, want 500", s.DurationMs)
	}
}

func TestCalculate_LastWriteWins(t *testing.T) {
	msgs := []model.Message{
		{
			Role:  model.RoleUser,
			Time:  model.MessageTime{Created: i64(1)},
			Model: &model.ModelRef{ModelID: str("gemini-2.5-pro"), ProviderID: str("google")},
			Agent: str("plan"),
			Path:  &model.Path{Cwd: str("/a")},
		},
		{
			Role:       model.RoleAssistant,
			Time:       model.MessageTime{Created: i64(2), Completed: i64(3)},
			ModelID:    str("claude-sonnet-4"),
			ProviderID: str("anthropic"),
			Agent:      str("build"),
			Path:       &model.Path{Cwd: str("/b")},
			Tokens:     &model.Tokens{Input: 5, Output: 5},
			Cost:       f64(0.5),
		},
	}
	s, _ := Calculate("s", msgs, far)

	if s.Model != "claude-sonnet-4" || s.Provider != "anthropic" {
		t.Errorf("Model/Provider = %q/%q", s.Model, s.Provider)
	}
	if s.Agent != "build" || s.ProjectPath != "/b" {
		t.Errorf("Agent/ProjectPath = %q/%q", s.Agent, s.ProjectPath)
	}
	if s.ContextWindow != 200_000 {
		t.Errorf("ContextWindow = %d", s.ContextWindow)
	}
	if len(s.ModelsUsed) != 2 || s.ModelsUsed[0].Name != "gemini-2.5-pro" || s.ModelsUsed[1].Name != "claude-sonnet-4" {
		t.Fatalf("ModelsUsed = %+v", s.ModelsUsed)
	}
	if s.ModelsUsed[1].Tokens != 10 || s.ModelsUsed[1].Cost != "$0.50" {
		t.Errorf("ModelsUsed[1] = %+v", s.ModelsUsed[1])
	}
	if s.AgentStats["build"] == nil || s.AgentStats["build"].Other != 1 {
		t.Errorf("AgentStats = %+v", s.AgentStats)
	}
	if _, ok := s.AgentStats["plan"]; ok {
		t.Error("user messages must not be tallied")
	}
}

func TestCalculate_ContextWindow(t *testing.T) {
	tests := []struct {
		name       string
		model      string
		input      int64
		cacheRead  int64
		wantWindow int64
		wantPct    int
		wantRemain int64
		wantOver   int64
	}{
		{"gemini pro", "gemini-1.5-pro", 100_000, 0, 2_000_000, 5, 1_900_000, 0},
		{"claude full", "claude-3-opus", 150_000, 100_000, 200_000, 100, 0, 50_000},
		{"unknown half", "mystery", 60_000, 40_000, 200_000, 50, 100_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := []model.Message{{
				Role:    model.RoleAssistant,
				Time:    model.MessageTime{Created: i64(1), Completed: i64(2)},
				ModelID: str(tt.model),
				Tokens:  &model.Tokens{Input: tt.input, CacheRead: tt.cacheRead},
			}}
			s, _ := Calculate("s", msgs, far)
			if s.ContextWindow != tt.wantWindow {
				t.Errorf("ContextWindow = %d, want %d", s.ContextWindow, tt.wantWindow)
			}
			if s.ContextPercentage != tt.wantPct {
				t.Errorf("ContextPercentage = %d, want %d", s.ContextPercentage, tt.wantPct)
			}
			if s.ContextRemaining != tt.wantRemain {
				t.Errorf("ContextRemaining = %d, want %d", s.ContextRemaining, tt.wantRemain)
			}
			if s.ContextOverage != tt.wantOver || s.ContextCompactNeeded != tt.wantOver {
				t.Errorf("ContextOverage = %d, want %d", s.ContextOverage, tt.wantOver)
			}
		})
	}
}

func TestCalculate_RecentTokensSkipsTokenless(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleAssistant, Time: model.MessageTime{Created: i64(1)}, Tokens: &model.Tokens{Input: 7, Output: 3, CacheRead: 11, CacheWrite: 2}},
		{Role: model.RoleUser, Time: model.MessageTime{Created: i64(2)}},
	}
	s, _ := Calculate("s", msgs, far)
	want := model.RecentTokens{Input: 7, Output: 3, CacheRead: 11, CacheWrite: 2}
	if s.RecentTokens != want {
		t.Errorf("RecentTokens = %+v, want %+v", s.RecentTokens, want)
	}
	if s.CurrentTurnContext != 18 {
		t.Errorf("CurrentTurnContext = %d, want 18", s.CurrentTurnContext)
	}
}

func TestCalculate_ErrorFromLastMessageOnly(t *testing.T) {
	errMarker := []byte(`{"name":"APIError"}`)
	msgs := []model.Message{
		{Role: model.RoleAssistant, Time: model.MessageTime{Created: i64(1), Completed: i64(2)}, Error: errMarker},
		{Role: model.RoleUser, Time: model.MessageTime{Created: i64(3)}},
	}
	s, _ := Calculate("s", msgs, far)
	if s.HasError {
		t.Error("HasError = true, but the last message has no error")
	}
	if s.AgentStats["Unknown"].Failed != 1 {
		t.Error("earlier error should still be tallied as failed")
	}

	msgs = append(msgs, model.Message{Role: model.RoleAssistant, Time: model.MessageTime{Created: i64(4)}, Error: errMarker})
	s, _ = Calculate("s", msgs, far)
	if !s.HasError {
		t.Error("HasError = false, want true")
	}
}

func TestCalculate_Status(t *testing.T) {
	base := int64(1_700_000_000_000)
	now := time.UnixMilli(base + 60_000)

	tests := []struct {
		name string
		last model.Message
		now  time.Time
		want string
	}{
		{"recent user", model.Message{Role: model.RoleUser, Time: model.MessageTime{Created: i64(base)}}, now, model.StatusActive},
		{"recent assistant streaming", model.Message{Role: model.RoleAssistant, Time: model.MessageTime{Created: i64(base)}}, now, model.StatusActive},
		{"recent assistant done", model.Message{Role: model.RoleAssistant, Time: model.MessageTime{Created: i64(base - 1000), Completed: i64(base)}}, now, model.StatusCompleted},
		{"stale user", model.Message{Role: model.RoleUser, Time: model.MessageTime{Created: i64(base)}}, now.Add(20 * time.Minute), model.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := Calculate("s", []model.Message{tt.last}, tt.now)
			if s.Status != tt.want {
				t.Errorf("Status = %q, want %q", s.Status, tt.want)
			}
		})
	}
}

func TestCalculate_CacheAndDerived(t *testing.T) {
	msgs := []model.Message{{
		Role:    model.RoleAssistant,
		Time:    model.MessageTime{Created: i64(0), Completed: i64(60_000)},
		Tokens:  &model.Tokens{Input: 300, Output: 600_000, CacheRead: 700, Reasoning: 9},
		Summary: &model.Summary{Files: 2, Additions: 10, Deletions: 3},
	}}
	s, _ := Calculate("s", msgs, far)

	if s.CacheHitRate != 70 {
		t.Errorf("CacheHitRate = %d, want 70", s.CacheHitRate)
	}
	if s.CacheSavings != "0.00" {
		t.Errorf("CacheSavings = %q", s.CacheSavings)
	}
	if s.TokensPerMinute != 600_300 || s.RateLevel != model.RateHigh {
		t.Errorf("TokensPerMinute = %d RateLevel = %s", s.TokensPerMinute, s.RateLevel)
	}
	if !s.HasReasoning || !s.HasFileChanges || s.LinesAdded != 10 {
		t.Errorf("derived flags = reasoning %v files %v added %d", s.HasReasoning, s.HasFileChanges, s.LinesAdded)
	}
	if s.HasCostData {
		t.Error("HasCostData = true without cost fields")
	}
	if s.LatestDuration != "0s" {
		t.Errorf("LatestDuration = %q, want 0s when created is zero", s.LatestDuration)
	}
}

func TestCalculate_Preview(t *testing.T) {
	long := strings.Repeat("é", 250)
	msgs := []model.Message{{Role: model.RoleUser, Time: model.MessageTime{Created: i64(1)}, Preview: &long}}
	s, _ := Calculate("s", msgs, far)
	if got := len([]rune(s.LatestPreview)); got != 200 {
		t.Errorf("preview runes = %d, want 200", got)
	}

	s, _ = Calculate("s", []model.Message{{Role: model.RoleUser}}, far)
	if s.LatestPreview != "No content" {
		t.Errorf("LatestPreview = %q", s.LatestPreview)
	}
}

func TestCacheHitRate(t *testing.T) {
	tests := []struct {
		input, read int64
		want        int
	}{
		{300, 700, 70},
		{0, 0, 0},
		{0, 50, 100},
		{1, 2, 66},
	}
	for _, tt := range tests {
		if got := CacheHitRate(tt.input, tt.read); got != tt.want {
			t.Errorf("CacheHitRate(%d, %d) = %d, want %d", tt.input, tt.read, got, tt.want)
		}
	}
}

func TestRateLevel(t *testing.T) {
	tests := []struct {
		tpm  int64
		want string
	}{
		{0, model.RateLow},
		{10_000, model.RateLow},
		{10_001, model.RateMedium},
		{50_000, model.RateMedium},
		{50_001, model.RateHigh},
	}
	for _, tt := range tests {
		if got := RateLevel(tt.tpm); got != tt.want {
			t.Errorf("RateLevel(%d) = %s, want %s", tt.tpm, got, tt.want)
		}
	}
}

func TestContextPercentage(t *testing.T) {
	if got := ContextPercentage(300_000, 200_000); got != 100 {
		t.Errorf("over window = %d, want 100", got)
	}
	if got := ContextPercentage(5, 0); got != 0 {
		t.Errorf("zero window = %d, want 0", got)
	}
	if got := ContextPercentage(100_000, 2_000_000); got != 5 {
		t.Errorf("gemini = %d, want 5", got)
	}
}

func TestTokensPerMinute(t *testing.T) {
	if got := TokensPerMinute(1000, 0); got != 0 {
		t.Errorf("zero duration = %d", got)
	}
	if got := TokensPerMinute(1000, 30_000); got != 2000 {
		t.Errorf("half minute = %d, want 2000", got)
	}
	if got := TokensPerMinute(1000, -5); got != 0 {
		t.Errorf("negative duration = %d", got)
	}
}

func TestTimePercentage(t *testing.T) {
	if got := timePercentage(9000 * 1000); got != 50 {
		t.Errorf("2.5h = %d, want 50", got)
	}
	if got := timePercentage(int64(math.MaxInt32) * 1000); got != 100 {
		t.Errorf("long = %d, want 100", got)
	}
	if got := timePercentage(-5000); got != 0 {
		t.Errorf("negative = %d, want 0", got)
	}
}

func TestCalculate_ZeroCompletedClampsTimePercentage(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Time: model.MessageTime{Created: i64(1_700_000_000_000)}},
		{
			Role:   model.RoleAssistant,
			Time:   model.MessageTime{Created: i64(1_700_000_100_000), Completed: i64(0)},
			Finish: str("stop"),
		},
	}
	s, ok := Calculate("ses_neg", msgs, time.UnixMilli(1_800_000_000_000))
	if !ok {
		t.Fatal("Calculate returned !ok")
	}
	if s.TimePercentage < 0 || s.TimePercentage > 100 {
		t.Errorf("TimePercentage = %d, want within [0,100]", s.TimePercentage)
	}
	if s.Duration != "00:00:00" {
		t.Errorf("Duration = %q, want 00:00:00", s.Duration)
	}
}

func TestCalculate_OutcomeBucketsSumToCalls(t *testing.T) {
	assistant := func(agent, modelID, finish string, failed bool) model.Message {
		m := model.Message{Role: model.RoleAssistant, Time: model.MessageTime{Created: i64(1000)}}
		if agent != "" {
			m.Agent = str(agent)
		}
		if modelID != "" {
			m.ModelID = str(modelID)
		}
		if finish != "" {
			m.Finish = str(finish)
		}
		if failed {
			m.Error = []byte(`{"name":"APIError"}`)
		}
		return m
	}
	msgs := []model.Message{
		{Role: model.RoleUser, Time: model.MessageTime{Created: i64(500)}},
		assistant("build", "gpt-5", "stop", false),
		assistant("build", "gpt-5", "tool-calls", false),
		assistant("plan", "claude-sonnet-4", "length", false),
		assistant("plan", "claude-sonnet-4", "stop", true),
		assistant("plan", "", "content-filter", false),
		assistant("build", "claude-sonnet-4", "", false),
	}
	const n = 6

	s, ok := Calculate("ses_out", msgs, far)
	if !ok {
		t.Fatal("Calculate returned !ok")
	}
	if _, ok := s.ModelStats["Unknown"]; !ok {
		t.Errorf("model-less message not keyed Unknown: %v", s.ModelStats.Keys())
	}

	sets := []struct {
		name string
		set  tally.Set
	}{
		{"agent", s.AgentStats},
		{"model", s.ModelStats},
	}
	for _, tt := range sets {
		var calls int64
		for k, tl := range tt.set {
			if tl.Bucketed() != tl.Calls {
				t.Errorf("%s %q: buckets = %d, calls = %d", tt.name, k, tl.Bucketed(), tl.Calls)
			}
			calls += tl.Calls
		}
		if calls != n {
			t.Errorf("%s tallies total %d calls, want %d", tt.name, calls, n)
		}
	}

	total := s.AgentStats.Total()
	if total.Success != 1 || total.ToolCalls != 1 || total.Length != 1 || total.Failed != 1 || total.Other != 2 {
		t.Errorf("agent totals = %+v", total)
	}
}
