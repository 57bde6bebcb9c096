package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/tally"
)

type fakeFetcher struct {
	mu       sync.Mutex
	byURL    map[string][]model.SessionStats
	failURLs map[string]bool
	calls    []string
}

func (f *fakeFetcher) FetchSessions(_ context.Context, url string) ([]model.SessionStats, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.failURLs[url] {
		return nil, errors.New("connection refused")
	}
	// Return copies so tagging never leaks between runs.
	src := f.byURL[url]
	out := make([]model.SessionStats, len(src))
	copy(out, src)
	return out, nil
}

func disabled() *bool {
	v := false
	return &v
}

func TestAggregate_FleetRollup(t *testing.T) {
	now := time.Now()
	today := now.Add(-time.Minute).UnixMilli()
	yesterday := TodayStart(now).Add(-time.Hour).UnixMilli()

	root := t.TempDir()
	// Local session started long ago, not counted as today.
	writeStore(t, root, "ses_local", exchange(1000, 3000, "build", "stop", 10, 20, 0.01)...)

	fetcher := &fakeFetcher{
		byURL: map[string][]model.SessionStats{
			"http://desk": {
				{
					ID: "ses_r1", Timestamp: today, Status: model.StatusActive,
					CostVal: 0.5, TotalTokens: 100,
					AgentStats: tally.Set{"build": {Calls: 2, Success: 1, Failed: 1, Tokens: 100, Cost: 0.5}},
					ModelStats: tally.Set{"gpt-4o": {Calls: 2, Success: 1, Failed: 1}},
				},
				{
					ID: "ses_r2", Timestamp: yesterday, Status: model.StatusCompleted,
					CostVal: 2, TotalTokens: 999,
				},
			},
		},
		failURLs: map[string]bool{"http://offline": true},
	}

	opts := Options{
		Devices: []config.Device{
			{ID: "laptop", Name: "Laptop", URL: config.LocalURL},
			{ID: "desk", URL: "http://desk"},
			{ID: "off", Name: "Offline", URL: "http://offline"},
			{ID: "skip", URL: "http://skipped", Enabled: disabled()},
		},
		DataDir:       root,
		SessionPrefix: "ses_",
		Fetcher:       fetcher,
		Now:           now,
	}

	rep, err := Aggregate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(rep.Sessions) != 3 {
		t.Fatalf("Sessions = %d, want 3", len(rep.Sessions))
	}
	wantOrder := []string{"ses_r1", "ses_r2", "ses_local"}
	for i, id := range wantOrder {
		if rep.Sessions[i].ID != id {
			t.Errorf("Sessions[%d] = %s, want %s", i, rep.Sessions[i].ID, id)
		}
	}
	if rep.Sessions[0].DeviceID != "desk" || rep.Sessions[0].DeviceName != "desk" {
		t.Errorf("remote tag = %s/%s", rep.Sessions[0].DeviceID, rep.Sessions[0].DeviceName)
	}
	if rep.Sessions[2].DeviceID != "laptop" || rep.Sessions[2].DeviceName != "Laptop" {
		t.Errorf("local tag = %s/%s", rep.Sessions[2].DeviceID, rep.Sessions[2].DeviceName)
	}

	m := rep.Metrics
	if m.ActiveCount != 1 {
		t.Errorf("ActiveCount = %d, want 1", m.ActiveCount)
	}
	if m.TodayCostVal != 0.5 || m.TodayTokens != 100 || m.TodayCost != "$0.50" {
		t.Errorf("today = %v/%d/%s", m.TodayCostVal, m.TodayTokens, m.TodayCost)
	}

	build := m.AgentStats["build"]
	if build == nil || build.Calls != 3 || build.Success != 2 || build.Failed != 1 {
		t.Errorf("AgentStats[build] = %+v", build)
	}
	if m.ModelStats["gpt-4o"] == nil || m.ModelStats["claude-sonnet-4"] == nil {
		t.Errorf("ModelStats keys = %v", m.ModelStats.Keys())
	}

	if len(m.Devices) != 3 {
		t.Fatalf("Devices = %+v, want 3 rollups", m.Devices)
	}
	byID := map[string]model.DeviceRollup{}
	for _, d := range m.Devices {
		byID[d.ID] = d
	}
	if d := byID["off"]; d.Reachable || d.Sessions != 0 {
		t.Errorf("offline rollup = %+v", d)
	}
	if d := byID["desk"]; !d.Reachable || d.Sessions != 2 || d.Active != 1 || d.Tokens != 1099 {
		t.Errorf("desk rollup = %+v", d)
	}
	if d := byID["laptop"]; !d.Local || d.Sessions != 1 || math.Abs(d.CostVal-0.01) > 1e-9 {
		t.Errorf("laptop rollup = %+v", d)
	}

	for _, url := range fetcher.calls {
		if url == "http://skipped" {
			t.Error("disabled device was fetched")
		}
	}
}

func TestAggregate_RemoteTalliesMergedOnce(t *testing.T) {
	fetcher := &fakeFetcher{byURL: map[string][]model.SessionStats{
		"http://a": {{ID: "s", AgentStats: tally.Set{"build": {Calls: 2, Other: 2, Cost: 1.5}}}},
	}}
	opts := Options{
		Devices: []config.Device{{ID: "a", URL: "http://a"}},
		Fetcher: fetcher,
	}

	rep, err := Aggregate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	got := rep.Metrics.AgentStats["build"]
	if got.Calls != 2 || got.Cost != 1.5 {
		t.Errorf("merged = %+v, want calls 2 cost 1.5", got)
	}
	// The session's own tally is untouched by the fleet merge.
	if rep.Sessions[0].AgentStats["build"].Calls != 2 {
		t.Error("fleet merge mutated a session tally")
	}
}

func TestAggregate_NoDevices(t *testing.T) {
	rep, err := Aggregate(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rep.Sessions) != 0 || rep.Sessions == nil {
		t.Errorf("Sessions = %#v, want empty non-nil", rep.Sessions)
	}
	if rep.Metrics.TodayCost != "$0.00" {
		t.Errorf("TodayCost = %q", rep.Metrics.TodayCost)
	}
}

func TestAggregate_LocalListingFailure(t *testing.T) {
	// A regular file where the store directory should be cannot be listed.
	path := filepath.Join(t.TempDir(), "store")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts := Options{
		Devices:       []config.Device{{ID: "local", URL: config.LocalURL}},
		DataDir:       path,
		SessionPrefix: "ses_",
	}
	if _, err := Aggregate(context.Background(), opts); err == nil {
		t.Error("expected local listing error")
	}
}

func TestAggregate_MissingStoreIsEmpty(t *testing.T) {
	opts := Options{
		Devices:       []config.Device{{ID: "local", URL: config.LocalURL}},
		DataDir:       filepath.Join(t.TempDir(), "absent"),
		SessionPrefix: "ses_",
	}
	rep, err := Aggregate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(rep.Sessions) != 0 || len(rep.Metrics.Devices) != 1 || !rep.Metrics.Devices[0].Reachable {
		t.Errorf("report = %+v", rep.Metrics.Devices)
	}
}

func TestLoadLocalReport(t *testing.T) {
	root := t.TempDir()
	writeStore(t, root, "ses_x", exchange(1000, 3000, "build", "stop", 10, 20, 0.01)...)

	local := config.Device{ID: "me", Name: "Me", URL: config.LocalURL}
	rep, err := LoadLocalReport(context.Background(), Options{DataDir: root, SessionPrefix: "ses_"}, local)
	if err != nil {
		t.Fatalf("LoadLocalReport: %v", err)
	}
	if len(rep.Sessions) != 1 || rep.Sessions[0].DeviceID != "me" {
		t.Fatalf("sessions = %+v", rep.Sessions)
	}
	if rep.Metrics.AgentStats["build"].Success != 1 {
		t.Errorf("AgentStats = %+v", rep.Metrics.AgentStats)
	}
}

func TestSortByStart_Stable(t *testing.T) {
	sessions := []model.SessionStats{
		{ID: "a", Timestamp: 10},
		{ID: "b", Timestamp: 30},
		{ID: "c", Timestamp: 10},
		{ID: "d", Timestamp: 20},
	}
	SortByStart(sessions)
	want := []string{"b", "d", "a", "c"}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(sessions), want)
		}
	}
}

func ids(sessions []model.SessionStats) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func TestFindSession(t *testing.T) {
	sessions := []model.SessionStats{{ID: "ses_abc"}, {ID: "ses_abd"}, {ID: "ses_xyz"}}

	if s, ok := FindSession(sessions, "ses_xyz"); !ok || s.ID != "ses_xyz" {
		t.Errorf("exact match = %v %v", s.ID, ok)
	}
	if s, ok := FindSession(sessions, "ses_x"); !ok || s.ID != "ses_xyz" {
		t.Errorf("unique prefix = %v %v", s.ID, ok)
	}
	if _, ok := FindSession(sessions, "ses_ab"); ok {
		t.Error("ambiguous prefix should not match")
	}
	if _, ok := FindSession(sessions, "nope"); ok {
		t.Error("missing id should not match")
	}
}

func TestFilters(t *testing.T) {
	sessions := []model.SessionStats{
		{ID: "1", DeviceID: "a", Status: model.StatusActive, ProjectPath: "/home/me/Ocburn"},
		{ID: "2", DeviceID: "b", Status: model.StatusCompleted, ProjectPath: "/srv/api"},
	}
	if got := FilterByDevice(sessions, "b"); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("FilterByDevice = %v", ids(got))
	}
	if got := FilterActive(sessions); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("FilterActive = %v", ids(got))
	}
	if got := FilterByProject(sessions, "ocburn"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("FilterByProject = %v", ids(got))
	}
}

func TestAggregateTodayHourly(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local)
	sessions := []model.SessionStats{
		{Timestamp: time.Date(2026, 3, 10, 9, 5, 0, 0, time.Local).UnixMilli(), TotalTokens: 10, CostVal: 1},
		{Timestamp: time.Date(2026, 3, 10, 9, 55, 0, 0, time.Local).UnixMilli(), TotalTokens: 5},
		{Timestamp: time.Date(2026, 3, 9, 23, 0, 0, 0, time.Local).UnixMilli(), TotalTokens: 100},
	}
	hours := AggregateTodayHourly(sessions, now)
	if len(hours) != 24 {
		t.Fatalf("len = %d", len(hours))
	}
	if hours[9].Sessions != 2 || hours[9].Tokens != 15 || hours[9].Cost != 1 {
		t.Errorf("hour 9 = %+v", hours[9])
	}
	if hours[23].Sessions != 0 {
		t.Errorf("yesterday leaked into hour 23: %+v", hours[23])
	}
}

func TestAggregateModelCosts(t *testing.T) {
	sessions := []model.SessionStats{
		{ModelsUsed: []model.ModelUsage{
			{Name: "claude-opus-4-5-20251101", Tokens: 100, CostVal: 3},
			{Name: "gpt-4o", Tokens: 50, CostVal: 1},
		}},
		{ModelsUsed: []model.ModelUsage{
			{Name: "claude-opus-4-5", Tokens: 10, Cost: "$1.00"},
		}},
	}
	rows := AggregateModelCosts(sessions)
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Model != "claude-opus-4-5" || rows[0].Sessions != 2 || rows[0].CostVal != 4 || rows[0].Tokens != 110 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if math.Abs(rows[0].Share-0.8) > 1e-9 {
		t.Errorf("Share = %v, want 0.8", rows[0].Share)
	}
}
