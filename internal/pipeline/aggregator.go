// Package pipeline loads local sessions, fetches remote devices, and
// aggregates everything into a report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/tally"
)

// Fetcher retrieves the sessions a remote device computed from its own store.
type Fetcher interface {
	FetchSessions(ctx context.Context, baseURL string) ([]model.SessionStats, error)
}

// Options configures one aggregation run.
type Options struct {
	Devices         []config.Device
	DataDir         string
	SessionPrefix   string
	MaxFetchWorkers int
	Fetcher         Fetcher
	Now             time.Time
	Progress        ProgressFunc
}

// OptionsFromConfig builds aggregation options from the loaded config.
func OptionsFromConfig(cfg config.Config, f Fetcher) Options {
	return Options{
		Devices:         cfg.Devices,
		DataDir:         cfg.StoreDir(),
		SessionPrefix:   cfg.General.SessionPrefix,
		MaxFetchWorkers: cfg.General.MaxFetchWorkers,
		Fetcher:         f,
	}
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

type deviceSlot struct {
	sessions  []model.SessionStats
	reachable bool
}

// Aggregate computes a fresh report across every enabled device. The first
// enabled local device scans this machine's store; every other device is
// fetched in parallel with a bounded fan-out. A remote failure only marks that
// device unreachable. A local listing failure aborts the run.
func Aggregate(ctx context.Context, opts Options) (*model.Report, error) {
	now := opts.now()

	var devices []config.Device
	localSeen := false
	for _, d := range opts.Devices {
		if !d.IsEnabled() {
			continue
		}
		if d.IsLocal() {
			if localSeen {
				slog.Debug("ignoring extra local device", "device", d.ID)
				continue
			}
			localSeen = true
		} else if opts.Fetcher == nil {
			slog.Debug("no fetcher, skipping remote device", "device", d.ID)
			continue
		}
		devices = append(devices, d)
	}

	slots := make([]deviceSlot, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.MaxFetchWorkers
	if limit <= 0 {
		limit = config.DefaultMaxFetchWorkers
	}
	g.SetLimit(limit)

	for i, d := range devices {
		if d.IsLocal() {
			g.Go(func() error {
				res, err := LoadLocal(gctx, opts.DataDir, opts.SessionPrefix, now, opts.Progress)
				if err != nil {
					return fmt.Errorf("loading local sessions: %w", err)
				}
				slots[i] = deviceSlot{sessions: res.Sessions, reachable: true}
				return nil
			})
			continue
		}
		g.Go(func() error {
			sessions, err := opts.Fetcher.FetchSessions(gctx, d.URL)
			if err != nil {
				slog.Warn("device unreachable", "device", d.ID, "url", d.URL, "error", err)
				return nil
			}
			slots[i] = deviceSlot{sessions: sessions, reachable: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sessions []model.SessionStats
	rollups := make([]model.DeviceRollup, 0, len(devices))
	for i, d := range devices {
		tagDevice(slots[i].sessions, d)
		sessions = append(sessions, slots[i].sessions...)
		rollups = append(rollups, rollup(d, slots[i]))
	}

	return BuildReport(sessions, rollups, now), nil
}

// LoadLocalReport computes a report over this machine's store only, tagging
// sessions with the given local device. It is what remote peers fetch.
func LoadLocalReport(ctx context.Context, opts Options, local config.Device) (*model.Report, error) {
	now := opts.now()
	res, err := LoadLocal(ctx, opts.DataDir, opts.SessionPrefix, now, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("loading local sessions: %w", err)
	}
	tagDevice(res.Sessions, local)
	slot := deviceSlot{sessions: res.Sessions, reachable: true}
	return BuildReport(res.Sessions, []model.DeviceRollup{rollup(local, slot)}, now), nil
}

// BuildReport sorts sessions newest first and computes fleet metrics.
func BuildReport(sessions []model.SessionStats, devices []model.DeviceRollup, now time.Time) *model.Report {
	SortByStart(sessions)
	if sessions == nil {
		sessions = []model.SessionStats{}
	}
	m := Summarize(sessions, now)
	m.Devices = devices
	return &model.Report{Sessions: sessions, Metrics: m}
}

// Summarize computes today's spend, the active count, and the merged outcome
// tallies. Each session's tallies are merged exactly once.
func Summarize(sessions []model.SessionStats, now time.Time) model.Metrics {
	todayStart := TodayStart(now).UnixMilli()
	m := model.Metrics{
		AgentStats:  tally.Set{},
		ModelStats:  tally.Set{},
		GeneratedAt: now,
	}
	for _, s := range sessions {
		tally.Merge(m.AgentStats, s.AgentStats)
		tally.Merge(m.ModelStats, s.ModelStats)
		if s.IsActive() {
			m.ActiveCount++
		}
		if s.Timestamp > todayStart {
			m.TodayCostVal += s.CostVal
			m.TodayTokens += s.TotalTokens
		}
	}
	m.TodayCost = fmt.Sprintf("$%.2f", m.TodayCostVal)
	return m
}

// TodayStart returns local midnight of the day containing now.
func TodayStart(now time.Time) time.Time {
	local := now.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// SortByStart orders sessions newest first by start timestamp. Equal
// timestamps keep their relative order.
func SortByStart(sessions []model.SessionStats) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp > sessions[j].Timestamp
	})
}

func tagDevice(sessions []model.SessionStats, d config.Device) {
	for i := range sessions {
		sessions[i].DeviceID = d.ID
		sessions[i].DeviceName = d.DisplayName()
	}
}

func rollup(d config.Device, slot deviceSlot) model.DeviceRollup {
	r := model.DeviceRollup{
		ID:        d.ID,
		Name:      d.DisplayName(),
		Local:     d.IsLocal(),
		Reachable: slot.reachable,
		Sessions:  len(slot.sessions),
	}
	for _, s := range slot.sessions {
		r.Tokens += s.TotalTokens
		r.CostVal += s.CostVal
		if s.IsActive() {
			r.Active++
		}
	}
	return r
}

// FilterByDevice returns sessions from the given device id.
func FilterByDevice(sessions []model.SessionStats, deviceID string) []model.SessionStats {
	var out []model.SessionStats
	for _, s := range sessions {
		if s.DeviceID == deviceID {
			out = append(out, s)
		}
	}
	return out
}

// FilterActive returns sessions that are still in progress.
func FilterActive(sessions []model.SessionStats) []model.SessionStats {
	var out []model.SessionStats
	for _, s := range sessions {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// FilterByProject returns sessions whose project path contains the substring.
func FilterByProject(sessions []model.SessionStats, project string) []model.SessionStats {
	var out []model.SessionStats
	for _, s := range sessions {
		if containsIgnoreCase(s.ProjectPath, project) {
			out = append(out, s)
		}
	}
	return out
}

// FindSession returns the session with the given id, or a unique id prefix.
func FindSession(sessions []model.SessionStats, id string) (model.SessionStats, bool) {
	var match *model.SessionStats
	for i := range sessions {
		s := &sessions[i]
		if s.ID == id {
			return *s, true
		}
		if strings.HasPrefix(s.ID, id) {
			if match != nil {
				return model.SessionStats{}, false
			}
			match = s
		}
	}
	if match == nil {
		return model.SessionStats{}, false
	}
	return *match, true
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// AggregateTodayHourly computes 24 hourly token buckets for sessions that
// started today (local time).
func AggregateTodayHourly(sessions []model.SessionStats, now time.Time) []model.HourlyStats {
	todayStart := TodayStart(now)
	todayEnd := todayStart.Add(24 * time.Hour)

	hours := make([]model.HourlyStats, 24)
	for i := range hours {
		hours[i].Hour = i
	}

	for _, s := range sessions {
		if s.Timestamp <= 0 {
			continue
		}
		local := time.UnixMilli(s.Timestamp).Local()
		if local.Before(todayStart) || !local.Before(todayEnd) {
			continue
		}
		h := local.Hour()
		hours[h].Sessions++
		hours[h].Tokens += s.TotalTokens
		hours[h].Cost += s.CostVal
	}
	return hours
}
