// Package monitor recomputes reports on an interval and reports what changed
// between them: usage deltas, sessions that finished, and new errors.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/theirongolddev/ocburn/internal/model"
)

// Event types.
const (
	EventSnapshot  = "snapshot"
	EventDelta     = "usage_delta"
	EventCompleted = "session_completed"
	EventError     = "session_error"
)

// Source computes a fresh report.
type Source func(ctx context.Context) (*model.Report, error)

// Config controls the watch loop.
type Config struct {
	Interval     time.Duration
	EventsBuffer int
	Notifier     Notifier // optional
}

// Snapshot is a compact fleet state for event payloads.
type Snapshot struct {
	At           time.Time `json:"at"`
	Sessions     int       `json:"sessions"`
	Active       int       `json:"active"`
	Tokens       int64     `json:"tokens"`
	CostUSD      float64   `json:"cost_usd"`
	TodayCostUSD float64   `json:"today_cost_usd"`
	TodayTokens  int64     `json:"today_tokens"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Sessions int     `json:"sessions"`
	Active   int     `json:"active"`
	Tokens   int64   `json:"tokens"`
	CostUSD  float64 `json:"cost_usd"`
}

func (d Delta) isZero() bool {
	return d.Sessions == 0 &&
		d.Active == 0 &&
		d.Tokens == 0 &&
		d.CostUSD == 0
}

// Event is emitted whenever the fleet state changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	SessionID string    `json:"session_id,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	Title     string    `json:"title,omitempty"`
}

type sessionState struct {
	active   bool
	hasError bool
}

// Monitor diffs successive reports. It keeps only the previous poll's
// per-session status flags, never the statistics themselves.
type Monitor struct {
	cfg    Config
	source Source

	mu          sync.RWMutex
	hasSnapshot bool
	snapshot    Snapshot
	sessions    map[string]sessionState
	nextEventID int64
	events      []Event
	lastError   string
	pollCount   int64
}

// New returns a monitor reading reports from source.
func New(cfg Config, source Source) *Monitor {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	return &Monitor{
		cfg:      cfg,
		source:   source,
		sessions: make(map[string]sessionState),
	}
}

// Run polls until ctx is canceled, calling emit for every event.
func (m *Monitor) Run(ctx context.Context, emit func(Event)) error {
	m.pollAndEmit(ctx, emit)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.pollAndEmit(ctx, emit)
		}
	}
}

func (m *Monitor) pollAndEmit(ctx context.Context, emit func(Event)) {
	events, err := m.Poll(ctx)
	if err != nil {
		slog.Warn("watch poll failed", "error", err)
		return
	}
	for _, ev := range events {
		if emit != nil {
			emit(ev)
		}
		m.notify(ev)
	}
}

// Poll computes one report and returns the events it produced. The first
// successful poll yields a single snapshot event.
func (m *Monitor) Poll(ctx context.Context) ([]Event, error) {
	rep, err := m.source(ctx)
	if err != nil {
		m.mu.Lock()
		m.lastError = err.Error()
		m.pollCount++
		m.mu.Unlock()
		return nil, fmt.Errorf("computing report: %w", err)
	}

	now := rep.Metrics.GeneratedAt
	if now.IsZero() {
		now = time.Now()
	}
	snap := snapshotFromReport(rep, now)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pollCount++
	m.lastError = ""

	var events []Event
	add := func(ev Event) {
		m.nextEventID++
		ev.ID = m.nextEventID
		ev.Timestamp = now
		ev.Snapshot = snap
		events = append(events, ev)
	}

	current := make(map[string]sessionState, len(rep.Sessions))
	for _, s := range rep.Sessions {
		key := s.DeviceID + "/" + s.ID
		st := sessionState{active: s.IsActive(), hasError: s.HasError}
		current[key] = st

		if !m.hasSnapshot {
			continue
		}
		prev, seen := m.sessions[key]
		if seen && prev.active && !st.active {
			add(Event{Type: EventCompleted, SessionID: s.ID, DeviceID: s.DeviceID, Title: s.Name})
		}
		if st.hasError && (!seen || !prev.hasError) {
			add(Event{Type: EventError, SessionID: s.ID, DeviceID: s.DeviceID, Title: s.Name})
		}
	}

	if !m.hasSnapshot {
		add(Event{Type: EventSnapshot})
	} else if d := diffSnapshots(m.snapshot, snap); !d.isZero() {
		add(Event{Type: EventDelta, Delta: d})
	}

	m.hasSnapshot = true
	m.snapshot = snap
	m.sessions = current

	m.events = append(m.events, events...)
	if len(m.events) > m.cfg.EventsBuffer {
		m.events = m.events[len(m.events)-m.cfg.EventsBuffer:]
	}

	return events, nil
}

// Events returns a copy of the buffered events, oldest first.
func (m *Monitor) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// LastError returns the most recent poll error, or "" after a success.
func (m *Monitor) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

func (m *Monitor) notify(ev Event) {
	if m.cfg.Notifier == nil {
		return
	}
	title, msg, ok := notification(ev)
	if !ok {
		return
	}
	if err := m.cfg.Notifier.Notify(title, msg); err != nil {
		slog.Debug("desktop notification failed", "error", err)
	}
}

func notification(ev Event) (title, msg string, ok bool) {
	name := ev.Title
	if name == "" {
		name = ev.SessionID
	}
	switch ev.Type {
	case EventCompleted:
		return "Session completed", fmt.Sprintf("%s (%s)", name, ev.DeviceID), true
	case EventError:
		return "Session error", fmt.Sprintf("%s (%s) ended with an error", name, ev.DeviceID), true
	}
	return "", "", false
}

func snapshotFromReport(rep *model.Report, at time.Time) Snapshot {
	snap := Snapshot{
		At:           at,
		Sessions:     len(rep.Sessions),
		Active:       rep.Metrics.ActiveCount,
		TodayCostUSD: rep.Metrics.TodayCostVal,
		TodayTokens:  rep.Metrics.TodayTokens,
	}
	for _, s := range rep.Sessions {
		snap.Tokens += s.TotalTokens
		snap.CostUSD += s.CostVal
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Sessions: curr.Sessions - prev.Sessions,
		Active:   curr.Active - prev.Active,
		Tokens:   curr.Tokens - prev.Tokens,
		CostUSD:  curr.CostUSD - prev.CostUSD,
	}
}
