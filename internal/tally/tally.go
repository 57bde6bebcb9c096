// Package tally counts assistant call outcomes per agent or per model.
package tally

import (
	"sort"

	"github.com/samber/lo"
)

// Outcome is the bucket a single assistant message falls into.
type Outcome int

const (
	Other Outcome = iota
	Success
	Failed
	ToolCalls
	Length
)

// Finish reasons reported by assistant messages.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool-calls"
	FinishLength    = "length"
)

// Classify maps an assistant message to its outcome. An error wins over any
// finish reason.
func Classify(hasError bool, finish string) Outcome {
	if hasError {
		return Failed
	}
	switch finish {
	case FinishStop:
		return Success
	case FinishToolCalls:
		return ToolCalls
	case FinishLength:
		return Length
	}
	return Other
}

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case ToolCalls:
		return "tool_calls"
	case Length:
		return "length"
	}
	return "other"
}

// Tally holds outcome counts and cumulative usage for one key.
// Calls always equals Success+Failed+ToolCalls+Length+Other when built
// through Record.
type Tally struct {
	Calls     int64   `json:"calls"`
	Success   int64   `json:"success"`
	Failed    int64   `json:"failed"`
	ToolCalls int64   `json:"tool_calls"`
	Length    int64   `json:"length"`
	Other     int64   `json:"other"`
	Tokens    int64   `json:"tokens"`
	Cost      float64 `json:"cost"`
}

// Record counts one call with the given outcome.
func (t *Tally) Record(o Outcome, tokens int64, cost float64) {
	t.Calls++
	switch o {
	case Success:
		t.Success++
	case Failed:
		t.Failed++
	case ToolCalls:
		t.ToolCalls++
	case Length:
		t.Length++
	default:
		t.Other++
	}
	t.Tokens += tokens
	t.Cost += cost
}

// Add adds every field of other into t.
func (t *Tally) Add(other Tally) {
	t.Calls += other.Calls
	t.Success += other.Success
	t.Failed += other.Failed
	t.ToolCalls += other.ToolCalls
	t.Length += other.Length
	t.Other += other.Other
	t.Tokens += other.Tokens
	t.Cost += other.Cost
}

// Bucketed returns the sum of the five outcome buckets.
func (t Tally) Bucketed() int64 {
	return t.Success + t.Failed + t.ToolCalls + t.Length + t.Other
}

// SuccessRate returns Success/Calls in [0,1], or 0 with no calls.
func (t Tally) SuccessRate() float64 {
	if t.Calls == 0 {
		return 0
	}
	return float64(t.Success) / float64(t.Calls)
}

// Set maps a key (agent name or model id) to its tally.
type Set map[string]*Tally

// Get returns the tally for key, inserting a zero tally on first use.
func (s Set) Get(key string) *Tally {
	t, ok := s[key]
	if !ok {
		t = &Tally{}
		s[key] = t
	}
	return t
}

// Record counts one call under key.
func (s Set) Record(key string, o Outcome, tokens int64, cost float64) {
	s.Get(key).Record(o, tokens, cost)
}

// Keys returns the set's keys in a stable order: most calls first, then by name.
func (s Set) Keys() []string {
	keys := lo.Keys(s)
	sort.Slice(keys, func(i, j int) bool {
		a, b := s[keys[i]], s[keys[j]]
		if a.Calls != b.Calls {
			return a.Calls > b.Calls
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Total sums every tally in the set.
func (s Set) Total() Tally {
	var out Tally
	for _, t := range s {
		if t != nil {
			out.Add(*t)
		}
	}
	return out
}

// Merge adds every tally in src into dst, creating zero tallies for keys dst
// has not seen. Merging is commutative and associative, so the order in which
// sessions or devices are merged never changes the totals.
//
// Merge mutates dst and must not run concurrently with other writers of dst.
func Merge(dst, src Set) {
	for key, t := range src {
		if t == nil {
			dst.Get(key)
			continue
		}
		dst.Get(key).Add(*t)
	}
}
