package tally

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		hasError bool
		finish   string
		want     Outcome
	}{
		{"error beats stop", true, "stop", Failed},
		{"error without finish", true, "", Failed},
		{"stop", false, "stop", Success},
		{"tool calls", false, "tool-calls", ToolCalls},
		{"length", false, "length", Length},
		{"unknown finish", false, "content-filter", Other},
		{"missing finish", false, "", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.hasError, tt.finish); got != tt.want {
				t.Errorf("Classify(%v, %q) = %s, want %s", tt.hasError, tt.finish, got, tt.want)
			}
		})
	}
}

func TestSetRecord_Invariant(t *testing.T) {
	s := Set{}
	outcomes := []Outcome{Success, Failed, ToolCalls, Length, Other, Success, ToolCalls}
	for _, o := range outcomes {
		s.Record("build", o, 10, 0.5)
	}

	got := s["build"]
	if got.Calls != int64(len(outcomes)) {
		t.Fatalf("Calls = %d, want %d", got.Calls, len(outcomes))
	}
	if got.Bucketed() != got.Calls {
		t.Errorf("buckets sum to %d, calls = %d", got.Bucketed(), got.Calls)
	}
	if got.Success != 2 || got.ToolCalls != 2 {
		t.Errorf("Success=%d ToolCalls=%d, want 2 and 2", got.Success, got.ToolCalls)
	}
	if got.Tokens != 70 {
		t.Errorf("Tokens = %d, want 70", got.Tokens)
	}
	if math.Abs(got.Cost-3.5) > 1e-9 {
		t.Errorf("Cost = %v, want 3.5", got.Cost)
	}
}

func TestGet_InsertsZero(t *testing.T) {
	s := Set{}
	tl := s.Get("plan")
	if tl == nil || *tl != (Tally{}) {
		t.Fatalf("Get on new key = %+v, want zero tally", tl)
	}
	if s.Get("plan") != tl {
		t.Error("Get returned a different tally for the same key")
	}
}

func TestMerge_Twice(t *testing.T) {
	delta := Set{"claude-sonnet": {Calls: 2, Cost: 1.5}}
	dst := Set{}

	Merge(dst, delta)
	Merge(dst, delta)

	got := dst["claude-sonnet"]
	if got.Calls != 4 {
		t.Errorf("Calls = %d, want 4", got.Calls)
	}
	if got.Cost != 3.0 {
		t.Errorf("Cost = %v, want 3.0", got.Cost)
	}
	if delta["claude-sonnet"].Calls != 2 {
		t.Error("Merge mutated the source set")
	}
}

func TestMerge_Commutative(t *testing.T) {
	a := Set{
		"build": {Calls: 3, Success: 2, Failed: 1, Tokens: 300, Cost: 0.25},
		"plan":  {Calls: 1, Other: 1, Tokens: 5},
	}
	b := Set{
		"build":   {Calls: 2, ToolCalls: 1, Length: 1, Tokens: 40, Cost: 0.5},
		"general": {Calls: 1, Success: 1},
	}

	ab := Set{}
	Merge(ab, a)
	Merge(ab, b)

	ba := Set{}
	Merge(ba, b)
	Merge(ba, a)

	if len(ab) != len(ba) {
		t.Fatalf("key counts differ: %d vs %d", len(ab), len(ba))
	}
	for k, v := range ab {
		if *ba[k] != *v {
			t.Errorf("key %q: %+v vs %+v", k, *v, *ba[k])
		}
	}
	if ab["build"].Calls != 5 || ab["build"].Bucketed() != 5 {
		t.Errorf("build = %+v, want 5 calls across buckets", *ab["build"])
	}
}

func TestKeys_Order(t *testing.T) {
	s := Set{
		"b": {Calls: 1},
		"a": {Calls: 1},
		"c": {Calls: 9},
	}
	got := s.Keys()
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestTotal(t *testing.T) {
	s := Set{
		"x": {Calls: 2, Success: 2, Tokens: 10},
		"y": {Calls: 1, Failed: 1, Cost: 0.1},
	}
	total := s.Total()
	if total.Calls != 3 || total.Success != 2 || total.Failed != 1 || total.Tokens != 10 {
		t.Errorf("Total() = %+v", total)
	}
	if got := total.SuccessRate(); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("SuccessRate = %v", got)
	}
}
