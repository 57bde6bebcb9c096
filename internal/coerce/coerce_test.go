package coerce

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"true", true, 1},
		{"false", false, 0},
		{"int", 42, 42},
		{"float truncates", 3.9, 3},
		{"negative float truncates toward zero", -3.9, -3},
		{"numeric string", "17", 17},
		{"float string", "3.7", 3},
		{"padded string", "  8 ", 8},
		{"bad string", "bad", 0},
		{"empty string", "", 0},
		{"json number", json.Number("12.5"), 12},
		{"map", map[string]any{"a": 1}, 0},
		{"slice", []any{1, 2}, 0},
		{"nan", math.NaN(), 0},
		{"inf string", "Inf", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToInt(tt.in); got != tt.want {
				t.Errorf("ToInt(%#v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"true", true, 1.0},
		{"false", false, 0},
		{"int64", int64(5), 5},
		{"float", 1.25, 1.25},
		{"string", "0.5", 0.5},
		{"bad", "n/a", 0},
		{"struct", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToFloat(tt.in); got != tt.want {
				t.Errorf("ToFloat(%#v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLenientJSONTypes(t *testing.T) {
	var doc struct {
		Calls Int    `json:"calls"`
		Cost  Float  `json:"cost"`
		Name  String `json:"name"`
		Err   Bool   `json:"error"`
		Miss  Int    `json:"missing"`
	}
	raw := `{"calls":"4","cost":true,"name":12,"error":{"name":"APIError"}}`
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Calls != 4 {
		t.Errorf("Calls = %d, want 4", doc.Calls)
	}
	if doc.Cost != 1 {
		t.Errorf("Cost = %v, want 1", doc.Cost)
	}
	if doc.Name != "12" {
		t.Errorf("Name = %q, want \"12\"", doc.Name)
	}
	if !doc.Err {
		t.Error("Err = false, want true for non-empty error object")
	}
	if doc.Miss != 0 {
		t.Errorf("Miss = %d, want 0", doc.Miss)
	}
}

func TestLenientJSONTypes_Garbage(t *testing.T) {
	var doc struct {
		Calls Int   `json:"calls"`
		Cost  Float `json:"cost"`
	}
	raw := `{"calls":[1,2,3],"cost":{"usd":1}}`
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal should never fail on mistyped scalars: %v", err)
	}
	if doc.Calls != 0 || doc.Cost != 0 {
		t.Errorf("got calls=%d cost=%v, want zeros", doc.Calls, doc.Cost)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{``, false},
		{`null`, false},
		{`false`, false},
		{`0`, false},
		{`""`, false},
		{`{}`, false},
		{`[]`, false},
		{`true`, true},
		{`1`, true},
		{`"boom"`, true},
		{`{"name":"MessageAbortedError"}`, true},
	}

	for _, tt := range tests {
		if got := Truthy(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("Truthy(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

// FuzzIntUnmarshal checks the lenient decoder never errors or panics on
// arbitrary bytes, since remote devices are untrusted.
func FuzzIntUnmarshal(f *testing.F) {
	f.Add([]byte(`12`))
	f.Add([]byte(`"3.7"`))
	f.Add([]byte(`true`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"a":1}`))
	f.Add([]byte(`1e400`))
	f.Add([]byte(`"`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, data []byte) {
		var i Int
		if err := i.UnmarshalJSON(data); err != nil {
			t.Errorf("UnmarshalJSON(%q) returned error %v", data, err)
		}
		var fl Float
		if err := fl.UnmarshalJSON(data); err != nil {
			t.Errorf("Float.UnmarshalJSON(%q) returned error %v", data, err)
		}
		if math.IsNaN(float64(fl)) || math.IsInf(float64(fl), 0) {
			t.Errorf("Float.UnmarshalJSON(%q) = %v, want finite", data, fl)
		}
	})
}
