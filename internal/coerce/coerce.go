// Package coerce converts untrusted scalars into numbers without failing.
//
// Session data arrives from local files written by another program and from
// remote devices running unknown versions, so a counter may be a JSON number,
// a numeric string, a boolean, or garbage. Every conversion here falls back to
// zero instead of returning an error.
package coerce

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToInt converts v to an int64, truncating toward zero.
// Booleans map to 0/1, numeric strings are parsed as floats first so "3.7"
// yields 3, and anything unparsable yields 0.
func ToInt(v any) int64 {
	return int64(truncate(ToFloat(v)))
}

// ToFloat converts v to a float64. Unparsable values yield 0.
func ToFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	}
	return 0
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

// finite maps NaN and ±Inf to zero so they never poison a sum.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func truncate(f float64) float64 {
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return math.Trunc(f)
}

// decodeScalar unmarshals a raw JSON value into an untyped Go value.
// Objects and arrays decode fine but coerce to zero downstream.
func decodeScalar(raw []byte) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}
