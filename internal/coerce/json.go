package coerce

import (
	"encoding/json"
	"strconv"
)

// Int is an int64 that decodes from any JSON scalar via ToInt.
type Int int64

// UnmarshalJSON never fails; unusable input decodes as zero.
func (i *Int) UnmarshalJSON(raw []byte) error {
	*i = Int(ToInt(decodeScalar(raw)))
	return nil
}

// Float is a float64 that decodes from any JSON scalar via ToFloat.
type Float float64

// UnmarshalJSON never fails; unusable input decodes as zero.
func (f *Float) UnmarshalJSON(raw []byte) error {
	*f = Float(ToFloat(decodeScalar(raw)))
	return nil
}

// String decodes from any JSON scalar. Strings are taken as is, numbers and
// booleans keep their literal text, null and containers become "".
type String string

// UnmarshalJSON never fails.
func (s *String) UnmarshalJSON(raw []byte) error {
	switch v := decodeScalar(raw).(type) {
	case string:
		*s = String(v)
	case json.Number:
		*s = String(v.String())
	case bool:
		*s = String(strconv.FormatBool(v))
	default:
		*s = ""
	}
	return nil
}

// Bool decodes truthiness from any JSON value: false, 0, "", null, {} and []
// are false, everything else is true.
type Bool bool

// UnmarshalJSON never fails.
func (b *Bool) UnmarshalJSON(raw []byte) error {
	*b = Bool(Truthy(raw))
	return nil
}

// Truthy reports whether a raw JSON value is non-empty in the loose sense used
// by the session files: an error object, a non-empty string, true, or a
// non-zero number all count.
func Truthy(raw json.RawMessage) bool {
	switch v := decodeScalar(raw).(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		return ToFloat(v) != 0
	case string:
		return v != ""
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return false
}
