package relay

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a loosely typed JSON scalar. Decoding never fails; the accessors
// decide how to read it.
type Value struct {
	raw json.RawMessage
}

// Num returns a numeric Value.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{raw: json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))}
}

// Int returns an integral Value.
func Int(n int) Value {
	return Value{raw: json.RawMessage(strconv.Itoa(n))}
}

// Str returns a string Value.
func Str(s string) Value {
	data, _ := json.Marshal(s)
	return Value{raw: data}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{raw: json.RawMessage(strconv.FormatBool(b))}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	v.raw = append(v.raw[:0], b...)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsNull reports whether the value is absent or JSON null.
func (v Value) IsNull() bool {
	t := bytes.TrimSpace(v.raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Float reads a finite number, accepting numeric strings.
func (v Value) Float() (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v.raw, &f); err == nil {
		return f, true
	}
	s, ok := v.Text()
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Integer reads a number that is a whole value within the int32 range.
func (v Value) Integer() (int, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Text reads a JSON string.
func (v Value) Text() (string, bool) {
	if v.IsNull() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Truthy follows loose boolean rules: true, non-zero numbers and non-empty
// strings are true.
func (v Value) Truthy() bool {
	if v.IsNull() {
		return false
	}
	var b bool
	if err := json.Unmarshal(v.raw, &b); err == nil {
		return b
	}
	var f float64
	if err := json.Unmarshal(v.raw, &f); err == nil {
		return f != 0 && !math.IsNaN(f)
	}
	if s, ok := v.Text(); ok {
		return s != ""
	}
	return true // objects and arrays
}

// First returns the first non-null value.
func First(values ...Value) Value {
	for _, v := range values {
		if !v.IsNull() {
			return v
		}
	}
	return Value{}
}
