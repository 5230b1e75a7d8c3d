package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a metric or delta that may be unavailable.
// The zero Value is unavailable.
type Value struct {
	Value float64
	Valid bool
}

// Available wraps a known number.
func Available(v float64) Value {
	return Value{Value: v, Valid: true}
}

// Unavailable is the value for metrics an engine did not compute.
func Unavailable() Value {
	return Value{}
}

// ParseValue converts an engine metric string into a Value.
// An empty string or the engine sentinel become Unavailable.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unavailable(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unavailable(), fmt.Errorf("invalid metric value %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Unavailable(), fmt.Errorf("invalid metric value %q: not a finite number", s)
	}
	if f == EngineSentinel {
		return Unavailable(), nil
	}
	return Available(f), nil
}

// Format renders the value with the given precision, or "na".
func (v Value) Format(precision int) string {
	if !v.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(v.Value, 'f', precision, 64)
}

// String renders the value in its shortest form, or "na".
func (v Value) String() string {
	if !v.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}

// Ptr returns nil for unavailable values, for nullable columns.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Value
	return &f
}

// MarshalJSON encodes a number, or "na" when unavailable.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(v.Value)
}

// UnmarshalJSON accepts a number, "na" or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Unavailable()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == NotApplicable {
			*v = Unavailable()
			return nil
		}
		parsed, err := ParseValue(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Available(f)
	return nil
}
