// Package convert coerces property values for typed accessors and index keys.
//
// Property bags hold values of type any. Callers that want a number back
// should not care whether the value was stored as an int, an int64, a float
// or a decimal string, so the accessors on hypergraph.Properties and the key
// transformations in pkg/schema all go through this package.
//
// Every function reports success with a boolean rather than an error:
//
//	if n, ok := convert.ToInt64(v.Properties().Get("age")); ok {
//		// use n
//	}
package convert

import (
	"math"
	"strconv"
)

// ToFloat64 converts numeric types and decimal strings to float64.
//
// Supported inputs are every built-in integer and float kind plus strings
// accepted by strconv.ParseFloat ("3.14", "1.5e-3", "NaN", "Inf").
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// ToInt64 converts numeric types and integer strings to int64.
// Floats are truncated toward zero. Unsigned values above math.MaxInt64,
// NaN and floats outside the int64 range are rejected.
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case uint:
		if uint64(val) > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float64:
		if math.IsNaN(val) || val >= 1<<63 || val < -(1<<63) {
			return 0, false
		}
		return int64(val), true
	case float32:
		return ToInt64(float64(val))
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return ToInt64(f)
		}
	}
	return 0, false
}

// ToUint64 converts non-negative numeric values and strings to uint64.
func ToUint64(v any) (uint64, bool) {
	switch val := v.(type) {
	case uint64:
		return val, true
	case uint:
		return uint64(val), true
	case uint32:
		return uint64(val), true
	case string:
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u, true
		}
	}
	i, ok := ToInt64(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}
