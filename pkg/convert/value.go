package convert

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ToBool converts bools, "true"/"false" style strings and numbers
// (non-zero is true) to bool.
func ToBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, false
		}
		return b, true
	}
	if f, ok := ToFloat64(v); ok {
		return f != 0, true
	}
	return false, false
}

// ToString renders scalar values as strings. Strings are returned as-is,
// fmt.Stringer is honoured, numbers use their shortest exact form.
// nil and composite values (maps, slices) are rejected.
func ToString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case fmt.Stringer:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val), true
	}
	return "", false
}

// ComparableKey normalizes a property value into a comparable map key so
// that 1, int64(1) and 1.0 land on the same index entry. Integers stay exact:
// they become int64, or uint64 above math.MaxInt64. Floats become integers
// only when integral and in range, otherwise they stay float64. Strings stay
// strings. Values that cannot be used as map keys (slices, maps) are
// rendered with %v.
func ComparableKey(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return uintKey(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return uintKey(val)
	case float32:
		return floatKey(float64(val))
	case float64:
		return floatKey(val)
	}
	if t := reflect.TypeOf(v); !t.Comparable() {
		return fmt.Sprintf("%v", v)
	}
	return v
}

func uintKey(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

// floatKey maps integral floats onto the integer key space. 2^63 and 2^64
// are exact float64 values, so the range checks below are exact.
func floatKey(f float64) any {
	if f != math.Trunc(f) {
		return f
	}
	switch {
	case f >= -(1<<63) && f < 1<<63:
		return int64(f)
	case f >= 1<<63 && f < 1<<64:
		return uint64(f)
	}
	return f
}

// KeyString renders a normalized key as a stable string, used by stores
// that persist keys as bytes.
func KeyString(v any) string {
	switch k := ComparableKey(v).(type) {
	case nil:
		return "\x00nil"
	case string:
		return "s:" + k
	case bool:
		return "b:" + strconv.FormatBool(k)
	case int64:
		return "i:" + strconv.FormatInt(k, 10)
	case uint64:
		return "u:" + strconv.FormatUint(k, 10)
	case float64:
		return "f:" + strconv.FormatFloat(k, 'g', -1, 64)
	default:
		return fmt.Sprintf("v:%v", k)
	}
}
