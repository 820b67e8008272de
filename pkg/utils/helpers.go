package utils

import "math"

// Numeric converts supported numeric types to float64. Returns false for
// non-numeric values.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
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
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// IsIntegral reports whether v holds an integer value. JSON decoding
// delivers every number as float64, so integral floats count.
func IsIntegral(v interface{}) bool {
	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint32, uint64:
		return true
	case float32:
		return float64(val) == math.Trunc(float64(val))
	case float64:
		return val == math.Trunc(val)
	default:
		return false
	}
}
