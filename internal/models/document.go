package models

import (
	"math"
	"strings"
)

// jsonNumber matches the Number type of both encoding/json and go-json,
// which decoders produce when UseNumber is enabled.
type jsonNumber interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// NormalizeNumbers walks a decoded JSON value and replaces number literals
// with int64 (when integral and written without a fraction or exponent) or
// float64.
func NormalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = NormalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = NormalizeNumbers(e)
		}
		return t
	case string, bool, nil:
		return v
	case jsonNumber:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := t.Int64(); err == nil {
				return n
			}
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return s
	}
	return v
}

// ToFloat converts any numeric Go value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case jsonNumber:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// IsIntegral reports whether v is a number with no fractional part.
func IsIntegral(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float32, float64, jsonNumber:
		f, ok := ToFloat(n)
		return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
	}
	return false
}
