package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metrics is a flat mapping of metric name to raw value as produced by the
// launcher or loaded back from metrics.json. Values may be absent or
// non-numeric; both are treated as "unavailable", never as zero.
type Metrics map[string]any

// Float returns the metric as a float64, or nil when the value is missing
// or cannot be interpreted as a finite number.
func (m Metrics) Float(name string) *float64 {
	if m == nil {
		return nil
	}
	return CoerceFloat(m[name])
}

// Int returns the metric truncated to an int, or nil when unavailable.
func (m Metrics) Int(name string) *int {
	f := m.Float(name)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// Clone returns a shallow copy so gate evaluation can override working
// values without mutating the caller's mapping.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CoerceFloat normalizes a raw metric value to a float64. JSON decoding,
// CSV parsing and viper hand us several numeric shapes; everything else
// (including NaN, infinities and "N/A" strings) counts as missing.
func CoerceFloat(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		text := strings.TrimSpace(v)
		if text == "" || strings.EqualFold(text, "N/A") {
			return nil
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
