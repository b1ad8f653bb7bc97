package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected *float64
	}{
		{"nil is missing", nil, nil},
		{"float64 passes through", 12.5, floatPtr(12.5)},
		{"int converts", 42, floatPtr(42)},
		{"numeric string parses", "3.14", floatPtr(3.14)},
		{"json number parses", json.Number("7"), floatPtr(7)},
		{"empty string is missing", "", nil},
		{"N/A is missing", "N/A", nil},
		{"garbage string is missing", "fast", nil},
		{"bool is missing", true, nil},
		{"NaN is missing", math.NaN(), nil},
		{"infinity is missing", math.Inf(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceFloat(tt.value)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 1e-9)
		})
	}
}

func TestMetricsFloat(t *testing.T) {
	metrics := Metrics{
		"rps":        250.5,
		"error_rate": nil,
		"p95_ms":     "850",
	}

	require.NotNil(t, metrics.Float("rps"))
	assert.InDelta(t, 250.5, *metrics.Float("rps"), 1e-9)

	require.NotNil(t, metrics.Float("p95_ms"))
	assert.InDelta(t, 850, *metrics.Float("p95_ms"), 1e-9)

	assert.Nil(t, metrics.Float("error_rate"))
	assert.Nil(t, metrics.Float("absent"))

	var none Metrics
	assert.Nil(t, none.Float("anything"))
}

func TestMetricsCloneIsIndependent(t *testing.T) {
	original := Metrics{"requests": 100}
	clone := original.Clone()
	clone["requests"] = 5

	assert.Equal(t, 100, original["requests"])
	assert.Equal(t, 5, clone["requests"])
}

func floatPtr(v float64) *float64 {
	return &v
}
