package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorst(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected Status
	}{
		{
			name:     "empty defaults to pass",
			statuses: nil,
			expected: StatusPass,
		},
		{
			name:     "degradation wins over warning",
			statuses: []Status{StatusPass, StatusWarning, StatusDegradation},
			expected: StatusDegradation,
		},
		{
			name:     "warning wins over pass",
			statuses: []Status{StatusPass, StatusWarning, StatusPass},
			expected: StatusWarning,
		},
		{
			name:     "skip does not elevate",
			statuses: []Status{StatusSkip, StatusSkip},
			expected: StatusPass,
		},
		{
			name:     "skip does not mask degradation",
			statuses: []Status{StatusSkip, StatusDegradation},
			expected: StatusDegradation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Worst(tt.statuses))
		})
	}
}

func TestStatusReaches(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		failOn   Status
		expected bool
	}{
		{"degradation reaches degradation", StatusDegradation, StatusDegradation, true},
		{"warning does not reach degradation", StatusWarning, StatusDegradation, false},
		{"warning reaches warning", StatusWarning, StatusWarning, true},
		{"degradation reaches warning", StatusDegradation, StatusWarning, true},
		{"pass reaches nothing", StatusPass, StatusWarning, false},
		{"skip reaches nothing", StatusSkip, StatusWarning, false},
		{"pass threshold never fires", StatusDegradation, StatusPass, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Reaches(tt.failOn))
		})
	}
}

func TestNewSummary(t *testing.T) {
	results := []Result{
		{Status: StatusPass},
		{Status: StatusPass},
		{Status: StatusDegradation},
		{Status: StatusSkip},
	}

	summary := NewSummary(results)

	assert.Equal(t, 2, summary[StatusPass])
	assert.Equal(t, 0, summary[StatusWarning])
	assert.Equal(t, 1, summary[StatusDegradation])
	assert.Equal(t, 1, summary[StatusSkip])
}
