package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclocko/locomotive/pkg/models"
)

func TestLoadRulesFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - metric: p95_ms
    mode: relative
    direction: increase
    warn: 10
    fail: 25.5
  - metric: error_rate
    mode: absolute
    direction: increase
    warn: 1
    fail: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, models.Rule{
		Metric:    "p95_ms",
		Mode:      models.ModeRelative,
		Direction: models.DirectionIncrease,
		Warn:      10,
		Fail:      25.5,
	}, rules[0])
	assert.Equal(t, "error_rate", rules[1].Metric)
	assert.Equal(t, models.ModeAbsolute, rules[1].Mode)
}

func TestLoadRulesFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	content := `{"rules":[{"metric":"rps","mode":"relative","direction":"decrease","warn":5,"fail":15}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.DirectionDecrease, rules[0].Direction)
}

func TestLoadRulesFile_Missing(t *testing.T) {
	_, err := LoadRulesFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rules file")
}

func TestBuildRules_NonNumericThresholds(t *testing.T) {
	tests := []struct {
		name    string
		entry   map[string]any
		wantErr string
	}{
		{
			name:    "warn not a number",
			entry:   map[string]any{"metric": "p95_ms", "mode": "relative", "warn": "lots", "fail": 10},
			wantErr: "warn must be a number",
		},
		{
			name:    "fail missing",
			entry:   map[string]any{"metric": "p95_ms", "mode": "relative", "warn": 5},
			wantErr: "fail must be a number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadInlineRules([]map[string]any{tt.entry})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "p95_ms")
		})
	}
}

func TestLoadInlineRules(t *testing.T) {
	rules, err := LoadInlineRules([]map[string]any{
		{"metric": "avg_ms", "mode": "relative", "direction": "increase", "warn": 10, "fail": 20},
	})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "avg_ms", rules[0].Metric)
	assert.Equal(t, 10.0, rules[0].Warn)
	assert.Equal(t, 20.0, rules[0].Fail)
}
