package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_JSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loconfig.json")
	content := `{
  "load": {"locustfile": "locustfile.py", "host": "https://api.test", "users": 20, "spawn_rate": 5, "run_time": "2m"},
  "analysis": {
    "rules": [{"metric": "p95_ms", "mode": "relative", "direction": "increase", "warn": 10, "fail": 25}],
    "gate": {"mode": "resilience", "thresholds": {"error_rate": 5}, "min_requests": 500}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "locustfile.py", cfg.Load.Locustfile)
	assert.Equal(t, 20, cfg.Load.Users)
	assert.Equal(t, "2m", cfg.Load.RunTime)

	assert.Equal(t, "DEGRADATION", cfg.Analysis.FailOn)
	assert.Equal(t, 50, cfg.Artifacts.MaxHistoryRuns)
	assert.Equal(t, "artifacts", cfg.Artifacts.Storage)

	require.Len(t, cfg.Analysis.Rules, 1)
	assert.Equal(t, ModeResilience, cfg.Analysis.Gate.Mode)
	require.NotNil(t, cfg.Analysis.Gate.MinRequests)
	assert.Equal(t, 500, *cfg.Analysis.Gate.MinRequests)
}

func TestLoad_LocustSectionAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loconfig.json")
	content := `{"locust": {"locustfile": "old.py", "users": 10, "spawn_rate": 2, "run_time": "1m"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "old.py", cfg.Load.Locustfile)
	assert.Equal(t, 10, cfg.Load.Users)
}

func TestLoad_ExpandsHostEnv(t *testing.T) {
	t.Setenv("TARGET_HOST", "https://staging.test")
	path := filepath.Join(t.TempDir(), "loconfig.json")
	content := `{"load": {"locustfile": "f.py", "host": "${TARGET_HOST}", "users": 1, "spawn_rate": 1, "run_time": "30s"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.test", cfg.Load.Host)
}

func TestResolveGateMode(t *testing.T) {
	thresholds := map[string]any{"error_rate": 5}

	tests := []struct {
		name     string
		analysis AnalysisConfig
		wantMode string
	}{
		{
			name:     "explicit analysis mode wins",
			analysis: AnalysisConfig{Mode: "acceptance", Gate: GateConfig{Mode: "resilience", Thresholds: thresholds}},
			wantMode: ModeAcceptance,
		},
		{
			name:     "gate mode used when analysis mode empty",
			analysis: AnalysisConfig{Gate: GateConfig{Mode: "acceptance"}},
			wantMode: ModeAcceptance,
		},
		{
			name:     "thresholds imply resilience",
			analysis: AnalysisConfig{Gate: GateConfig{Thresholds: thresholds}},
			wantMode: ModeResilience,
		},
		{
			name:     "explicit resilience without thresholds is absent",
			analysis: AnalysisConfig{Mode: "resilience"},
			wantMode: "",
		},
		{
			name:     "nothing configured",
			analysis: AnalysisConfig{},
			wantMode: "",
		},
		{
			name:     "unknown mode ignored",
			analysis: AnalysisConfig{Mode: "chaos", Gate: GateConfig{Thresholds: thresholds}},
			wantMode: ModeResilience,
		},
		{
			name:     "mode normalization",
			analysis: AnalysisConfig{Mode: " Acceptance "},
			wantMode: ModeAcceptance,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, _ := ResolveGateMode(tt.analysis)
			assert.Equal(t, tt.wantMode, mode)
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LOCO_TEST_TOKEN", "secret")
	os.Unsetenv("LOCO_TEST_UNSET")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no references", "plain", "plain"},
		{"braced", "Bearer ${LOCO_TEST_TOKEN}", "Bearer secret"},
		{"bare", "Bearer $LOCO_TEST_TOKEN", "Bearer secret"},
		{"dash default used", "${LOCO_TEST_UNSET:-fallback}", "fallback"},
		{"colon default used", "${LOCO_TEST_UNSET:fallback}", "fallback"},
		{"default ignored when set", "${LOCO_TEST_TOKEN:-fallback}", "secret"},
		{"unset without default", "x${LOCO_TEST_UNSET}y", "xy"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnv(tt.input))
		})
	}
}
