package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/storage"
)

func TestBuildCommand(t *testing.T) {
	cfg := config.LoadConfig{
		Locustfile:  "locustfile.py",
		Host:        "https://api.test",
		Users:       50,
		SpawnRate:   10,
		RunTime:     "3m",
		Tags:        []string{"checkout", "search"},
		ExcludeTags: []string{"slow"},
		StopTimeout: 30,
		ExtraArgs:   []string{"--only-summary"},
	}
	l := New(storage.New(t.TempDir()), "run-1", cfg, nil)

	args, err := l.buildCommand("/tmp/raw/locust")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"locust",
		"-f", "locustfile.py",
		"--headless",
		"-u", "50",
		"-r", "10",
		"--run-time", "3m",
		"--csv", "/tmp/raw/locust",
		"--host", "https://api.test",
		"--tags", "checkout,search",
		"--exclude-tags", "slow",
		"--stop-timeout", "30",
		"--only-summary",
	}, args)
}

func TestBuildCommand_CustomLocustCmd(t *testing.T) {
	cfg := config.LoadConfig{
		Locustfile: "f.py",
		Users:      1,
		SpawnRate:  1,
		RunTime:    "30s",
		LocustCmd:  "/opt/venv/bin/locust",
	}
	l := New(storage.New(t.TempDir()), "run-1", cfg, nil)

	args, err := l.buildCommand("prefix")
	require.NoError(t, err)
	assert.Equal(t, "/opt/venv/bin/locust", args[0])
}

func TestBuildCommand_Validation(t *testing.T) {
	base := config.LoadConfig{Locustfile: "f.py", Users: 10, SpawnRate: 5, RunTime: "1m"}

	tests := []struct {
		name    string
		mutate  func(*config.LoadConfig)
		wantErr string
	}{
		{"missing locustfile", func(c *config.LoadConfig) { c.Locustfile = "" }, "locustfile is required"},
		{"zero users", func(c *config.LoadConfig) { c.Users = 0 }, "users is required"},
		{"zero spawn rate", func(c *config.LoadConfig) { c.SpawnRate = 0 }, "spawn_rate is required"},
		{"missing run time", func(c *config.LoadConfig) { c.RunTime = "" }, "run_time is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			l := New(storage.New(t.TempDir()), "run-1", cfg, nil)
			_, err := l.buildCommand("prefix")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCollectCIMeta(t *testing.T) {
	t.Setenv("GITHUB_SHA", "abc123")
	t.Setenv("GITHUB_RUN_ID", "42")
	t.Setenv("GITHUB_REF", "")

	meta := CollectCIMeta()
	assert.Equal(t, "abc123", meta["github_sha"])
	assert.Equal(t, "42", meta["github_run_id"])
	_, ok := meta["github_ref"]
	assert.False(t, ok)
}
