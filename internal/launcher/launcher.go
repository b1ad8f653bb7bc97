package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/loclocko/locomotive/internal/logger"
	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/models"
	"github.com/loclocko/locomotive/pkg/storage"
)

// Launcher runs locust headless for one run, pointing its CSV output at the
// run's raw dir, then extracts the metric mapping.
type Launcher struct {
	storage *storage.Storage
	runID   string
	cfg     config.LoadConfig
	ciMeta  map[string]string
}

type RunResult struct {
	ReturnCode int
	Metrics    models.Metrics
	StatsPath  string
}

func New(store *storage.Storage, runID string, cfg config.LoadConfig, ciMeta map[string]string) *Launcher {
	return &Launcher{storage: store, runID: runID, cfg: cfg, ciMeta: ciMeta}
}

func (l *Launcher) buildCommand(csvPrefix string) ([]string, error) {
	if l.cfg.Locustfile == "" {
		return nil, fmt.Errorf("locustfile is required")
	}
	if l.cfg.Users <= 0 {
		return nil, fmt.Errorf("users is required")
	}
	if l.cfg.SpawnRate <= 0 {
		return nil, fmt.Errorf("spawn_rate is required")
	}
	if l.cfg.RunTime == "" {
		return nil, fmt.Errorf("run_time is required")
	}

	locustCmd := l.cfg.LocustCmd
	if locustCmd == "" {
		locustCmd = "locust"
	}

	cmd := []string{
		locustCmd,
		"-f", l.cfg.Locustfile,
		"--headless",
		"-u", strconv.Itoa(l.cfg.Users),
		"-r", strconv.Itoa(l.cfg.SpawnRate),
		"--run-time", l.cfg.RunTime,
		"--csv", csvPrefix,
	}
	if l.cfg.Host != "" {
		cmd = append(cmd, "--host", l.cfg.Host)
	}
	if len(l.cfg.Tags) > 0 {
		cmd = append(cmd, "--tags", strings.Join(l.cfg.Tags, ","))
	}
	if len(l.cfg.ExcludeTags) > 0 {
		cmd = append(cmd, "--exclude-tags", strings.Join(l.cfg.ExcludeTags, ","))
	}
	if l.cfg.StopTimeout > 0 {
		cmd = append(cmd, "--stop-timeout", strconv.Itoa(l.cfg.StopTimeout))
	}
	cmd = append(cmd, l.cfg.ExtraArgs...)
	return cmd, nil
}

// Run executes locust and persists metrics.json and run.json. A non-zero
// locust exit is not an error here: the exit code is part of the result
// and the caller decides what it means for the pipeline.
func (l *Launcher) Run(ctx context.Context) (*RunResult, error) {
	if err := l.storage.EnsureRun(l.runID); err != nil {
		return nil, err
	}
	rawDir := l.storage.RawDir(l.runID)
	csvPrefix := filepath.Join(rawDir, "locust")

	args, err := l.buildCommand(csvPrefix)
	if err != nil {
		return nil, err
	}

	logger.WithRun(l.runID).Infof("Launching: %s", strings.Join(args, " "))
	startedAt := time.Now().UTC().Truncate(time.Second)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	returnCode := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to run locust: %w", err)
		}
		returnCode = exitErr.ExitCode()
	}
	finishedAt := time.Now().UTC().Truncate(time.Second)

	metrics := models.Metrics{}
	statsPath := FindStatsCSV(rawDir)
	if statsPath != "" {
		metrics, err = ParseStats(statsPath)
		if err != nil {
			return nil, err
		}
		if err := l.storage.SaveJSON(l.storage.MetricsPath(l.runID), metrics); err != nil {
			return nil, err
		}
	} else {
		logger.WithRun(l.runID).Warn("No stats CSV produced, metrics unavailable")
	}

	meta := models.RunMeta{
		RunID:      l.runID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		ReturnCode: returnCode,
		Command:    args,
		Locustfile: l.cfg.Locustfile,
		Host:       l.cfg.Host,
		Users:      l.cfg.Users,
		SpawnRate:  l.cfg.SpawnRate,
		RunTime:    l.cfg.RunTime,
		CI:         l.ciMeta,
	}
	if err := l.storage.SaveJSON(l.storage.RunMetaPath(l.runID), meta); err != nil {
		return nil, err
	}

	return &RunResult{
		ReturnCode: returnCode,
		Metrics:    metrics,
		StatsPath:  statsPath,
	}, nil
}

// CollectCIMeta captures the CI environment identifiers worth keeping with
// a run's metadata.
func CollectCIMeta() map[string]string {
	keys := []string{
		"GITHUB_SHA",
		"GITHUB_REF",
		"GITHUB_RUN_ID",
		"GITHUB_RUN_NUMBER",
		"GITHUB_REPOSITORY",
		"GITHUB_WORKFLOW",
		"GITHUB_ACTIONS",
	}
	meta := make(map[string]string)
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			meta[strings.ToLower(key)] = value
		}
	}
	return meta
}
