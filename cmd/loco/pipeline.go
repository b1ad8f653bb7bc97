package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/loclocko/locomotive/internal/analyzer"
	"github.com/loclocko/locomotive/internal/gate"
	"github.com/loclocko/locomotive/internal/launcher"
	"github.com/loclocko/locomotive/internal/logger"
	"github.com/loclocko/locomotive/internal/report"
	"github.com/loclocko/locomotive/internal/scenario"
	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/database"
	"github.com/loclocko/locomotive/pkg/database/queries"
	"github.com/loclocko/locomotive/pkg/models"
	"github.com/loclocko/locomotive/pkg/storage"
)

func buildStorage(override string) *storage.Storage {
	root := override
	if root == "" {
		root = cfg.Artifacts.Storage
	}
	if root == "" {
		root = "artifacts"
	}
	return storage.New(root)
}

// resolveRunID prefers an explicit id, then config, then the CI pipeline's
// identifiers, and finally a generated one.
func resolveRunID(override string) string {
	if override != "" {
		return override
	}
	if cfg.Artifacts.RunID != "" {
		return cfg.Artifacts.RunID
	}
	for _, key := range []string{"GITHUB_SHA", "GITHUB_RUN_ID", "CI_PIPELINE_ID"} {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return "run-" + uuid.NewString()[:8]
}

// loadRules resolves the rule set from (in order) an explicit rules file
// flag, the configured rules file, or the inline analysis.rules list.
func loadRules(rulesPathOverride string) ([]models.Rule, error) {
	rulesPath := rulesPathOverride
	if rulesPath == "" {
		rulesPath = cfg.Analysis.RulesFile
	}
	if rulesPath != "" {
		return analyzer.LoadRulesFile(rulesPath)
	}
	if len(cfg.Analysis.Rules) > 0 {
		return analyzer.LoadInlineRules(cfg.Analysis.Rules)
	}
	return nil, nil
}

func loadMetrics(store *storage.Storage, runID string) (models.Metrics, bool) {
	path := store.MetricsPath(runID)
	if !store.Exists(path) {
		return nil, false
	}
	var metrics models.Metrics
	if err := store.LoadJSON(path, &metrics); err != nil {
		logger.Warnf("Failed to load metrics for %s: %v", runID, err)
		return nil, false
	}
	return metrics, true
}

// loadHistorySummary parses and aggregates the stats-history CSV when
// warm-up judging is configured. Returns nil when the export is absent;
// gate eligibility handles that case.
func loadHistorySummary(store *storage.Storage, runID string, gateCfg config.GateConfig) *models.HistorySummary {
	if gateCfg.WarmupSeconds == nil || *gateCfg.WarmupSeconds <= 0 {
		return nil
	}
	historyPath := launcher.FindStatsHistoryCSV(store.RawDir(runID))
	if historyPath == "" {
		return nil
	}
	samples, err := launcher.ParseStatsHistory(historyPath)
	if err != nil {
		logger.Warnf("Failed to parse stats history: %v", err)
		return nil
	}
	return gate.SummarizeHistory(samples, *gateCfg.WarmupSeconds)
}

func resolveBaseline(store *storage.Storage, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg.Analysis.Baseline != "" {
		return cfg.Analysis.Baseline, nil
	}
	if cfg.Database.Enabled {
		db, repo, err := openRunStore()
		if err != nil {
			return "", err
		}
		defer db.Close()
		baseline, err := repo.GetBaseline(context.Background())
		if err != nil {
			return "", err
		}
		if baseline != "" {
			return baseline, nil
		}
	}
	return store.Baseline()
}

// analyzeRun produces the combined verdict for one run: baseline-comparison
// results first, gate results after, merged into a single verdict.
func analyzeRun(store *storage.Storage, runID, baselineID, rulesPath string) (*models.Verdict, error) {
	currentMetrics, metricsExist := loadMetrics(store, runID)
	if !metricsExist {
		return nil, fmt.Errorf("no metrics found for run %s", runID)
	}

	mode, gateCfg := config.ResolveGateMode(cfg.Analysis)
	if baselineID == "" && mode == "" {
		return nil, fmt.Errorf("baseline run id is required")
	}

	var resultSets [][]models.Result

	if baselineID != "" {
		baselineMetrics, _ := loadMetrics(store, baselineID)
		rules, err := loadRules(rulesPath)
		if err != nil {
			return nil, err
		}
		baselineVerdict := analyzer.EvaluateMany(rules, currentMetrics, baselineMetrics)
		resultSets = append(resultSets, baselineVerdict.Results)
	}

	var gateVerdict *models.Verdict
	if mode != "" {
		history := loadHistorySummary(store, runID, gateCfg)
		gateVerdict = gate.Evaluate(currentMetrics, gateCfg, mode, history)
		if gateVerdict != nil {
			resultSets = append(resultSets, gateVerdict.Results)
		}
	}

	if len(resultSets) == 0 {
		return nil, nil
	}

	combined := analyzer.Merge(resultSets)
	combined.RunID = runID
	combined.BaselineID = baselineID
	if gateVerdict != nil {
		combined.Gate = gateVerdict.Gate
	}
	if err := store.SaveJSON(store.AnalysisPath(runID), combined); err != nil {
		return nil, err
	}
	return &combined, nil
}

func writeReport(store *storage.Storage, runID, baselineID, title, outputPath string) error {
	meta := models.RunMeta{RunID: runID}
	if store.Exists(store.RunMetaPath(runID)) {
		if err := store.LoadJSON(store.RunMetaPath(runID), &meta); err != nil {
			return err
		}
	}
	if baselineID != "" {
		meta.BaselineID = baselineID
	}

	currentMetrics, _ := loadMetrics(store, runID)

	var baselineMetrics models.Metrics
	if meta.BaselineID != "" {
		baselineMetrics, _ = loadMetrics(store, meta.BaselineID)
	}

	var verdict *models.Verdict
	if store.Exists(store.AnalysisPath(runID)) {
		var loaded models.Verdict
		if err := store.LoadJSON(store.AnalysisPath(runID), &loaded); err != nil {
			return err
		}
		verdict = &loaded
	}

	rawDir := store.RawDir(runID)
	var endpoints []models.EndpointStat
	if statsPath := launcher.FindStatsCSV(rawDir); statsPath != "" {
		if parsed, err := launcher.ParseEndpointStats(statsPath); err == nil {
			endpoints = parsed
		} else {
			logger.Warnf("Failed to parse endpoint stats: %v", err)
		}
	}
	var history []models.HistoryPoint
	if historyPath := launcher.FindStatsHistoryCSV(rawDir); historyPath != "" {
		if parsed, err := launcher.ParseHistoryPoints(historyPath); err == nil {
			history = parsed
		} else {
			logger.Warnf("Failed to parse stats history: %v", err)
		}
	}

	if title == "" {
		title = cfg.Report.Title
	}
	if title == "" {
		title = "CI Load Test Report"
	}
	html, err := report.Render(report.Data{
		Meta:      meta,
		Current:   currentMetrics,
		Baseline:  baselineMetrics,
		Verdict:   verdict,
		Endpoints: endpoints,
		History:   history,
		Title:     title,
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = cfg.Report.Output
	}
	if outputPath == "" {
		outputPath = store.ReportPath(runID)
	}
	if err := store.SaveText(outputPath, html); err != nil {
		return err
	}
	logger.WithRun(runID).Infof("Report written to %s", outputPath)
	return nil
}

// maybeGenerateLocustfile fills in load.locustfile from the scenario config
// when none was given.
func maybeGenerateLocustfile(store *storage.Storage, runID string, load *config.LoadConfig) error {
	if load.Locustfile != "" {
		return nil
	}
	if len(cfg.Scenario.Requests) == 0 {
		return fmt.Errorf("either load.locustfile or a scenario section with requests is required")
	}
	outputDir := filepath.Join(store.RunDir(runID), "generated")
	path, err := scenario.Generate(cfg.Scenario, *load, outputDir)
	if err != nil {
		return err
	}
	load.Locustfile = path
	logger.WithRun(runID).Infof("Generated locustfile at %s", path)
	return nil
}

func resolveFailOn(override string) models.Status {
	value := override
	if value == "" {
		value = cfg.Analysis.FailOn
	}
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(models.StatusWarning):
		return models.StatusWarning
	default:
		return models.StatusDegradation
	}
}

func openRunStore() (*database.DB, *queries.RunsRepository, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, queries.NewRunsRepository(db.DB), nil
}

// persistRun records the finished run in local history and, when enabled,
// the shared database store.
func persistRun(store *storage.Storage, runID string, verdict *models.Verdict, setBaseline bool) error {
	meta := models.RunMeta{RunID: runID}
	if store.Exists(store.RunMetaPath(runID)) {
		if err := store.LoadJSON(store.RunMetaPath(runID), &meta); err != nil {
			return err
		}
	}
	metrics, _ := loadMetrics(store, runID)

	status := ""
	if verdict != nil {
		status = string(verdict.Status)
	}
	if err := store.AppendHistory(meta, metrics, status, cfg.Artifacts.MaxHistoryRuns); err != nil {
		return err
	}

	if !cfg.Database.Enabled {
		return nil
	}
	db, repo, err := openRunStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	record := queries.RunRecord{
		RunID:     runID,
		StartedAt: meta.StartedAt,
		Status:    status,
		Metrics:   metrics,
		Verdict:   verdict,
	}
	if err := repo.SaveRun(ctx, record); err != nil {
		return err
	}
	if setBaseline {
		return repo.SetBaseline(ctx, runID)
	}
	return nil
}
