package main

import (
	"github.com/spf13/cobra"

	"github.com/loclocko/locomotive/internal/logger"
	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/models"
)

var (
	ciRunFlags     runFlags
	ciAnalyzeFlags analyzeFlags
	ciReportFlags  reportFlags
)

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Run, analyze, and report (full CI pipeline)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildStorage(ciRunFlags.storageRoot)
		runID := resolveRunID(ciRunFlags.runID)

		runResult, err := executeRun(cmd, &ciRunFlags, store, runID)
		if err != nil {
			return err
		}

		mode, _ := config.ResolveGateMode(cfg.Analysis)
		baselineID, err := resolveBaseline(store, ciAnalyzeFlags.baseline)
		if err != nil {
			return err
		}

		_, metricsExist := loadMetrics(store, runID)
		if !metricsExist {
			baselineID = ""
		}

		var verdict *models.Verdict
		if metricsExist && (baselineID != "" || mode != "") {
			verdict, err = analyzeRun(store, runID, baselineID, ciAnalyzeFlags.rules)
			if err != nil {
				return err
			}
		}

		if metricsExist {
			if err := persistRun(store, runID, verdict, ciRunFlags.setBaseline && runResult.ReturnCode == 0); err != nil {
				return err
			}
		}

		if err := writeReport(store, runID, baselineID, ciReportFlags.title, ciReportFlags.output); err != nil {
			return err
		}

		// Exit code policy: a run that produced no metrics is a failure in
		// itself; a non-zero locust exit stands unless a gate is configured
		// to make the call; otherwise the verdict decides.
		if !metricsExist {
			if runResult.ReturnCode != 0 {
				exitCode = runResult.ReturnCode
			} else {
				exitCode = 1
			}
			return nil
		}
		if runResult.ReturnCode != 0 && mode == "" {
			exitCode = runResult.ReturnCode
			return nil
		}
		if verdict != nil {
			logger.WithRun(runID).Infof("Pipeline verdict: %s", verdict.Status)
			if verdict.Status.Reaches(resolveFailOn(ciAnalyzeFlags.failOn)) {
				exitCode = 1
			}
		}
		return nil
	},
}

func init() {
	addRunFlags(ciCmd, &ciRunFlags)
	addAnalyzeFlags(ciCmd, &ciAnalyzeFlags)
	addReportFlags(ciCmd, &ciReportFlags)
}
