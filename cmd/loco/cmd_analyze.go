package main

import (
	"github.com/spf13/cobra"

	"github.com/loclocko/locomotive/internal/logger"
)

type analyzeFlags struct {
	baseline string
	rules    string
	failOn   string
}

func addAnalyzeFlags(cmd *cobra.Command, flags *analyzeFlags) {
	cmd.Flags().StringVar(&flags.baseline, "baseline", "", "baseline run ID to compare against")
	cmd.Flags().StringVar(&flags.rules, "rules", "", "path to rules YAML/JSON file")
	cmd.Flags().StringVar(&flags.failOn, "fail-on", "", "status that triggers exit code 1 (WARNING or DEGRADATION)")
}

var (
	analyzeFlagsAnalyze analyzeFlags
	analyzeStorageRoot  string
	analyzeRunID        string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze metrics against the baseline and gate thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildStorage(analyzeStorageRoot)
		runID := resolveRunID(analyzeRunID)

		baselineID, err := resolveBaseline(store, analyzeFlagsAnalyze.baseline)
		if err != nil {
			return err
		}

		verdict, err := analyzeRun(store, runID, baselineID, analyzeFlagsAnalyze.rules)
		if err != nil {
			return err
		}
		if verdict == nil {
			return nil
		}

		logger.WithRun(runID).Infof("Analysis complete: %s", verdict.Status)
		if verdict.Status.Reaches(resolveFailOn(analyzeFlagsAnalyze.failOn)) {
			exitCode = 1
		}
		return nil
	},
}

func init() {
	addAnalyzeFlags(analyzeCmd, &analyzeFlagsAnalyze)
	analyzeCmd.Flags().StringVar(&analyzeStorageRoot, "storage", "", "artifacts storage directory")
	analyzeCmd.Flags().StringVar(&analyzeRunID, "run-id", "", "run identifier to analyze")
}
