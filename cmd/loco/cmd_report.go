package main

import (
	"github.com/spf13/cobra"
)

type reportFlags struct {
	title  string
	output string
}

func addReportFlags(cmd *cobra.Command, flags *reportFlags) {
	cmd.Flags().StringVar(&flags.title, "title", "", "report title")
	cmd.Flags().StringVar(&flags.output, "output", "", "report output path")
}

var (
	reportFlagsReport reportFlags
	reportBaseline    string
	reportStorageRoot string
	reportRunID       string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the HTML report for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildStorage(reportStorageRoot)
		runID := resolveRunID(reportRunID)

		baselineID, err := resolveBaseline(store, reportBaseline)
		if err != nil {
			return err
		}
		return writeReport(store, runID, baselineID, reportFlagsReport.title, reportFlagsReport.output)
	},
}

func init() {
	addReportFlags(reportCmd, &reportFlagsReport)
	reportCmd.Flags().StringVar(&reportBaseline, "baseline", "", "baseline run ID shown in the report")
	reportCmd.Flags().StringVar(&reportStorageRoot, "storage", "", "artifacts storage directory")
	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "run identifier to report on")
}
