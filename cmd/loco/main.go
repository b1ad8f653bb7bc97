package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loclocko/locomotive/internal/logger"
	"github.com/loclocko/locomotive/pkg/config"
)

var (
	cfgPath  string
	cfg      *config.Config
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:           "loco",
	Short:         "CI/CD load testing runner and regression gatekeeper for locust",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init scaffolds the config, so it must not require one.
		if cmd.Name() == "init" {
			return nil
		}
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to loconfig JSON/YAML (default loconfig.json)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(ciCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
