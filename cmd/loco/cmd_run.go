package main

import (
	"github.com/spf13/cobra"

	"github.com/loclocko/locomotive/internal/launcher"
	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/storage"
)

type runFlags struct {
	locustfile  string
	host        string
	users       int
	spawnRate   int
	runTime     string
	tags        []string
	excludeTags []string
	stopTimeout int
	extraArgs   []string
	locustCmd   string
	storageRoot string
	runID       string
	setBaseline bool
}

func addRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVar(&flags.locustfile, "locustfile", "", "path to locustfile (optional if scenario is in config)")
	cmd.Flags().StringVar(&flags.host, "host", "", "target host URL")
	cmd.Flags().IntVar(&flags.users, "users", 0, "number of concurrent users")
	cmd.Flags().IntVar(&flags.spawnRate, "spawn-rate", 0, "users spawned per second")
	cmd.Flags().StringVar(&flags.runTime, "run-time", "", "test duration (e.g. 1m, 30s)")
	cmd.Flags().StringSliceVar(&flags.tags, "tags", nil, "only run tasks with these tags")
	cmd.Flags().StringSliceVar(&flags.excludeTags, "exclude-tags", nil, "exclude tasks with these tags")
	cmd.Flags().IntVar(&flags.stopTimeout, "stop-timeout", 0, "timeout for stopping users")
	cmd.Flags().StringArrayVar(&flags.extraArgs, "extra-arg", nil, "extra arguments passed to locust")
	cmd.Flags().StringVar(&flags.locustCmd, "locust-cmd", "", "custom locust command")
	cmd.Flags().StringVar(&flags.storageRoot, "storage", "", "artifacts storage directory")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "unique run identifier")
	cmd.Flags().BoolVar(&flags.setBaseline, "set-baseline", false, "set this run as baseline on success")
}

// mergedLoadConfig overlays the CLI flags on the configured load section.
func (f *runFlags) mergedLoadConfig(cmd *cobra.Command) config.LoadConfig {
	load := cfg.Load
	if cmd.Flags().Changed("locustfile") {
		load.Locustfile = f.locustfile
	}
	if cmd.Flags().Changed("host") {
		load.Host = f.host
	}
	if cmd.Flags().Changed("users") {
		load.Users = f.users
	}
	if cmd.Flags().Changed("spawn-rate") {
		load.SpawnRate = f.spawnRate
	}
	if cmd.Flags().Changed("run-time") {
		load.RunTime = f.runTime
	}
	if cmd.Flags().Changed("tags") {
		load.Tags = f.tags
	}
	if cmd.Flags().Changed("exclude-tags") {
		load.ExcludeTags = f.excludeTags
	}
	if cmd.Flags().Changed("stop-timeout") {
		load.StopTimeout = f.stopTimeout
	}
	if cmd.Flags().Changed("extra-arg") {
		load.ExtraArgs = f.extraArgs
	}
	if cmd.Flags().Changed("locust-cmd") {
		load.LocustCmd = f.locustCmd
	}
	return load
}

func executeRun(cmd *cobra.Command, flags *runFlags, store *storage.Storage, runID string) (*launcher.RunResult, error) {
	load := flags.mergedLoadConfig(cmd)
	if err := maybeGenerateLocustfile(store, runID, &load); err != nil {
		return nil, err
	}

	l := launcher.New(store, runID, load, launcher.CollectCIMeta())
	result, err := l.Run(cmd.Context())
	if err != nil {
		return nil, err
	}

	if flags.setBaseline && result.ReturnCode == 0 {
		if err := store.SetBaseline(runID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

var runFlagsRun runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run locust and store metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildStorage(runFlagsRun.storageRoot)
		runID := resolveRunID(runFlagsRun.runID)

		result, err := executeRun(cmd, &runFlagsRun, store, runID)
		if err != nil {
			return err
		}
		if result.ReturnCode != 0 {
			exitCode = result.ReturnCode
		}
		return nil
	},
}

func init() {
	addRunFlags(runCmd, &runFlagsRun)
}
