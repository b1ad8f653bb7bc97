package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loclocko/locomotive/internal/server"
)

var (
	servePort        int
	serveStorageRoot string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run-history dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildStorage(serveStorageRoot)

		serverCfg := cfg.Server
		if cmd.Flags().Changed("port") {
			serverCfg.Port = servePort
		}

		var runStore server.RunStore
		if cfg.Database.Enabled {
			db, repo, err := openRunStore()
			if err != nil {
				return err
			}
			defer db.Close()
			runStore = repo
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(serverCfg, store, runStore).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8090, "dashboard listen port")
	serveCmd.Flags().StringVar(&serveStorageRoot, "storage", "", "artifacts storage directory")
}
