package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"crawlindex/internal/config"
	"crawlindex/internal/coordinator"
	"crawlindex/internal/crawlstore"
)

func newCoordinatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	parse := config.BindJobExecutorFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := parse()
		if err != nil {
			return err
		}

		self, err := os.Executable()
		if err != nil {
			return err
		}

		dirs, err := crawlstore.ReadDocfile(cfg.DocfilePath)
		if err != nil {
			return err
		}

		log := newLogger()
		logDir := filepath.Join(".", "log")
		fifoDir := filepath.Join(".", "fifo")

		coord := coordinator.New(realSpawner(self, logDir), nil, log)
		if err := coord.Setup(fifoDir, logDir, dirs, cfg.NumWorkers); err != nil {
			return err
		}
		defer coord.Shutdown()

		return runREPL(cmd.InOrStdin(), cmd.OutOrStdout(), coord, log)
	}
	return cmd
}
