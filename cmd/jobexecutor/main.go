// Command jobexecutor is the indexer's entry point. Invoked normally
// (`jobexecutor -d DOCFILE -w NUM_WORKERS`) it runs the coordinator
// role: it reads the crawler's docfile, forks one worker process per
// directory shard by re-executing itself in a hidden worker role, and
// serves an interactive stdin command loop. The hidden "__worker"
// subcommand is how the coordinator re-execs itself into the worker
// role; it is never meant to be invoked by a human.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	root := newCoordinatorCmd()
	root.Use = "jobexecutor"
	root.Short = "Multi-process keyword indexer for crawled content"
	root.AddCommand(newWorkerCmd())
	return root
}
