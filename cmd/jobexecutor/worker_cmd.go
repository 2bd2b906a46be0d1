package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"crawlindex/internal/frame"
	"crawlindex/internal/indexworker"
	"crawlindex/internal/ipc"
)

// newWorkerCmd builds the hidden "__worker" role the coordinator
// re-execs itself into, one OS process per directory shard. It is not
// part of the documented CLI surface.
func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "__worker",
		Hidden: true,
	}
	readPath := cmd.Flags().String("read", "", "FIFO path this worker reads commands from")
	writePath := cmd.Flags().String("write", "", "FIFO path this worker writes responses to")
	logDir := cmd.Flags().String("logdir", "", "directory for this worker's audit log")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *readPath == "" || *writePath == "" {
			return fmt.Errorf("__worker: --read and --write are required")
		}
		return runWorkerRole(*readPath, *writePath, *logDir)
	}
	return cmd
}

func runWorkerRole(readPath, writePath, logDir string) error {
	read, write, err := ipc.WorkerEnds(readPath, writePath)
	if err != nil {
		return fmt.Errorf("opening worker fifos: %w", err)
	}
	defer read.Close()
	defer write.Close()

	reader := frame.NewReader(read)
	writer := frame.NewWriter(write)

	dirs, err := reader.Recv()
	if err != nil {
		return fmt.Errorf("receiving directory shard: %w", err)
	}

	idx, err := indexworker.BuildIndex(dirs)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("Worker_%d", os.Getpid()))
	worker, err := indexworker.NewWorker(idx, logPath)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer worker.Close()

	return indexworker.Run(context.Background(), reader, writer, worker, newLogger())
}
