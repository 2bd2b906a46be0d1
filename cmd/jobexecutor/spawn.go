package main

import (
	"fmt"
	"os"
	"os/exec"

	"crawlindex/internal/coordinator"
)

// realSpawner builds a coordinator.Spawner that re-executes selfPath in
// the hidden worker role, one OS process per shard.
func realSpawner(selfPath, logDir string) coordinator.Spawner {
	return func(id int, coordReadPath, coordWritePath string) (int, func() error, error) {
		cmd := exec.Command(selfPath, "__worker",
			"--read", coordWritePath,
			"--write", coordReadPath,
			"--logdir", logDir,
		)
		cmd.Stdin = nil
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			return 0, nil, fmt.Errorf("starting worker %d: %w", id, err)
		}
		return cmd.Process.Pid, cmd.Wait, nil
	}
}
