// Package ipc creates and opens the named pipes that connect the
// indexer coordinator to its worker processes, and the two scratch
// directories (fifo/, log/) that are recreated fresh on every indexer
// run. Open order avoids the classic FIFO-open deadlock: a worker
// opens its read end before its write end; the coordinator opens the
// matching write end before the matching read end.
package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// WorkerFifoPaths returns the coordinator-read and coordinator-write
// FIFO paths for worker i, named "worker_i.1"/"worker_i.2" (".1" is
// read by the coordinator, written by the worker; ".2" is the
// reverse).
func WorkerFifoPaths(fifoDir string, i int) (coordReadPath, coordWritePath string) {
	coordReadPath = filepath.Join(fifoDir, fmt.Sprintf("worker_%d.1", i))
	coordWritePath = filepath.Join(fifoDir, fmt.Sprintf("worker_%d.2", i))
	return
}

// PrepareDir removes any stale contents of dir and recreates it empty.
// Both the FIFO directory and the log directory are recreated fresh on
// every indexer run, so no state from a prior run can leak in.
func PrepareDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %q: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", dir, err)
	}
	return nil
}

// CreateFifo makes a POSIX named pipe at path, tolerating a pre-existing
// one left over from a prior run (PrepareDir ordinarily makes this moot).
// A worker restart does not call it; it reuses the pair made at setup.
func CreateFifo(path string) error {
	if err := syscall.Mkfifo(path, 0o600); err != nil && err != syscall.EEXIST {
		return fmt.Errorf("mkfifo %q: %w", path, err)
	}
	return nil
}

// WorkerEnds opens a worker process's two FIFO ends in the
// deadlock-free order: read first (coordWritePath, which the worker
// reads from), then write (coordReadPath, which the worker writes to).
// Both opens block until the coordinator opens its matching end.
func WorkerEnds(coordWritePath, coordReadPath string) (read, write *os.File, err error) {
	read, err = os.OpenFile(coordWritePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("worker opening read fifo %q: %w", coordWritePath, err)
	}
	write, err = os.OpenFile(coordReadPath, os.O_WRONLY, 0)
	if err != nil {
		read.Close()
		return nil, nil, fmt.Errorf("worker opening write fifo %q: %w", coordReadPath, err)
	}
	return read, write, nil
}

// CoordinatorEnds opens the coordinator's two ends of one worker's FIFO
// pair in the deadlock-free order: write first (coordWritePath, which
// the coordinator writes to and the worker reads from), then read
// (coordReadPath, which the worker writes to and the coordinator reads
// from). Both opens block until the worker opens its matching end, so
// this must run after the worker process has been started (or
// restarted).
func CoordinatorEnds(coordReadPath, coordWritePath string) (write, read *os.File, err error) {
	write, err = os.OpenFile(coordWritePath, os.O_WRONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("coordinator opening write fifo %q: %w", coordWritePath, err)
	}
	read, err = os.OpenFile(coordReadPath, os.O_RDONLY, 0)
	if err != nil {
		write.Close()
		return nil, nil, fmt.Errorf("coordinator opening read fifo %q: %w", coordReadPath, err)
	}
	return write, read, nil
}
