// Package coordinator implements the indexer's parent process: it
// forks one worker per directory shard, multiplexes their FIFO pairs,
// aggregates SEARCH/MAXCOUNT/MINCOUNT/WC responses, enforces the
// search deadline, and restarts crashed workers.
package coordinator

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crawlindex/internal/frame"
	"crawlindex/internal/ipc"
)

// Spawner starts a worker process (or process-equivalent, in tests)
// bound to the given FIFO pair, returning its pid and a wait function
// that blocks until the process exits. Production code backs this with
// os/exec re-executing the jobexecutor binary in its worker role.
type Spawner func(id int, coordReadPath, coordWritePath string) (pid int, wait func() error, err error)

// workerHandle is the coordinator's bookkeeping record for one worker
// process: its FIFO pair, pid, directory shard, and liveness.
type workerHandle struct {
	id                   int
	coordReadPath        string // worker writes here, coordinator reads
	coordWritePath       string // coordinator writes here, worker reads
	pid                  int
	wait                 func() error
	write                *os.File
	read                 *os.File
	shardStart, shardEnd int
	restartTime          time.Time
	alive                bool
}

// Coordinator owns the worker pool and the docfile's directory shards.
type Coordinator struct {
	spawn   Spawner
	signal  Signaler
	log     zerolog.Logger
	fifoDir string
	dirs    []string

	mu      sync.Mutex
	workers []*workerHandle
}

// New constructs a Coordinator. signal may be nil to use the real OS
// signaler; tests inject a stub.
func New(spawn Spawner, signal Signaler, log zerolog.Logger) *Coordinator {
	if signal == nil {
		signal = osSignaler{}
	}
	return &Coordinator{spawn: spawn, signal: signal, log: log}
}

// Setup prepares fifoDir/logDir, splits dirs across up to numWorkers
// workers (capped at len(dirs), so requesting more workers than
// directories spawns one worker per directory instead), spawns each,
// opens its FIFO pair, and sends its directory shard. An empty dirs
// list spawns zero workers.
func (c *Coordinator) Setup(fifoDir, logDir string, dirs []string, numWorkers int) error {
	if err := ipc.PrepareDir(fifoDir); err != nil {
		return err
	}
	if err := ipc.PrepareDir(logDir); err != nil {
		return err
	}

	c.fifoDir = fifoDir
	c.dirs = dirs

	if numWorkers > len(dirs) {
		numWorkers = len(dirs)
	}
	if numWorkers == 0 {
		return nil
	}

	shards := splitShards(len(dirs), numWorkers)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < numWorkers; i++ {
		coordRead, coordWrite := ipc.WorkerFifoPaths(fifoDir, i)
		if err := ipc.CreateFifo(coordRead); err != nil {
			return err
		}
		if err := ipc.CreateFifo(coordWrite); err != nil {
			return err
		}

		pid, wait, err := c.spawn(i, coordRead, coordWrite)
		if err != nil {
			return fmt.Errorf("spawning worker %d: %w", i, err)
		}

		wh := &workerHandle{
			id:             i,
			coordReadPath:  coordRead,
			coordWritePath: coordWrite,
			pid:            pid,
			wait:           wait,
			shardStart:     shards[i].start,
			shardEnd:       shards[i].end,
			restartTime:    time.Now(),
			alive:          true,
		}
		c.workers = append(c.workers, wh)

		w, r, err := ipc.CoordinatorEnds(coordRead, coordWrite)
		if err != nil {
			return fmt.Errorf("opening fifos for worker %d: %w", i, err)
		}
		wh.write, wh.read = w, r

		if err := frame.NewWriter(w).SendAll(dirs[wh.shardStart:wh.shardEnd]); err != nil {
			return fmt.Errorf("sending shard to worker %d: %w", i, err)
		}

		go c.reap(wh)
	}
	return nil
}

// reap blocks until wh's process exits, then restarts it.
func (c *Coordinator) reap(wh *workerHandle) {
	err := wh.wait()

	c.mu.Lock()
	wh.alive = false
	c.mu.Unlock()

	c.log.Warn().Int("worker", wh.id).Err(err).Msg("worker exited, restarting")
	if restartErr := c.restart(wh); restartErr != nil {
		c.log.Error().Int("worker", wh.id).Err(restartErr).Msg("failed to restart worker")
	}
}

// restart replaces a crashed worker's process, reopens its FIFO pair,
// and resends its directory shard. A worker crash is fatal only to that
// worker's shard, never to the coordinator as a whole.
func (c *Coordinator) restart(wh *workerHandle) error {
	wh.write.Close()
	wh.read.Close()

	pid, wait, err := c.spawn(wh.id, wh.coordReadPath, wh.coordWritePath)
	if err != nil {
		return err
	}

	w, r, err := ipc.CoordinatorEnds(wh.coordReadPath, wh.coordWritePath)
	if err != nil {
		return err
	}

	c.mu.Lock()
	wh.pid = pid
	wh.wait = wait
	wh.write = w
	wh.read = r
	wh.restartTime = time.Now()
	wh.alive = true
	shardDirs := c.dirs[wh.shardStart:wh.shardEnd]
	c.mu.Unlock()

	if err := frame.NewWriter(w).SendAll(shardDirs); err != nil {
		return err
	}

	go c.reap(wh)
	return nil
}

// workerIO returns a lock-guarded snapshot of wh's current FIFO file
// handles and pid. restart replaces all three under c.mu whenever a
// worker crashes, so callers that are mid-dispatch must read them this
// way rather than dereferencing wh directly.
func (c *Coordinator) workerIO(wh *workerHandle) (write, read *os.File, pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wh.write, wh.read, wh.pid
}

// liveWorkers returns a snapshot of currently-alive worker handles.
func (c *Coordinator) liveWorkers() []*workerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := make([]*workerHandle, 0, len(c.workers))
	for _, wh := range c.workers {
		if wh.alive {
			live = append(live, wh)
		}
	}
	return live
}

// NumWorkers reports how many workers are currently alive.
func (c *Coordinator) NumWorkers() int {
	return len(c.liveWorkers())
}

// Shutdown signals every live worker to terminate and closes their
// FIFOs.
func (c *Coordinator) Shutdown() {
	for _, wh := range c.liveWorkers() {
		c.signal.Signal(wh.pid, syscall.SIGTERM)
		wh.write.Close()
		wh.read.Close()
	}
}
