// Package bridge implements the crawler's side of the
// crawler-to-indexer handoff: once crawling finishes, the crawler forks
// the indexer binary, wires its stdin/stdout through anonymous pipes,
// and proxies SEARCH queries to it as the indexer's own line-oriented
// REPL protocol.
package bridge

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Bridge owns a running indexer subprocess and proxies SEARCH queries
// to it over stdin/stdout.
type Bridge struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}
}

// Launch forks the indexer binary at path with the given docfile and
// worker count, in workDir, and drains its startup chatter for
// startupWait (returning earlier only if the indexer's output closes):
// whatever the indexer prints in that window is consumed so it never
// shows up mixed into a later SEARCH reply.
func Launch(path, docfilePath string, numWorkers int, workDir string, startupWait time.Duration) (*Bridge, error) {
	cmd := exec.Command(path, "-d", docfilePath, "-w", strconv.Itoa(numWorkers))
	cmd.Dir = workDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("bridge: starting indexer: %w", err)
	}

	b := &Bridge{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 256),
		done:  make(chan struct{}),
	}
	go b.readLoop(stdout)
	b.drain(startupWait)
	return b, nil
}

// PID returns the indexer subprocess's PID, for SIGCHLD-equivalent
// supervision by the caller.
func (b *Bridge) PID() int {
	return b.cmd.Process.Pid
}

// Wait blocks until the indexer subprocess exits.
func (b *Bridge) Wait() error {
	return b.cmd.Wait()
}

func (b *Bridge) readLoop(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case b.lines <- sc.Text():
		case <-b.done:
			return
		}
	}
	close(b.lines)
}

// drain collects every line that arrives on the line channel until
// timeout elapses or the channel closes, and returns the collected
// lines. It does not return early when output pauses: while the
// indexer is running it always waits the full timeout. It is used for
// both the initial startup chatter (which Launch discards) and search
// results, which have no explicit terminator in the indexer's REPL
// output.
func (b *Bridge) drain(timeout time.Duration) []string {
	var collected []string
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case line, ok := <-b.lines:
			if !ok {
				return collected
			}
			collected = append(collected, line)
		case <-deadline.C:
			return collected
		}
	}
}

// Search formats and sends a SEARCH query to the indexer as
// "/search kw... -d N\n", where N is deadline in whole seconds (at
// least 1), and returns whatever the indexer prints back
// within deadline (plus a small grace window for the indexer's own
// formatting/flush).
func (b *Bridge) Search(keywords []string, deadline time.Duration) ([]string, error) {
	deadlineSecs := int(deadline.Seconds())
	if deadlineSecs < 1 {
		deadlineSecs = 1
	}
	line := fmt.Sprintf("/search %s -d %d\n", strings.Join(keywords, " "), deadlineSecs)
	if _, err := b.stdin.Write([]byte(line)); err != nil {
		return nil, fmt.Errorf("bridge: writing search query: %w", err)
	}
	return b.drain(deadline + 2*time.Second), nil
}

// Close tells the indexer to exit and releases the subprocess.
func (b *Bridge) Close() error {
	b.stdin.Write([]byte("/exit\n"))
	close(b.done)
	return b.cmd.Wait()
}
