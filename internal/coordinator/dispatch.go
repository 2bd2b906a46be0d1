package coordinator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"
	"time"

	"crawlindex/internal/frame"
)

// SearchResult is one line the coordinator prints for a SEARCH command.
type SearchResult struct {
	Path string
	Line int
	Text string
}

// SearchOutcome is the aggregated result of one SEARCH dispatch,
// including how many of the live workers actually replied in time so
// callers can report partial coverage ("Received results from K / N
// workers").
type SearchOutcome struct {
	Results   []SearchResult
	Responded int
	Total     int
	TimedOut  bool
}

type workerResponse struct {
	wh    *workerHandle
	lines []string
	err   error
}

// dispatchCommand sends records to every live worker as a single
// transmission, then signals SIGUSR1, and returns the live worker set
// plus the dispatch timestamp (used for the restart discriminator).
func (c *Coordinator) dispatchCommand(records []string) ([]*workerHandle, time.Time, error) {
	live := c.liveWorkers()
	queryTime := time.Now()

	for _, wh := range live {
		write, _, _ := c.workerIO(wh)
		if err := frame.NewWriter(write).SendAll(records); err != nil {
			return nil, queryTime, fmt.Errorf("sending command to worker %d: %w", wh.id, err)
		}
	}
	for _, wh := range live {
		_, _, pid := c.workerIO(wh)
		if err := c.signal.Signal(pid, syscall.SIGUSR1); err != nil {
			c.log.Warn().Int("worker", wh.id).Err(err).Msg("failed to signal worker")
		}
	}
	return live, queryTime, nil
}

// collect fans in each live worker's single response frame, forwarding
// every response (errors included) on the returned channel. Callers
// drop any response from a worker that was restarted after queryTime
// (so a stale reply from a process that already crashed and restarted
// can't be mistaken for an answer to the current query) and any
// peer_closed error (worker died between being signaled and responding).
func (c *Coordinator) collect(live []*workerHandle, queryTime time.Time) <-chan workerResponse {
	ch := make(chan workerResponse, len(live))
	for _, wh := range live {
		wh := wh
		_, read, _ := c.workerIO(wh)
		go func() {
			lines, err := frame.NewReader(read).Recv()
			ch <- workerResponse{wh: wh, lines: lines, err: err}
		}()
	}
	return ch
}

func (c *Coordinator) isStale(wh *workerHandle, queryTime time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wh.restartTime.After(queryTime)
}

// Search dispatches CMD:SEARCH with keywords to every live worker and
// aggregates results until either every worker has replied or deadline
// elapses, at which point stragglers are told (via SIGUSR2) to send an
// empty frame on their next reply and the loop reports partial results.
func (c *Coordinator) Search(keywords []string, deadline time.Duration) (SearchOutcome, error) {
	records := append([]string{"CMD:SEARCH"}, keywords...)
	live, queryTime, err := c.dispatchCommand(records)
	if err != nil {
		return SearchOutcome{}, err
	}

	out := SearchOutcome{Total: len(live)}
	if len(live) == 0 {
		return out, nil
	}

	ch := c.collect(live, queryTime)
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	replied := make(map[*workerHandle]bool, len(live))
	pending := len(live)
	for pending > 0 {
		select {
		case r := <-ch:
			pending--
			replied[r.wh] = true
			if c.isStale(r.wh, queryTime) || errors.Is(r.err, frame.ErrPeerClosed) || r.err != nil {
				continue
			}
			out.Responded++
			out.Results = append(out.Results, parseSearchLines(r.lines)...)

		case <-timer.C:
			out.TimedOut = true
			for _, wh := range live {
				if replied[wh] {
					continue
				}
				_, _, pid := c.workerIO(wh)
				c.signal.Signal(pid, syscall.SIGUSR2)
			}
			return out, nil
		}
	}
	return out, nil
}

func parseSearchLines(lines []string) []SearchResult {
	results := make([]SearchResult, 0, len(lines))
	for _, l := range lines {
		parts := strings.SplitN(l, string(frame.SearchSep), 3)
		if len(parts) != 3 {
			continue
		}
		lineNo, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		results = append(results, SearchResult{Path: parts[0], Line: lineNo, Text: parts[2]})
	}
	return results
}

// extremumOp describes which global aggregation MaxCount/MinCount run.
type extremumOp int

const (
	opMax extremumOp = iota
	opMin
)

// MaxCount returns the global argmax of fileFrequency for word across
// every live worker's shard, tie-broken lexicographically on path.
func (c *Coordinator) MaxCount(word string) (path string, count int, ok bool) {
	return c.extremum("CMD:MAXCOUNT", word, opMax)
}

// MinCount is MaxCount's counterpart for the global argmin.
func (c *Coordinator) MinCount(word string) (path string, count int, ok bool) {
	return c.extremum("CMD:MINCOUNT", word, opMin)
}

func (c *Coordinator) extremum(tag, word string, op extremumOp) (string, int, bool) {
	live, queryTime, err := c.dispatchCommand([]string{tag, word})
	if err != nil || len(live) == 0 {
		return "", 0, false
	}

	ch := c.collect(live, queryTime)
	bestPath, bestCount := "", 0
	found := false

	for i := 0; i < len(live); i++ {
		r := <-ch
		if c.isStale(r.wh, queryTime) || errors.Is(r.err, frame.ErrPeerClosed) || r.err != nil || len(r.lines) == 0 {
			continue
		}
		path, count, ok := parseExtremumLine(r.lines[0])
		if !ok {
			continue
		}
		if !found {
			bestPath, bestCount, found = path, count, true
			continue
		}
		switch {
		case op == opMax && count > bestCount:
			bestPath, bestCount = path, count
		case op == opMin && count < bestCount:
			bestPath, bestCount = path, count
		case count == bestCount && path < bestPath:
			bestPath = path
		}
	}
	return bestPath, bestCount, found
}

func parseExtremumLine(line string) (path string, count int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, false
	}
	if fields[0] == "NOT_FOUND" {
		return "", 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, false
	}
	return fields[0], n, true
}

// WC sums each live worker's {bytes, words, lines} totals.
func (c *Coordinator) WC() (bytes, words, lines int, err error) {
	live, queryTime, err := c.dispatchCommand([]string{"CMD:WC"})
	if err != nil {
		return 0, 0, 0, err
	}
	if len(live) == 0 {
		return 0, 0, 0, nil
	}

	ch := c.collect(live, queryTime)
	for i := 0; i < len(live); i++ {
		r := <-ch
		if c.isStale(r.wh, queryTime) || errors.Is(r.err, frame.ErrPeerClosed) || r.err != nil || len(r.lines) == 0 {
			continue
		}
		var b, w, l int
		if _, err := fmt.Sscanf(r.lines[0], "%d %d %d", &b, &w, &l); err != nil {
			continue
		}
		bytes += b
		words += w
		lines += l
	}
	return bytes, words, lines, nil
}
