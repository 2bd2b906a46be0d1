package indexworker

import (
	"fmt"
	"sync/atomic"
	"time"

	"crawlindex/internal/frame"
	"crawlindex/internal/trie"
)

// Worker answers SEARCH/MAXCOUNT/MINCOUNT/WC commands against a single
// Index, maintaining the keyword audit list and writing the audit log.
type Worker struct {
	idx      *Index
	keywords *keywordAudit
	audit    *auditLog

	// delay artificially slows Search, for exercising the deadline path
	// in tests where a worker is forced to run long enough for the
	// coordinator's SEARCH deadline to fire. Zero in production use.
	delay time.Duration
}

// NewWorker builds a Worker around idx, logging to the audit log at
// logPath (created/truncated).
func NewWorker(idx *Index, logPath string) (*Worker, error) {
	audit, err := openAuditLog(logPath)
	if err != nil {
		return nil, err
	}
	return &Worker{idx: idx, keywords: newKeywordAudit(), audit: audit}, nil
}

// SetDelay configures an artificial pre-assembly delay for Search, used
// by tests to exercise the deadline-exceeded path.
func (w *Worker) SetDelay(d time.Duration) {
	w.delay = d
}

// Close releases the audit log.
func (w *Worker) Close() error {
	return w.audit.Close()
}

// MatchedKeywords returns the sorted set of keywords this worker has
// matched at least once, across every SEARCH processed so far.
func (w *Worker) MatchedKeywords() []string {
	return w.keywords.words()
}

// Handle dispatches one command frame's records (cmd[0] is the command
// tag) and returns the response records to send back over the frame
// channel. Handle never blocks past any I/O the command needs.
func (w *Worker) Handle(cmd []string) []string {
	if len(cmd) == 0 {
		return nil
	}
	switch cmd[0] {
	case "CMD:SEARCH":
		return w.Search(cmd[1:])
	case "CMD:MAXCOUNT":
		if len(cmd) < 2 {
			return nil
		}
		return []string{w.extremum("maxcount", cmd[1], trie.MaxCount)}
	case "CMD:MINCOUNT":
		if len(cmd) < 2 {
			return nil
		}
		return []string{w.extremum("mincount", cmd[1], trie.MinCount)}
	case "CMD:WC":
		return []string{w.WC()}
	default:
		return nil
	}
}

// Search answers a multi-keyword SEARCH, without deadline handling —
// SearchWithDeadline wraps this with the signal-checked preemption
// window the event loop needs.
func (w *Worker) Search(keywords []string) []string {
	lists := make([]*trie.PostingsList, 0, len(keywords))
	for _, kw := range keywords {
		pl := w.idx.Lookup(kw)
		if pl != nil {
			w.keywords.add(kw)
		}
		w.audit.search(kw, postingsPaths(pl))
		lists = append(lists, pl)
	}

	merged := trie.Merge(lists)
	if merged == nil {
		return nil
	}

	var records []string
	for _, path := range merged.Paths() {
		fi, _ := merged.Get(path)
		lines, _ := w.idx.Lines(path)
		for _, lineIdx := range fi.Lines {
			text := ""
			if lineIdx < len(lines) {
				text = lines[lineIdx]
			}
			records = append(records, fmt.Sprintf("%s%c%d%c%s", path, frame.SearchSep, lineIdx+1, frame.SearchSep, text))
		}
	}
	return records
}

// SearchWithDeadline runs Search but yields an empty result if
// deadlineFired is non-zero either before or immediately after
// assembly: once the signal has arrived, the worker sends an empty
// payload instead of the full result rather than reply after its
// deadline has passed. deadlineFired is cleared (consumed) by whichever
// check observes it.
func (w *Worker) SearchWithDeadline(keywords []string, deadlineFired *int32) []string {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	if atomic.CompareAndSwapInt32(deadlineFired, 1, 0) {
		return nil
	}

	records := w.Search(keywords)

	if atomic.CompareAndSwapInt32(deadlineFired, 1, 0) {
		return nil
	}
	return records
}

func (w *Worker) extremum(op, word string, which int) string {
	pl := w.idx.Lookup(word)
	path, count, ok := trie.MaxMinCount(pl, which)
	if !ok {
		w.audit.extremum(op, word, "")
		return "NOT_FOUND 0"
	}
	w.audit.extremum(op, word, path)
	return fmt.Sprintf("%s %d", path, count)
}

// WC answers CMD:WC with the shard's totals.
func (w *Worker) WC() string {
	bytes, words, lines := w.idx.Totals()
	w.audit.wc(bytes, words, lines)
	return fmt.Sprintf("%d %d %d", bytes, words, lines)
}

func postingsPaths(pl *trie.PostingsList) []string {
	if pl == nil {
		return nil
	}
	return pl.Paths()
}
