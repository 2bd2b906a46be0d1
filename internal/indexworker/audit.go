package indexworker

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// auditLog appends timestamped lines to a worker's log file (one per
// keyword for SEARCH, one per MAXCOUNT/MINCOUNT/WC command), buffered
// and flushed after each record.
type auditLog struct {
	f *os.File
	w *bufio.Writer
}

// openAuditLog creates (truncating) the audit log file at path.
func openAuditLog(path string) (*auditLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating audit log %q: %w", path, err)
	}
	return &auditLog{f: f, w: bufio.NewWriter(f)}, nil
}

// escapeColons replaces ':' with " C " so a keyword containing a colon
// cannot be confused with the log's own " : " field separator.
func escapeColons(s string) string {
	return strings.ReplaceAll(s, ":", " C ")
}

// record appends one "timestamp : msg" line and flushes immediately.
func (a *auditLog) record(msg string) error {
	ts := strings.ReplaceAll(time.Now().Format(time.ANSIC), ":", ";")
	if _, err := fmt.Fprintf(a.w, "%s : %s\n", ts, msg); err != nil {
		return err
	}
	return a.w.Flush()
}

func (a *auditLog) search(keyword string, paths []string) error {
	kw := escapeColons(keyword)
	if len(paths) == 0 {
		return a.record(fmt.Sprintf("search : %s : ", kw))
	}
	return a.record(fmt.Sprintf("search : %s : %s", kw, strings.Join(paths, " ")))
}

func (a *auditLog) extremum(op, keyword, path string) error {
	kw := escapeColons(keyword)
	if path == "" {
		return a.record(fmt.Sprintf("%s : %s : ", op, kw))
	}
	return a.record(fmt.Sprintf("%s : %s : %s", op, kw, path))
}

func (a *auditLog) wc(bytes, words, lines int) error {
	return a.record(fmt.Sprintf("wc : %d : %d : %d", bytes, words, lines))
}

func (a *auditLog) Close() error {
	if err := a.w.Flush(); err != nil {
		a.f.Close()
		return err
	}
	return a.f.Close()
}
