// Package frontier implements the crawler's URL frontier: an unbounded
// FIFO queue of pending URLs backed by a companion visited-set that
// deduplicates on insert and survives the frontier draining.
package frontier

import "sync"

// Frontier is the crawler's URL work queue. Push
// enqueues a URL iff the visited-set has not already accepted it; Pop
// blocks until a URL is available. The queue lock is the outermost lock
// in this package — the visited-set has its own mutex so link
// extraction can probe membership without holding the queue lock.
type Frontier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []string

	seenMu sync.Mutex
	seen   map[string]struct{}
}

// New returns an empty Frontier.
func New() *Frontier {
	f := &Frontier{
		queue: make([]string, 0, 64),
		seen:  make(map[string]struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push enqueues url unless it has already been seen. Returns true if the
// URL was newly accepted into the frontier.
func (f *Frontier) Push(url string) bool {
	if !f.markSeen(url) {
		return false
	}
	f.mu.Lock()
	f.queue = append(f.queue, url)
	f.mu.Unlock()
	f.cond.Signal()
	return true
}

// markSeen atomically tests-and-sets membership in the visited-set.
func (f *Frontier) markSeen(url string) bool {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()
	if _, ok := f.seen[url]; ok {
		return false
	}
	f.seen[url] = struct{}{}
	return true
}

// Contains reports whether url has ever been enqueued.
func (f *Frontier) Contains(url string) bool {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()
	_, ok := f.seen[url]
	return ok
}

// Len reports the number of URLs currently pending in the frontier.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Empty reports whether the frontier currently holds no pending URLs.
func (f *Frontier) Empty() bool {
	return f.Len() == 0
}

// Pop blocks until a URL is available or stopped becomes true (checked
// under the frontier lock, so a shutdown broadcast is never missed
// between the check and the wait). It returns ok=false once stopped and
// the queue has drained.
func (f *Frontier) Pop(stopped func() bool) (url string, ok bool) {
	return f.PopLocked(stopped, nil)
}

// PopLocked behaves like Pop, but additionally invokes onPop (if
// non-nil) before releasing the frontier lock. Callers use this to
// increment an "in progress" counter in the same critical section as
// the pop, so the counter can never be observed as zero between a URL
// leaving the queue and the pool noticing it is in flight. The
// frontier lock is the outermost lock in this codebase, so onPop
// acquiring a leaf lock here is safe.
func (f *Frontier) PopLocked(stopped func() bool, onPop func()) (url string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 {
		if stopped() {
			return "", false
		}
		f.cond.Wait()
	}
	url, f.queue = f.queue[0], f.queue[1:]
	if onPop != nil {
		onPop()
	}
	return url, true
}

// Broadcast wakes every goroutine blocked in Pop, used by the pool to
// make a shutdown decision visible to all workers at once.
func (f *Frontier) Broadcast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cond.Broadcast()
}
