// Package pool implements the crawl worker pool: a fixed thread pool
// consuming the frontier, and the termination-detection predicate
// ("last finisher wins") that decides when the crawl is complete.
package pool

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"crawlindex/internal/crawler"
	"crawlindex/internal/crawlstore"
	"crawlindex/internal/fetcher"
	"crawlindex/internal/frontier"
)

// Stats are the counters the control plane's STATS command reports.
type Stats struct {
	PagesDownloaded int
	BytesDownloaded int64
}

// Pool runs a fixed-size set of crawl workers against a single host.
type Pool struct {
	front    *frontier.Frontier
	fetch    *fetcher.Fetcher
	store    *crawlstore.Store
	host     crawler.HostPort
	workers  int
	log      zerolog.Logger
	start    time.Time

	statsMu sync.Mutex
	stats   Stats

	stateMu    sync.Mutex
	inProgress int
	stopped    bool
}

// Config bundles Pool's dependencies.
type Config struct {
	Frontier *frontier.Frontier
	Fetcher  *fetcher.Fetcher
	Store    *crawlstore.Store
	Host     crawler.HostPort
	Workers  int
	Logger   zerolog.Logger
}

// New constructs a Pool from cfg.
func New(cfg Config) *Pool {
	return &Pool{
		front:   cfg.Frontier,
		fetch:   cfg.Fetcher,
		store:   cfg.Store,
		host:    cfg.Host,
		workers: cfg.Workers,
		log:     cfg.Logger,
	}
}

// Run seeds the frontier with seedURL and blocks until every worker has
// observed termination.
func (p *Pool) Run(ctx context.Context, seedURL string) error {
	p.start = time.Now()
	p.front.Push(seedURL)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			p.worker(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) isStopped() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.stopped
}

// Uptime reports how long the pool has been running.
func (p *Pool) Uptime() time.Duration {
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

// Stats returns a snapshot of the download counters.
func (p *Pool) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// Done reports whether crawling has finished (stop flag observed).
func (p *Pool) Done() bool {
	return p.isStopped()
}

// worker is one pool thread's fetch-parse-enqueue-persist loop.
func (p *Pool) worker(ctx context.Context, id int) {
	for {
		rawURL, ok := p.front.PopLocked(p.isStopped, func() {
			p.stateMu.Lock()
			p.inProgress++
			p.stateMu.Unlock()
		})
		if !ok {
			return
		}

		pushedAny := p.processURL(ctx, rawURL)
		p.log.Debug().Int("worker", id).Str("url", rawURL).Msg("processed url")
		p.finishURL(pushedAny)

		if p.isStopped() {
			return
		}
	}
}

// processURL fetches url, persists it, and pushes any newly discovered
// links back into the frontier. It reports whether any new URL was
// actually accepted by the frontier (used by the termination check).
func (p *Pool) processURL(ctx context.Context, rawURL string) (pushedAny bool) {
	res, err := p.fetch.Get(ctx, rawURL)
	if err != nil {
		p.log.Warn().Err(err).Str("url", rawURL).Msg("fetch failed, dropping url")
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		p.log.Warn().Err(err).Str("url", rawURL).Msg("unparseable url, dropping")
		return false
	}
	relPath := strings.TrimPrefix(parsed.Path, "/")
	dir, _ := crawler.Dir(parsed.Path)

	if err := p.store.SavePage(relPath, res.Body); err != nil {
		p.log.Warn().Err(err).Str("url", rawURL).Msg("persisting page failed")
		return false
	}

	links, err := crawler.ExtractLinks(res.Body)
	if err != nil {
		p.log.Warn().Err(err).Str("url", rawURL).Msg("malformed html, links skipped")
	}

	baseURL := "http://" + p.host.String()
	for _, href := range links {
		normalized := crawler.NormalizeLink(baseURL, dir, href)
		if normalized == "" {
			continue
		}
		if p.front.Push(normalized) {
			pushedAny = true
		}
	}

	p.statsMu.Lock()
	p.stats.PagesDownloaded++
	p.stats.BytesDownloaded += int64(res.Bytes)
	p.statsMu.Unlock()

	return pushedAny
}

// finishURL implements the termination-detection predicate: the worker
// that both pushes nothing new and is the last one in flight, with an
// empty frontier, declares crawling finished.
func (p *Pool) finishURL(pushedAny bool) {
	p.stateMu.Lock()
	p.inProgress--
	lastFinisher := p.inProgress == 0
	p.stateMu.Unlock()

	if !pushedAny && lastFinisher && p.front.Empty() {
		p.stateMu.Lock()
		alreadyStopped := p.stopped
		p.stopped = true
		p.stateMu.Unlock()
		if !alreadyStopped {
			p.log.Info().Msg("crawl termination detected")
		}
		// Go's sync.Cond.Broadcast wakes every goroutine already
		// blocked in Pop; unlike the pthread original this needs no
		// sentinel URL push to guarantee delivery.
		p.front.Broadcast()
	}
}
