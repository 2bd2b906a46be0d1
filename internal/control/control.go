// Package control implements the crawler's command-socket control
// plane: a one-shot-per-connection, line-oriented TCP protocol serving
// STATS/SEARCH/SHUTDOWN.
package control

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crawlindex/internal/bridge"
	"crawlindex/internal/pool"
)

const (
	connDeadline  = 5 * time.Second
	searchTimeout = 5 * time.Second
	maxKeywords   = 10
)

// Launcher forks and wires up the indexer once crawling completes. It
// is called at most once per Server.
type Launcher func(ctx context.Context) (*bridge.Bridge, error)

// Server is the crawler's control-socket listener. It tracks crawl
// progress via pool, lazily launches the indexer on first observing
// pool.Done(), and proxies SEARCH to the indexer bridge once it is up.
type Server struct {
	pool   *pool.Pool
	launch Launcher
	log    zerolog.Logger

	mu sync.Mutex
	br *bridge.Bridge
}

// New constructs a control-plane Server.
func New(p *pool.Pool, launch Launcher, log zerolog.Logger) *Server {
	return &Server{pool: p, launch: launch, log: log}
}

// Serve listens on addr and accepts connections until ctx is canceled.
// Each connection is handled in its own goroutine and closed after a
// single command.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("control: listening on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("control: accept: %w", err)
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}
	reply := s.dispatch(ctx, strings.TrimSpace(line))
	conn.Write([]byte(reply))
}

func (s *Server) dispatch(ctx context.Context, line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	switch fields[0] {
	case "STATS":
		return s.stats()
	case "SEARCH":
		return s.search(ctx, fields[1:])
	case "SHUTDOWN":
		s.log.Info().Msg("shutdown requested over control socket")
		return "\n*** CRAWLER SHUTTING DOWN ***\n"
	default:
		return "\nUNKNOWN COMMAND\n"
	}
}

// stats formats the uptime and download counters as
// "Crawler up for HH:MM:SS.mmm, downloaded P pages, B bytes".
func (s *Server) stats() string {
	up := s.pool.Uptime()
	st := s.pool.Stats()
	return fmt.Sprintf("Crawler up for %s, downloaded %d pages, %d bytes\n",
		formatDuration(up), st.PagesDownloaded, st.BytesDownloaded)
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	sec := ms / 1000
	ms -= sec * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, sec, ms)
}

// search requires crawling to be complete and the indexer bridge to be
// up, lazily launching the bridge on the first call to observe
// pool.Done().
func (s *Server) search(ctx context.Context, keywords []string) string {
	if !s.pool.Done() {
		return "\nCRAWLING IN PROGRESS\n"
	}
	if len(keywords) == 0 || len(keywords) > maxKeywords {
		return "\nUNKNOWN COMMAND\n"
	}

	br, err := s.ensureIndexer(ctx)
	if err != nil || br == nil {
		return "\nJOB EXECUTOR NOT READY YET\n"
	}

	lines, err := br.Search(keywords, searchTimeout)
	if err != nil {
		s.log.Warn().Err(err).Msg("search proxy failed")
		return "\nJOB EXECUTOR NOT READY YET\n"
	}
	return strings.Join(lines, "\n") + "\n"
}

func (s *Server) ensureIndexer(ctx context.Context) (*bridge.Bridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.br != nil {
		return s.br, nil
	}

	br, err := s.launch(ctx)
	if err != nil {
		return nil, err
	}
	s.br = br
	return br, nil
}
