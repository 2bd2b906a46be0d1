// Command crawler is the crawler's entry point: it fetches a single
// host starting from a seed URL with a fixed worker pool, persists
// pages and the docfile under save_dir, and serves a TCP control socket
// for STATS/SEARCH/SHUTDOWN.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"crawlindex/internal/bridge"
	"crawlindex/internal/control"
	"crawlindex/internal/crawler"
	"crawlindex/internal/crawlstore"
	"crawlindex/internal/fetcher"
	"crawlindex/internal/frontier"
	"crawlindex/internal/pool"

	"crawlindex/internal/config"
)

const fetchTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crawler SEED_URL",
		Short:         "Single-host web crawler with a TCP control socket",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	parse := config.BindCrawlerFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := parse(args[0])
		if err != nil {
			return err
		}
		return runCrawler(cfg)
	}
	return cmd
}

func runCrawler(cfg config.Crawler) error {
	log := newLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hostPort := crawler.HostPort{Host: cfg.Host, Port: cfg.ServePort}
	docfilePath := filepath.Join(cfg.SaveDir, "docfile.txt")

	store, err := crawlstore.New(cfg.SaveDir, docfilePath)
	if err != nil {
		return fmt.Errorf("opening crawl store: %w", err)
	}
	defer store.Close()

	p := pool.New(pool.Config{
		Frontier: frontier.New(),
		Fetcher:  fetcher.New(hostPort.String(), fetchTimeout),
		Store:    store,
		Host:     hostPort,
		Workers:  cfg.NumThreads,
		Logger:   log,
	})

	launch := func(ctx context.Context) (*bridge.Bridge, error) {
		self, err := os.Executable()
		if err != nil {
			return nil, err
		}
		jobExecutorPath := filepath.Join(filepath.Dir(self), "jobexecutor")
		return bridge.Launch(jobExecutorPath, docfilePath, cfg.NumThreads, cfg.SaveDir, 5*time.Second)
	}
	ctrl := control.New(p, launch, log)

	errCh := make(chan error, 2)
	go func() {
		errCh <- p.Run(ctx, cfg.SeedURL)
	}()
	go func() {
		errCh <- ctrl.Serve(ctx, fmt.Sprintf(":%d", cfg.ControlPort))
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
