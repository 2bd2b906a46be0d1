// Package config builds the flag/env configuration shared by the
// three binaries (crawler, jobexecutor, myhttpd), layering
// github.com/spf13/viper over github.com/spf13/pflag-bound flags so the
// same settings can come from flags or a CRAWLINDEX_* environment
// prefix. No config file is read.
package config

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"crawlindex/internal/crawler"
)

// newViper returns a viper instance bound to flags, reading
// CRAWLINDEX_*-prefixed environment variables as overrides.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}
	return v, nil
}

// Crawler is the crawler CLI's configuration: host, serve port, control
// port, thread count, save directory, and seed URL.
type Crawler struct {
	Host       string
	ServePort  int
	ControlPort int
	NumThreads int
	SaveDir    string
	SeedURL    string
}

// BindCrawlerFlags registers the crawler's flags on flags and returns a
// function that validates and returns the parsed Crawler config.
func BindCrawlerFlags(flags *pflag.FlagSet) func(seedURL string) (Crawler, error) {
	flags.StringP("host", "h", "", "target host (alphanumeric, '.', '/', '-')")
	flags.IntP("port", "p", 0, "server port")
	flags.IntP("cport", "c", 0, "control port")
	flags.IntP("threads", "t", 0, "number of crawl worker threads")
	flags.StringP("dir", "d", "", "save directory (must exist and be rwx)")

	return func(seedURL string) (Crawler, error) {
		v, err := newViper(flags)
		if err != nil {
			return Crawler{}, err
		}
		cfg := Crawler{
			Host:        v.GetString("host"),
			ServePort:   v.GetInt("port"),
			ControlPort: v.GetInt("cport"),
			NumThreads:  v.GetInt("threads"),
			SaveDir:     v.GetString("dir"),
			SeedURL:     seedURL,
		}
		return cfg, cfg.Validate()
	}
}

// Validate enforces the crawler CLI's constraints.
func (c Crawler) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if !crawler.ValidHost(c.Host) {
		return fmt.Errorf("host %q contains an invalid character", c.Host)
	}
	if err := validPort(c.ServePort); err != nil {
		return errors.Wrap(err, "port")
	}
	if err := validPort(c.ControlPort); err != nil {
		return errors.Wrap(err, "cport")
	}
	if c.NumThreads <= 0 {
		return errors.New("threads must be a positive integer")
	}
	if c.SaveDir == "" {
		return errors.New("dir is required")
	}
	info, err := os.Stat(c.SaveDir)
	if err != nil {
		return errors.Wrapf(err, "save dir %q", c.SaveDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("save dir %q is not a directory", c.SaveDir)
	}
	if err := syscall.Access(c.SaveDir, 0x7); err != nil { // R_OK|W_OK|X_OK
		return errors.Wrapf(err, "save dir %q is not rwx", c.SaveDir)
	}
	return nil
}

func validPort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range [1,65535]", p)
	}
	return nil
}

// HTTPServer is myhttpd's configuration: serve port, control port,
// thread count, and document root.
type HTTPServer struct {
	ServePort   int
	ControlPort int
	NumThreads  int
	RootDir     string
}

// BindHTTPServerFlags registers myhttpd's flags.
func BindHTTPServerFlags(flags *pflag.FlagSet) func() (HTTPServer, error) {
	flags.IntP("port", "p", 0, "server port")
	flags.IntP("cport", "c", 0, "control port")
	flags.IntP("threads", "t", 0, "number of worker threads")
	flags.StringP("dir", "d", "", "document root directory")

	return func() (HTTPServer, error) {
		v, err := newViper(flags)
		if err != nil {
			return HTTPServer{}, err
		}
		cfg := HTTPServer{
			ServePort:   v.GetInt("port"),
			ControlPort: v.GetInt("cport"),
			NumThreads:  v.GetInt("threads"),
			RootDir:     v.GetString("dir"),
		}
		return cfg, cfg.Validate()
	}
}

// Validate enforces myhttpd's CLI constraints.
func (h HTTPServer) Validate() error {
	if err := validPort(h.ServePort); err != nil {
		return errors.Wrap(err, "port")
	}
	if err := validPort(h.ControlPort); err != nil {
		return errors.Wrap(err, "cport")
	}
	if h.NumThreads <= 0 {
		return errors.New("threads must be a positive integer")
	}
	if h.RootDir == "" {
		return errors.New("dir is required")
	}
	return nil
}

// JobExecutor is the indexer's configuration: docfile path and worker
// count. Flags may appear in either order, which cobra/pflag already
// accept regardless of registration order.
type JobExecutor struct {
	DocfilePath string
	NumWorkers  int
}

// BindJobExecutorFlags registers jobexecutor's flags.
func BindJobExecutorFlags(flags *pflag.FlagSet) func() (JobExecutor, error) {
	flags.StringP("docfile", "d", "", "path to the crawler's docfile")
	flags.IntP("workers", "w", 0, "number of worker processes")

	return func() (JobExecutor, error) {
		v, err := newViper(flags)
		if err != nil {
			return JobExecutor{}, err
		}
		cfg := JobExecutor{
			DocfilePath: v.GetString("docfile"),
			NumWorkers:  v.GetInt("workers"),
		}
		return cfg, cfg.Validate()
	}
}

// Validate enforces jobexecutor's CLI constraints.
func (j JobExecutor) Validate() error {
	if j.NumWorkers <= 0 {
		return errors.New("workers must be a positive integer")
	}
	info, err := os.Stat(j.DocfilePath)
	if err != nil {
		return errors.Wrapf(err, "docfile %q", j.DocfilePath)
	}
	if info.IsDir() {
		return fmt.Errorf("docfile %q is a directory", j.DocfilePath)
	}
	return nil
}
