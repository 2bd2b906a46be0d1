// Command myhttpd is a peripheral test HTTP server: a
// one-shot-per-connection GET/HTTP/1.1 server with no keep-alive,
// serving static files under a document root, usable as a crawl
// target for the crawler. The repository's tests do not start it; the
// pool tests serve pages with net/http/httptest instead.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"crawlindex/internal/config"
	"crawlindex/internal/crawler"
)

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
		Use:           "myhttpd",
		Short:         "Peripheral one-shot HTTP/1.1 test server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	parse := config.BindHTTPServerFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := parse()
		if err != nil {
			return err
		}
		return serve(cfg, newLogger())
	}
	return cmd
}

func serve(cfg config.HTTPServer, log zerolog.Logger) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.ServePort))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", cfg.ServePort, err)
	}
	defer ln.Close()

	sem := make(chan struct{}, cfg.NumThreads)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			handleConn(conn, cfg.RootDir, log)
		}()
	}
}

// handleConn serves exactly one GET/HTTP/1.1 request: a Host: header
// is required, and the response is one of 200/400/403/404.
func handleConn(conn net.Conn, rootDir string, log zerolog.Logger) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	r := bufio.NewReader(conn)
	requestLine, err := r.ReadString('\n')
	if err != nil {
		return
	}
	fields := strings.Fields(requestLine)
	if len(fields) != 3 || fields[0] != "GET" || fields[2] != "HTTP/1.1" {
		writeResponse(conn, 400, nil)
		return
	}
	path := fields[1]

	hasHost := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "host:") {
			hasHost = true
		}
	}
	if !hasHost {
		writeResponse(conn, 400, nil)
		return
	}

	trimmed := strings.TrimPrefix(path, "/")
	if !crawler.ValidPath(trimmed) || strings.Contains(trimmed, "..") {
		writeResponse(conn, 403, nil)
		return
	}

	body, err := os.ReadFile(filepath.Join(rootDir, trimmed))
	if err != nil {
		if os.IsPermission(err) {
			writeResponse(conn, 403, nil)
			return
		}
		writeResponse(conn, 404, nil)
		return
	}
	writeResponse(conn, 200, body)
}

var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
}

// writeResponse emits the response headers, including the literal
// "Connection: Closed" (deliberately not the standard lowercase
// "close") every reply carries since no connection is ever kept alive.
func writeResponse(w net.Conn, status int, body []byte) {
	fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", status, statusText[status])
	fmt.Fprintf(w, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123))
	fmt.Fprintf(w, "Server: myhttpd\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n", len(body))
	fmt.Fprintf(w, "Content-Type: text/html\r\n")
	fmt.Fprintf(w, "Connection: Closed\r\n\r\n")
	w.Write(body)
}
