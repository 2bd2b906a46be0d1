// Package fetcher performs the single-host HTTP GET that drives the
// crawl pipeline. Byte-level HTTP/1.1 parsing is out of scope here, so
// this package is a thin wrapper over net/http.Client with keep-alive
// disabled (the crawler never pipelines or reuses connections) plus a
// mandatory Content-Length check.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Result is a successfully fetched page body.
type Result struct {
	StatusCode int
	Body       []byte
	Bytes      int
}

// Fetcher issues one-shot GET requests against a single configured host.
type Fetcher struct {
	client *http.Client
	host   string // sent as the Host header on every request
}

// New returns a Fetcher bound to hostHeader (e.g. "example.com:8080")
// with the given per-request timeout. Connections are never reused
// across requests.
func New(hostHeader string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		host: hostHeader,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// Get fetches url. A 200 response is required, and a positive
// Content-Length header is mandatory — its absence or a non-positive
// value aborts the fetch, since a missing Content-Length is treated as
// a protocol violation rather than something to infer via EOF.
func (f *Fetcher) Get(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Host = f.host
	req.Close = true

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("non-200 status for %s: %d", url, resp.StatusCode)
	}

	clHeader := resp.Header.Get("Content-Length")
	length, err := strconv.Atoi(clHeader)
	if err != nil || length <= 0 {
		return Result{}, fmt.Errorf("missing or non-positive Content-Length for %s", url)
	}

	body := make([]byte, length)
	n, err := io.ReadFull(resp.Body, body)
	if err != nil {
		return Result{}, fmt.Errorf("reading body for %s: %w", url, err)
	}

	return Result{StatusCode: resp.StatusCode, Body: body[:n], Bytes: n}, nil
}
