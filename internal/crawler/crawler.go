// Package crawler validates and normalizes the URLs that flow through the
// crawl worker pool, and extracts outbound links from a fetched page body.
//
// The crawl is scoped to a single host:port with save_dir persistence:
// link normalization is relative-to-page-directory rather than
// url.ResolveReference, and host validation scans the whole host string
// uniformly rather than comparing against a parsed URL's Hostname().
package crawler

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// HostPort identifies the single host:port the crawler is permitted to
// fetch from; every fetched URL must match it exactly.
type HostPort struct {
	Host string
	Port int
}

func (hp HostPort) String() string {
	return fmt.Sprintf("%s:%d", hp.Host, hp.Port)
}

// ValidHost reports whether every character of host is alphanumeric, '.',
// '/', or '-'. The host string is scanned uniformly, character by
// character, rather than indexed by an unrelated loop variable.
func ValidHost(host string) bool {
	if host == "" {
		return false
	}
	for _, r := range host {
		if !isHostChar(r) {
			return false
		}
	}
	return true
}

func isHostChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '/' || r == '-':
		return true
	}
	return false
}

// ValidPath reports whether every character of path is alphanumeric,
// '.', '_', '/', or '-'.
func ValidPath(path string) bool {
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '/' || r == '-':
		default:
			return false
		}
	}
	return true
}

// Dir returns the first path segment of an absolute URL path, and the
// remainder as file. A path with no further '/' (e.g. "/index.html")
// is returned whole as dir, with file empty. path must not carry a
// leading scheme/host.
func Dir(path string) (dir, file string) {
	trimmed := strings.TrimPrefix(path, "/")
	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx], trimmed[idx+1:]
}

// NormalizeLink resolves an href found on a fetched page: hrefs
// starting with '/' are absolute-within-host (baseURL + href); all
// others are relative to the current page's first-segment directory
// (baseURL + "/" + dir + "/" + href).
func NormalizeLink(baseURL, pageDir, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		return baseURL + href
	}
	return baseURL + "/" + pageDir + "/" + href
}

// ExtractLinks walks the parsed HTML tree for body and returns the raw
// href values of every <a> element in it. A body that contains "<a "
// but no "</a" anywhere, or that html.Parse rejects, is reported as an
// error so the caller can drop the URL. Closing tags are not matched
// per anchor: once any "</a" is present, an unclosed <a> (closed
// implicitly by the parser) still contributes its href.
func ExtractLinks(body []byte) ([]string, error) {
	if !bytes.Contains(body, []byte("</a")) && bytes.Contains(body, []byte("<a ")) {
		return nil, fmt.Errorf("malformed html: no closing </a> found")
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					links = append(links, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}
