package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crawlindex/internal/coordinator"
)

// runREPL is the coordinator's interactive command loop, accepting
// "/search kw1..kw10 -d SECONDS", "/maxcount WORD", "/mincount WORD",
// "/wc", and "/exit".
func runREPL(in io.Reader, out io.Writer, coord *coordinator.Coordinator, log zerolog.Logger) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "/exit" {
			return nil
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/search":
			handleSearch(out, coord, fields[1:])
		case "/maxcount":
			handleExtremum(out, "maxcount", fields[1:], coord.MaxCount)
		case "/mincount":
			handleExtremum(out, "mincount", fields[1:], coord.MinCount)
		case "/wc":
			handleWC(out, coord)
		default:
			fmt.Fprintf(out, "unrecognized command %q\n", fields[0])
		}
	}
	return sc.Err()
}

func handleSearch(out io.Writer, coord *coordinator.Coordinator, args []string) {
	keywords, deadline := parseSearchArgs(args)
	if len(keywords) == 0 {
		fmt.Fprintln(out, "usage: /search kw1 .. kw10 -d SECONDS")
		return
	}

	outcome, err := coord.Search(keywords, deadline)
	if err != nil {
		fmt.Fprintf(out, "search failed: %v\n", err)
		return
	}
	for _, r := range outcome.Results {
		fmt.Fprintf(out, "%s : %d : %s\n", r.Path, r.Line, r.Text)
	}
	if outcome.Responded < outcome.Total {
		fmt.Fprintf(out, "Received results from %d / %d workers\n", outcome.Responded, outcome.Total)
	}
}

// parseSearchArgs splits "kw1 kw2 .. -d N" into keywords and a deadline,
// defaulting to 5 seconds when "-d" is absent.
func parseSearchArgs(args []string) ([]string, time.Duration) {
	deadline := 5 * time.Second
	var keywords []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-d" && i+1 < len(args) {
			if secs, err := strconv.Atoi(args[i+1]); err == nil && secs > 0 {
				deadline = time.Duration(secs) * time.Second
			}
			i++
			continue
		}
		keywords = append(keywords, args[i])
	}
	return keywords, deadline
}

func handleExtremum(out io.Writer, name string, args []string, fn func(string) (string, int, bool)) {
	if len(args) != 1 {
		fmt.Fprintf(out, "usage: /%s WORD\n", name)
		return
	}
	path, count, ok := fn(args[0])
	if !ok {
		fmt.Fprintln(out, "NOT_FOUND 0")
		return
	}
	fmt.Fprintf(out, "%s %d\n", path, count)
}

func handleWC(out io.Writer, coord *coordinator.Coordinator) {
	bytes, words, lines, err := coord.WC()
	if err != nil {
		fmt.Fprintf(out, "wc failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%d %d %d\n", bytes, words, lines)
}
