// Package tokenize implements the text-extraction pass each indexer
// worker runs over a saved page before indexing it: strip HTML tags,
// then split on whitespace into words.
package tokenize

import "strings"

// StripTags removes every substring delimited by '<' and '>' from
// line: a '<' with no matching '>' before the end of the line consumes
// the rest of the line. Tags never span lines in this scheme, since
// input is always processed one line at a time.
func StripTags(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	i := 0
	for i < len(line) {
		if line[i] == '<' {
			for i < len(line) && line[i] != '>' {
				i++
			}
			if i < len(line) {
				i++ // skip the '>'
			}
			continue
		}
		b.WriteByte(line[i])
		i++
	}
	return b.String()
}

// Words splits a tag-stripped line into whitespace-separated words,
// matching strtok(line, " \t\n")'s behavior of collapsing runs of
// separators and producing no empty tokens.
func Words(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
}

// Lines splits file content into its lines, one per slot, stripped of
// HTML tags and the trailing newline, so SEARCH results can later
// quote the exact source line text.
func Lines(content string) []string {
	raw := strings.Split(content, "\n")
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = StripTags(l)
	}
	return lines
}

// IsBlank reports whether line contains only whitespace, matching the
// original's isblank-only-line skip (words are never indexed from a
// blank line, but the line itself is still stored for SEARCH output).
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
