// Package indexworker implements the indexer worker process: the
// in-memory index over one directory shard, the command handlers for
// SEARCH/MAXCOUNT/MINCOUNT/WC, the keyword audit list, and the
// signal-driven event loop.
package indexworker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"crawlindex/internal/tokenize"
	"crawlindex/internal/trie"
)

// fileRecord holds one indexed file's tag-stripped lines, keyed by
// path — the Go equivalent of worker.c's sorted FileList, used to
// recover line text for SEARCH responses (getFileContents).
type fileRecord struct {
	lines []string
}

// Index is the trie-backed inverted index a worker builds once, eagerly,
// over every file in its assigned directory shard.
type Index struct {
	trie  *trie.Trie
	files map[string]fileRecord

	bytes int
	words int
	lines int
}

// BuildIndex walks each directory in dirs (non-recursively, matching
// getFilesInDir's single opendir/readdir pass) and indexes every
// regular file it contains.
func BuildIndex(dirs []string) (*Index, error) {
	idx := &Index{trie: trie.New(), files: make(map[string]fileRecord)}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading directory %q: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := idx.indexFile(path); err != nil {
				return nil, fmt.Errorf("indexing %q: %w", path, err)
			}
		}
	}
	return idx, nil
}

func (idx *Index) indexFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := tokenize.Lines(string(raw))
	idx.files[path] = fileRecord{lines: lines}
	idx.lines += len(lines)

	for lineNo, line := range lines {
		idx.bytes += len(line) + 1 // +1 to count the newline stripped by Lines
		if tokenize.IsBlank(line) {
			continue
		}
		for _, word := range tokenize.Words(line) {
			idx.trie.Insert(word, path, lineNo)
			idx.words++
		}
	}
	return nil
}

// Lookup returns word's postings list, or nil if absent.
func (idx *Index) Lookup(word string) *trie.PostingsList {
	return idx.trie.Lookup(word)
}

// Lines returns a file's tag-stripped, 0-indexed lines.
func (idx *Index) Lines(path string) ([]string, bool) {
	fr, ok := idx.files[path]
	if !ok {
		return nil, false
	}
	return fr.lines, true
}

// Totals reports the shard's aggregate byte/word/line counts, for WC.
func (idx *Index) Totals() (bytes, words, lines int) {
	return idx.bytes, idx.words, idx.lines
}

// Paths returns every indexed file path, sorted.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.files))
	for p := range idx.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
