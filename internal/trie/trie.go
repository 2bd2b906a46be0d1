// Package trie implements the per-shard inverted index each indexer
// worker builds over its assigned directories: a trie over word
// characters whose leaves hold a postings list of (path, file
// frequency, sorted line numbers), expressed with Go maps and slices
// in place of hand-rolled sorted linked lists.
package trie

import "sort"

// FileInfo records one word's occurrences within a single file.
type FileInfo struct {
	Frequency int
	Lines     []int // sorted, unique, 0-indexed
}

func (fi *FileInfo) addLine(line int) {
	i := sort.SearchInts(fi.Lines, line)
	if i < len(fi.Lines) && fi.Lines[i] == line {
		return
	}
	fi.Lines = append(fi.Lines, 0)
	copy(fi.Lines[i+1:], fi.Lines[i:])
	fi.Lines[i] = line
}

// postingsEntry pairs a path with its FileInfo; PostingsList keeps
// these sorted by path so getMaxMinCount's tie-break ("lexicographic on
// path") and merge are both simple linear scans.
type postingsEntry struct {
	path string
	info *FileInfo
}

// PostingsList is the set of files containing a word, sorted by path.
type PostingsList struct {
	entries []postingsEntry
}

// Len reports how many distinct files are in the list.
func (p *PostingsList) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Paths returns the list's paths in sorted order.
func (p *PostingsList) Paths() []string {
	if p == nil {
		return nil
	}
	paths := make([]string, len(p.entries))
	for i, e := range p.entries {
		paths[i] = e.path
	}
	return paths
}

// Get returns the FileInfo recorded for path, if any.
func (p *PostingsList) Get(path string) (*FileInfo, bool) {
	if p == nil {
		return nil, false
	}
	i := p.search(path)
	if i < len(p.entries) && p.entries[i].path == path {
		return p.entries[i].info, true
	}
	return nil, false
}

func (p *PostingsList) search(path string) int {
	return sort.Search(len(p.entries), func(i int) bool { return p.entries[i].path >= path })
}

// update records one occurrence of a word at path/line, creating the
// path's FileInfo if this is its first occurrence.
func (p *PostingsList) update(path string, line int) {
	i := p.search(path)
	if i < len(p.entries) && p.entries[i].path == path {
		fi := p.entries[i].info
		fi.Frequency++
		fi.addLine(line)
		return
	}
	fi := &FileInfo{Frequency: 1}
	fi.addLine(line)
	p.entries = append(p.entries, postingsEntry{})
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = postingsEntry{path: path, info: fi}
}

// node is one character of the trie. Children are keyed by byte, so
// word lookup/insertion walks one map access per character instead of
// scanning a sorted sibling list.
type node struct {
	children map[byte]*node
	postings *PostingsList
}

// Trie is a per-shard word index. Not safe for concurrent writers; the
// indexer worker that owns a Trie builds it once at startup before
// serving any command, and treats it as read-only for the rest of the
// worker process's life.
type Trie struct {
	root *node
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{root: &node{children: make(map[byte]*node)}}
}

// Insert records that word occurs at path on the given 0-indexed line.
func (t *Trie) Insert(word, path string, line int) {
	if word == "" {
		return
	}
	cur := t.root
	for i := 0; i < len(word); i++ {
		c := word[i]
		child, ok := cur.children[c]
		if !ok {
			child = &node{children: make(map[byte]*node)}
			cur.children[c] = child
		}
		cur = child
	}
	if cur.postings == nil {
		cur.postings = &PostingsList{}
	}
	cur.postings.update(path, line)
}

// Lookup returns word's postings list, or nil if word was never
// inserted.
func (t *Trie) Lookup(word string) *PostingsList {
	cur := t.root
	for i := 0; i < len(word); i++ {
		child, ok := cur.children[word[i]]
		if !ok {
			return nil
		}
		cur = child
	}
	return cur.postings
}

// Merge combines several postings lists into one by re-inserting every
// (path, line) pair of every input list, so line numbers are unioned
// per path. A merged entry's Frequency is the number of (path, line)
// pairs re-inserted for that path, not the sum of the input
// frequencies. A multi-keyword
// SEARCH combines each keyword's postings list this way before the
// result is framed and sent back to the coordinator.
func Merge(lists []*PostingsList) *PostingsList {
	merged := &PostingsList{}
	for _, l := range lists {
		if l == nil {
			continue
		}
		for _, e := range l.entries {
			for _, line := range e.info.Lines {
				merged.update(e.path, line)
			}
		}
	}
	if len(merged.entries) == 0 {
		return nil
	}
	return merged
}

// MaxCount and MinCount select which extremum MaxMinCount returns.
const (
	MaxCount = iota
	MinCount
)

// MaxMinCount returns the path with the highest (MaxCount) or lowest
// (MinCount) file frequency for word, breaking ties by lexicographically
// smallest path. ok is false when word was never indexed.
func MaxMinCount(list *PostingsList, which int) (path string, count int, ok bool) {
	if list.Len() == 0 {
		return "", 0, false
	}
	best := list.entries[0]
	for _, e := range list.entries[1:] {
		switch {
		case which == MaxCount && e.info.Frequency > best.info.Frequency:
			best = e
		case which == MinCount && e.info.Frequency < best.info.Frequency:
			best = e
		case e.info.Frequency == best.info.Frequency && e.path < best.path:
			best = e
		}
	}
	return best.path, best.info.Frequency, true
}
