package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Insert_Lookup_AccumulatesFrequencyAndSortedLines(t *testing.T) {
	tr := New()
	tr.Insert("cat", "a.txt", 5)
	tr.Insert("cat", "a.txt", 1)
	tr.Insert("cat", "a.txt", 1) // duplicate line: counted in Frequency, not repeated in Lines

	list := tr.Lookup("cat")
	require.NotNil(t, list)
	fi, ok := list.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, 3, fi.Frequency)
	assert.Equal(t, []int{1, 5}, fi.Lines)
}

func Test_Lookup_UnknownWordReturnsNil(t *testing.T) {
	tr := New()
	tr.Insert("cat", "a.txt", 0)
	assert.Nil(t, tr.Lookup("dog"))
	assert.Nil(t, tr.Lookup("ca"))
}

func Test_PostingsList_SortedByPath(t *testing.T) {
	tr := New()
	tr.Insert("cat", "z.txt", 0)
	tr.Insert("cat", "a.txt", 0)
	tr.Insert("cat", "m.txt", 0)

	assert.Equal(t, []string{"a.txt", "m.txt", "z.txt"}, tr.Lookup("cat").Paths())
}

func Test_Merge_CombinesKeywordsUnioningLines(t *testing.T) {
	tr := New()
	tr.Insert("cat", "a.txt", 0)
	tr.Insert("cat", "b.txt", 0)
	tr.Insert("dog", "a.txt", 1)
	tr.Insert("dog", "c.txt", 0)

	merged := Merge([]*PostingsList{tr.Lookup("cat"), tr.Lookup("dog")})
	require.NotNil(t, merged)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, merged.Paths())

	fi, ok := merged.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, fi.Lines)
	assert.Equal(t, 2, fi.Frequency)
}

func Test_Merge_AllNilListsReturnsNil(t *testing.T) {
	assert.Nil(t, Merge([]*PostingsList{nil, nil}))
}

func Test_MaxMinCount_BreaksTiesLexicographically(t *testing.T) {
	tr := New()
	tr.Insert("cat", "z.txt", 0)
	tr.Insert("cat", "z.txt", 1) // z.txt frequency 2
	tr.Insert("cat", "a.txt", 0)
	tr.Insert("cat", "a.txt", 1) // a.txt frequency 2, tied with z.txt

	list := tr.Lookup("cat")

	path, count, ok := MaxMinCount(list, MaxCount)
	require.True(t, ok)
	assert.Equal(t, "a.txt", path)
	assert.Equal(t, 2, count)

	path, count, ok = MaxMinCount(list, MinCount)
	require.True(t, ok)
	assert.Equal(t, "a.txt", path)
	assert.Equal(t, 2, count)
}

func Test_MaxMinCount_EmptyListNotOk(t *testing.T) {
	_, _, ok := MaxMinCount(&PostingsList{}, MaxCount)
	assert.False(t, ok)
}
