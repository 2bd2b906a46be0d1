package crawlstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SavePage_CreatesDirsAndAppendsDocfileOnce(t *testing.T) {
	saveDir := t.TempDir()
	docfile := filepath.Join(t.TempDir(), "docfile.txt")

	s, err := New(saveDir, docfile)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SavePage("a/1.html", []byte("one")))
	require.NoError(t, s.SavePage("a/2.html", []byte("two")))
	require.NoError(t, s.SavePage("b/3.html", []byte("three")))

	got, err := os.ReadFile(filepath.Join(saveDir, "a", "1.html"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	dirs, err := ReadDocfile(docfile)
	require.NoError(t, err)
	assert.Len(t, dirs, 2)
}

func Test_SavePage_NestedFileSegments(t *testing.T) {
	saveDir := t.TempDir()
	docfile := filepath.Join(t.TempDir(), "docfile.txt")

	s, err := New(saveDir, docfile)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SavePage("a/sub/deep.html", []byte("x")))

	got, err := os.ReadFile(filepath.Join(saveDir, "a", "sub", "deep.html"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func Test_SavePage_SingleSegmentCreatesNoDirectory(t *testing.T) {
	saveDir := t.TempDir()
	docfile := filepath.Join(t.TempDir(), "docfile.txt")

	s, err := New(saveDir, docfile)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SavePage("index.html", []byte("root")))

	got, err := os.ReadFile(filepath.Join(saveDir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "root", string(got))

	dirs, err := ReadDocfile(docfile)
	require.NoError(t, err)
	assert.Len(t, dirs, 0)
}

func Test_New_RejectsMissingSaveDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "docfile.txt"))
	assert.Error(t, err)
}
