package indexworker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EscapeColons(t *testing.T) {
	assert.Equal(t, "a C b C c", escapeColons("a:b:c"))
	assert.Equal(t, "noop", escapeColons("noop"))
}

func Test_AuditLog_RecordsSearchAndExtremum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	a, err := openAuditLog(path)
	require.NoError(t, err)

	require.NoError(t, a.search("hello", []string{"a.txt", "b.txt"}))
	require.NoError(t, a.extremum("maxcount", "foo", "a.txt"))
	require.NoError(t, a.wc(10, 2, 1))
	require.NoError(t, a.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(content)
	assert.Contains(t, s, "search : hello : a.txt b.txt")
	assert.Contains(t, s, "maxcount : foo : a.txt")
	assert.Contains(t, s, "wc : 10 : 2 : 1")
}

func Test_AuditLog_EmptyResultStillLogsTrailingColon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	a, err := openAuditLog(path)
	require.NoError(t, err)
	require.NoError(t, a.search("nope", nil))
	require.NoError(t, a.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "search : nope : \n")
}
