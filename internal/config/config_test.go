package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BindCrawlerFlags_ParsesValidFlags(t *testing.T) {
	flags := pflag.NewFlagSet("crawler", pflag.ContinueOnError)
	parse := BindCrawlerFlags(flags)
	dir := t.TempDir()

	require.NoError(t, flags.Parse([]string{
		"-h", "localhost", "-p", "8080", "-c", "9090", "-t", "4", "-d", dir,
	}))
	cfg, err := parse("http://localhost:8080/index.html")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.ServePort)
	assert.Equal(t, 4, cfg.NumThreads)
}

func Test_Crawler_Validate_RejectsBadHost(t *testing.T) {
	cfg := Crawler{Host: "bad host!", ServePort: 1, ControlPort: 2, NumThreads: 1, SaveDir: t.TempDir()}
	assert.Error(t, cfg.Validate())
}

func Test_Crawler_Validate_RejectsOutOfRangePort(t *testing.T) {
	cfg := Crawler{Host: "localhost", ServePort: 0, ControlPort: 2, NumThreads: 1, SaveDir: t.TempDir()}
	assert.Error(t, cfg.Validate())
}

func Test_Crawler_Validate_RejectsMissingSaveDir(t *testing.T) {
	cfg := Crawler{Host: "localhost", ServePort: 1, ControlPort: 2, NumThreads: 1, SaveDir: filepath.Join(t.TempDir(), "nope")}
	assert.Error(t, cfg.Validate())
}

func Test_JobExecutor_Validate_RequiresExistingDocfile(t *testing.T) {
	cfg := JobExecutor{DocfilePath: filepath.Join(t.TempDir(), "nope.txt"), NumWorkers: 2}
	assert.Error(t, cfg.Validate())
}

func Test_JobExecutor_Validate_RejectsNonPositiveWorkers(t *testing.T) {
	dir := t.TempDir()
	docfile := filepath.Join(dir, "docfile.txt")
	require.NoError(t, os.WriteFile(docfile, []byte("x"), 0o644))

	cfg := JobExecutor{DocfilePath: docfile, NumWorkers: 0}
	assert.Error(t, cfg.Validate())
}

func Test_HTTPServer_Validate(t *testing.T) {
	ok := HTTPServer{ServePort: 80, ControlPort: 81, NumThreads: 2, RootDir: t.TempDir()}
	assert.NoError(t, ok.Validate())

	bad := HTTPServer{ServePort: 0, ControlPort: 81, NumThreads: 2, RootDir: t.TempDir()}
	assert.Error(t, bad.Validate())
}
