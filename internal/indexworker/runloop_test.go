package indexworker

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawlindex/internal/frame"
)

func Test_Run_HandlesCommandOnSIGUSR1(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f1"), []byte("alpha beta\n"), 0o644))
	idx, err := BuildIndex([]string{dir})
	require.NoError(t, err)
	w, err := NewWorker(idx, filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)
	defer w.Close()

	cmdR, cmdW, err := os.Pipe()
	require.NoError(t, err)
	respR, respW, err := os.Pipe()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, frame.NewReader(cmdR), frame.NewWriter(respW), w, zerolog.Nop())
	}()
	time.Sleep(20 * time.Millisecond) // let signal.Notify register

	require.NoError(t, frame.NewWriter(cmdW).SendAll([]string{"CMD:WC"}))
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	got, err := frame.NewReader(respR).Recv()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "11 2 1", got[0])

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit on SIGTERM")
	}
}
