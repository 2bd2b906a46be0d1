package coordinator

import (
	"fmt"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawlindex/internal/frame"
	"crawlindex/internal/ipc"
)

// stubSignaler records signal calls instead of delivering real ones,
// since tests drive fake workers directly off frame arrival rather than
// off an OS signal.
type stubSignaler struct {
	mu    sync.Mutex
	calls []struct {
		pid int
		sig syscall.Signal
	}
}

func (s *stubSignaler) Signal(pid int, sig syscall.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, struct {
		pid int
		sig syscall.Signal
	}{pid, sig})
	return nil
}

// fakeWorker builds a Spawner whose "process" is a goroutine reading its
// directory shard then looping on command frames, answering each with
// handler. shardOut, if non-nil, receives the shard this worker was
// handed. killSwitch, if non-nil, is closed to simulate the process
// dying (closing its FIFO ends, causing a peer_closed on the coordinator
// side and a Wait() return).
func fakeWorker(t *testing.T, shardOut chan<- []string, handler func([]string) []string, killSwitch <-chan struct{}) Spawner {
	t.Helper()
	var nextPid int32
	return func(id int, coordReadPath, coordWritePath string) (int, func() error, error) {
		waitCh := make(chan error, 1)
		pid := int(1000 + id)
		_ = nextPid

		go func() {
			read, write, err := ipc.WorkerEnds(coordWritePath, coordReadPath)
			if err != nil {
				waitCh <- err
				return
			}
			defer read.Close()
			defer write.Close()

			r := frame.NewReader(read)
			w := frame.NewWriter(write)

			shard, err := r.Recv()
			if err != nil {
				waitCh <- err
				return
			}
			if shardOut != nil {
				shardOut <- shard
			}

			for {
				if killSwitch != nil {
					select {
					case <-killSwitch:
						waitCh <- fmt.Errorf("killed")
						return
					default:
					}
				}
				cmd, err := r.Recv()
				if err != nil {
					waitCh <- err
					return
				}
				if err := w.SendAll(handler(cmd)); err != nil {
					waitCh <- err
					return
				}
			}
		}()

		return pid, func() error { return <-waitCh }, nil
	}
}

func echoHandler(responses map[string][]string) func([]string) []string {
	return func(cmd []string) []string {
		if len(cmd) == 0 {
			return nil
		}
		return responses[cmd[0]]
	}
}

func Test_Setup_SplitsShardsAcrossWorkers(t *testing.T) {
	dirs := []string{"a", "b", "c", "d", "e"}
	shardCh := make(chan []string, 2)

	c := New(fakeWorker(t, shardCh, echoHandler(nil), nil), &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), dirs, 2))
	defer c.Shutdown()

	shard1 := <-shardCh
	shard2 := <-shardCh
	assert.Equal(t, 5, len(shard1)+len(shard2))
	assert.Equal(t, 2, c.NumWorkers())
}

func Test_Setup_CapsWorkersAtDirCount(t *testing.T) {
	dirs := []string{"a"}
	shardCh := make(chan []string, 1)

	c := New(fakeWorker(t, shardCh, echoHandler(nil), nil), &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), dirs, 4))
	defer c.Shutdown()

	assert.Equal(t, 1, c.NumWorkers())
}

func Test_Setup_EmptyDocfileSpawnsNoWorkers(t *testing.T) {
	c := New(fakeWorker(t, nil, echoHandler(nil), nil), &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), nil, 4))
	assert.Equal(t, 0, c.NumWorkers())
}

func Test_WC_SumsAcrossLiveWorkers(t *testing.T) {
	dirs := []string{"a", "b"}
	responses := map[string][]string{"CMD:WC": {"40 5 2"}}

	c := New(fakeWorker(t, nil, echoHandler(responses), nil), &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), dirs, 2))
	defer c.Shutdown()

	bytes, words, lines, err := c.WC()
	require.NoError(t, err)
	assert.Equal(t, 80, bytes)
	assert.Equal(t, 10, words)
	assert.Equal(t, 4, lines)
}

func Test_MaxCount_TieBreaksLexicographically(t *testing.T) {
	dirs := []string{"x", "y"}

	spawnIdx := 0
	var mu sync.Mutex
	spawn := func(id int, coordReadPath, coordWritePath string) (int, func() error, error) {
		mu.Lock()
		myIdx := spawnIdx
		spawnIdx++
		mu.Unlock()

		responses := map[string][]string{"CMD:MAXCOUNT": {"x/f1 3"}}
		if myIdx == 1 {
			responses = map[string][]string{"CMD:MAXCOUNT": {"y/f3 3"}}
		}
		return fakeWorker(t, nil, echoHandler(responses), nil)(id, coordReadPath, coordWritePath)
	}

	c := New(spawn, &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), dirs, 2))
	defer c.Shutdown()

	path, count, ok := c.MaxCount("foo")
	require.True(t, ok)
	assert.Equal(t, "x/f1", path)
	assert.Equal(t, 3, count)
}

func Test_Search_AggregatesResultsFromAllWorkers(t *testing.T) {
	dirs := []string{"a", "b"}
	responses := map[string][]string{
		"CMD:SEARCH": {fmt.Sprintf("a/1.html%c3%chello", frame.SearchSep, frame.SearchSep)},
	}

	c := New(fakeWorker(t, nil, echoHandler(responses), nil), &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), dirs, 2))
	defer c.Shutdown()

	out, err := c.Search([]string{"hello"}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Responded)
	assert.Equal(t, 2, out.Total)
	assert.Len(t, out.Results, 2)
	assert.Equal(t, "a/1.html", out.Results[0].Path)
	assert.Equal(t, 3, out.Results[0].Line)
	assert.False(t, out.TimedOut)
}

func Test_Search_DeadlineReturnsPartialResults(t *testing.T) {
	dirs := []string{"a", "b"}

	fast := map[string][]string{"CMD:SEARCH": {"f" + string(frame.SearchSep) + "1" + string(frame.SearchSep) + "x"}}
	slowHandler := func(cmd []string) []string {
		time.Sleep(300 * time.Millisecond)
		return fast["CMD:SEARCH"]
	}

	spawnIdx := 0
	var mu sync.Mutex
	spawn := func(id int, coordReadPath, coordWritePath string) (int, func() error, error) {
		mu.Lock()
		myIdx := spawnIdx
		spawnIdx++
		mu.Unlock()
		if myIdx == 0 {
			return fakeWorker(t, nil, echoHandler(fast), nil)(id, coordReadPath, coordWritePath)
		}
		return fakeWorker(t, nil, slowHandler, nil)(id, coordReadPath, coordWritePath)
	}

	c := New(spawn, &stubSignaler{}, zerolog.Nop())
	require.NoError(t, c.Setup(filepath.Join(t.TempDir(), "fifo"), filepath.Join(t.TempDir(), "log"), dirs, 2))
	defer c.Shutdown()

	out, err := c.Search([]string{"term"}, 80*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, out.TimedOut)
	assert.Equal(t, 1, out.Responded)
	assert.Equal(t, 2, out.Total)
}

func Test_RestartDiscriminator_IsStaleAfterRestart(t *testing.T) {
	c := New(nil, &stubSignaler{}, zerolog.Nop())
	wh := &workerHandle{restartTime: time.Now()}
	queryTime := wh.restartTime.Add(-time.Second)
	assert.True(t, c.isStale(wh, queryTime))

	queryTime2 := wh.restartTime.Add(time.Second)
	assert.False(t, c.isStale(wh, queryTime2))
}
