package frontier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Push_DedupsOnInsert(t *testing.T) {
	f := New()

	require.True(t, f.Push("http://host:8080/a"))
	require.False(t, f.Push("http://host:8080/a"))
	assert.Equal(t, 1, f.Len())
	assert.True(t, f.Contains("http://host:8080/a"))
	assert.False(t, f.Contains("http://host:8080/b"))
}

func Test_Pop_FIFOOrder(t *testing.T) {
	f := New()
	f.Push("1")
	f.Push("2")
	f.Push("3")

	stopped := func() bool { return false }

	for _, want := range []string{"1", "2", "3"} {
		got, ok := f.Pop(stopped)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func Test_Pop_BlocksUntilPush(t *testing.T) {
	f := New()
	var wg sync.WaitGroup
	wg.Add(1)

	var got string
	go func() {
		defer wg.Done()
		v, ok := f.Pop(func() bool { return false })
		if ok {
			got = v
		}
	}()

	f.Push("late")
	wg.Wait()
	assert.Equal(t, "late", got)
}

func Test_Pop_ReturnsFalseWhenStoppedAndEmpty(t *testing.T) {
	f := New()
	stopped := func() bool { return true }

	_, ok := f.Pop(stopped)
	assert.False(t, ok)
}

func Test_Broadcast_WakesAllWaiters(t *testing.T) {
	f := New()
	var wg sync.WaitGroup
	stop := false
	stopped := func() bool { return stop }

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Pop(stopped)
		}()
	}

	stop = true
	f.Broadcast()
	wg.Wait()
}
