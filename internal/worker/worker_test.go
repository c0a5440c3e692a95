package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/testutil"
)

func TestTasksRunInOrder(t *testing.T) {
	w := New(testutil.NopLogger())

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		require.NoError(t, w.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	w.Close()
	require.True(t, w.Wait(5*time.Second))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestTasksNeverOverlap(t *testing.T) {
	w := New(testutil.NopLogger())

	var running, maxRunning atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, w.Submit(func() {
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			time.Sleep(100 * time.Microsecond)
			running.Add(-1)
		}))
	}
	w.Close()
	require.True(t, w.Wait(5*time.Second))

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestSubmitAfterClose(t *testing.T) {
	w := New(testutil.NopLogger())
	w.Close()

	err := w.Submit(func() {})
	assert.ErrorIs(t, err, model.ErrWorkerClosed)
	assert.True(t, w.Wait(time.Second))
}

func TestCloseDrainsQueue(t *testing.T) {
	w := New(testutil.NopLogger())
	release := make(chan struct{})
	var ran atomic.Int32

	require.NoError(t, w.Submit(func() { <-release }))
	for i := 0; i < 5; i++ {
		require.NoError(t, w.Submit(func() { ran.Add(1) }))
	}
	w.Close()

	assert.False(t, w.Wait(20*time.Millisecond), "blocked task should hold the worker")
	close(release)
	assert.True(t, w.Wait(5*time.Second))
	assert.Equal(t, int32(5), ran.Load())
	assert.Equal(t, 0, w.Pending())
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	w := New(testutil.NopLogger())
	var ran atomic.Bool

	require.NoError(t, w.Submit(func() { panic("boom") }))
	require.NoError(t, w.Submit(func() { ran.Store(true) }))
	w.Close()

	require.True(t, w.Wait(5*time.Second))
	assert.True(t, ran.Load())
}

func TestSubmitFromManyGoroutines(t *testing.T) {
	w := New(testutil.NopLogger())
	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = w.Submit(func() { count.Add(1) })
			}
		}()
	}
	wg.Wait()
	w.Close()
	require.True(t, w.Wait(5*time.Second))
	assert.Equal(t, int32(1000), count.Load())
}
