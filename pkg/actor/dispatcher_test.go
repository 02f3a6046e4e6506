package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolDispatcherFIFO(t *testing.T) {
	d := newPoolDispatcher(1)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		d.Schedule(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()
	d.Shutdown()

	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestPoolDispatcherScheduleAfterShutdown(t *testing.T) {
	d := newPoolDispatcher(2)
	d.Shutdown()
	d.Shutdown()

	done := make(chan struct{})
	d.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task scheduled after shutdown did not run")
	}
}

func TestPoolDispatcherDefaultWorkers(t *testing.T) {
	d := newPoolDispatcher(0)
	defer d.Shutdown()
	assert.Positive(t, d.workers)
}

func TestTaskQueueWrapAround(t *testing.T) {
	var q taskQueue
	var got []int
	next := 0
	push := func(n int) {
		for i := 0; i < n; i++ {
			v := next
			q.push(func() { got = append(got, v) })
			next++
		}
	}

	push(50)
	for i := 0; i < 40; i++ {
		q.pop()()
	}
	// 跨过缓冲区末尾后扩容
	push(100)
	for q.len() > 0 {
		q.pop()()
	}

	require.Len(t, got, 150)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestParseDispatcherType(t *testing.T) {
	for in, want := range map[string]DispatcherType{
		"":          DispatcherDefault,
		"default":   DispatcherDefault,
		"goroutine": DispatcherDefault,
		"shared":    DispatcherShared,
		"pool":      DispatcherShared,
	} {
		got, err := ParseDispatcherType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDispatcherType("fiber")
	assert.Error(t, err)
	assert.Equal(t, "shared", DispatcherShared.String())
}
