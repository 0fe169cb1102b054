package writequeue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSerializesPerKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), "user-1", func() error {
				n := inFlight.Add(1)
				for {
					cur := maxInFlight.Load()
					if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, 1, m.QueueCount())
}

func TestExecuteTimeout(t *testing.T) {
	m := New(&Config{WriteTimeout: 20 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	err := m.Execute(context.Background(), "u", func() error {
		<-release
		return nil
	})
	close(release)
	assert.ErrorIs(t, err, ErrWriteTimeout)
}

func TestIdleCleanupAndShutdown(t *testing.T) {
	m := New(&Config{IdleTimeout: time.Hour}, nil)

	require.NoError(t, m.Execute(context.Background(), "a", func() error { return nil }))
	require.NoError(t, m.Execute(context.Background(), "b", func() error { return nil }))
	assert.Equal(t, 2, m.QueueCount())

	m.cleanupIdle(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, m.QueueCount())

	require.NoError(t, m.Execute(context.Background(), "a", func() error { return nil }))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, m.IsClosed())
	assert.ErrorIs(t, m.Execute(context.Background(), "a", func() error { return nil }), ErrWriteQueueClosed)
}
