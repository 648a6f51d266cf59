package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	wp := NewWorkerPool(4)
	assert.Equal(t, 4, wp.Size())

	var (
		count atomic.Int64
		wg    sync.WaitGroup
	)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, wp.Submit(context.Background(), func(worker int) {
			defer wg.Done()
			assert.GreaterOrEqual(t, worker, 0)
			assert.Less(t, worker, 4)
			count.Add(1)
		}))
	}

	wg.Wait()
	wp.Close()
	assert.Equal(t, int64(100), count.Load())
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	wp := NewWorkerPool(1)
	wp.Close()
	wp.Close() // idempotent

	err := wp.Submit(context.Background(), func(int) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	wp := NewWorkerPool(1)
	defer wp.Close()

	block := make(chan struct{})
	// Occupy the worker and fill the queue.
	require.NoError(t, wp.Submit(context.Background(), func(int) { <-block }))
	for {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := wp.Submit(ctx, func(int) {})
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
			break
		}
	}
	close(block)
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	wp := NewWorkerPool(0)
	defer wp.Close()
	assert.Positive(t, wp.Size())
}

func TestBufferPool_WorkerPoolFile(t *testing.T) {
	b := GetBuffer()
	assert.Empty(t, *b)
	*b = append(*b, "abc"...)
	PutBuffer(b)

	b2 := GetBuffer()
	assert.Empty(t, *b2)
	PutBuffer(b2)
	PutBuffer(nil)
}
