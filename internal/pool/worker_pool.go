package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker pool closed")

// WorkerPool manages a fixed pool of goroutines for independent tasks.
// Every worker has a stable index, so callers can keep per-worker state
// (builders, DP buffers) without locking.
type WorkerPool struct {
	numWorkers int
	workCh     chan func(worker int)
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
}

// NewWorkerPool creates a worker pool with numWorkers goroutines.
// numWorkers <= 0 uses runtime.GOMAXPROCS(0).
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		numWorkers: numWorkers,
		workCh:     make(chan func(int), numWorkers*2), // 2x buffer for pipelining
		stopCh:     make(chan struct{}),
	}

	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker(i)
	}

	return wp
}

// Size returns the number of workers.
func (wp *WorkerPool) Size() int { return wp.numWorkers }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopCh:
			// Drain remaining work before exiting
			for {
				select {
				case task, ok := <-wp.workCh:
					if !ok {
						return
					}
					task(id)
				default:
					return
				}
			}
		case task, ok := <-wp.workCh:
			if !ok {
				return
			}
			task(id)
		}
	}
}

// Submit enqueues a task. It blocks while the queue is full.
//
// Error conditions:
//   - ErrClosed if the pool is closed
//   - ctx.Err() if the context is cancelled before enqueueing
func (wp *WorkerPool) Submit(ctx context.Context, task func(worker int)) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrClosed
	}

	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the pool after queued tasks have run.
func (wp *WorkerPool) Close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()

	wp.wg.Wait()
}
