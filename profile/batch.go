package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/seqsearch/internal/pool"
)

// BuildAll builds profiles for independent MSAs on a pool of workers. Each
// worker owns the Builder returned by newBuilder. Results are returned in
// input order; the first error cancels the remaining work.
func BuildAll(ctx context.Context, newBuilder func() (*Builder, error), msas []*MSA, workers int) ([]*Profile, error) {
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, max(len(msas), 1))

	builders := make([]*Builder, workers)
	for i := range builders {
		b, err := newBuilder()
		if err != nil {
			return nil, err
		}
		builders[i] = b
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp := pool.NewWorkerPool(workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	out := make([]*Profile, len(msas))

	for i, msa := range msas {
		wg.Add(1)
		err := wp.Submit(ctx, func(worker int) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			p, err := builders[worker].Build(msa)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("msa %d: %w", i, err)
				}
				mu.Unlock()
				cancel()
				return
			}
			out[i] = p
		})
		if err != nil {
			wg.Done()
			break
		}
	}

	wg.Wait()
	wp.Close()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
