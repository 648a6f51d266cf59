package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/seqsearch/aligner"
	"github.com/hupe1980/seqsearch/internal/resource"
	"github.com/hupe1980/seqsearch/submat"
)

// Engine verifies prefilter candidates. An Engine runs once.
type Engine struct {
	cfg Config

	queries   SequenceStore
	targets   SequenceStore
	prefilter PrefilterStore
	results   ResultStore
	matrix    *submat.Matrix

	logger         *slog.Logger
	metrics        MetricsObserver
	zeroHit        *zeroHitLog
	progress       func(done, total int)
	profileQueries bool
	rc             *resource.Controller
	matcherOpts    []aligner.Option

	ran atomic.Bool
}

// New creates an Engine. The engine takes ownership of the stores and closes
// them when Run returns.
func New(cfg Config, queries, targets SequenceStore, prefilter PrefilterStore, results ResultStore, matrix *submat.Matrix, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if queries == nil || targets == nil || prefilter == nil || results == nil {
		return nil, fmt.Errorf("%w: all four stores are required", ErrInvalidConfig)
	}
	if matrix == nil {
		return nil, fmt.Errorf("%w: substitution matrix is required", ErrInvalidConfig)
	}

	e := &Engine{
		cfg:       cfg,
		queries:   queries,
		targets:   targets,
		prefilter: prefilter,
		results:   results,
		matrix:    matrix,
		logger:    slog.New(slog.DiscardHandler),
		metrics:   &NoopMetricsObserver{},
		zeroHit:   newZeroHitLog(nil),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Config returns the validated configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run verifies every query, considering at most maxAlnNum candidates each.
// All stores are released before Run returns. The result store is closed only
// when every query finished; on any error it is aborted and no result
// database is left behind.
func (e *Engine) Run(ctx context.Context, maxAlnNum int) (stats Stats, err error) {
	if !e.ran.CompareAndSwap(false, true) {
		return Stats{}, fmt.Errorf("%w: engine already ran", ErrInvalidConfig)
	}
	defer func() {
		if cerr := e.close(err == nil); cerr != nil {
			err = errors.Join(err, cerr)
			stats = Stats{}
		}
	}()

	if maxAlnNum <= 0 {
		return Stats{}, fmt.Errorf("%w: maxAlnNum must be positive, got %d", ErrInvalidConfig, maxAlnNum)
	}

	start := time.Now()
	total := e.prefilter.Size()
	workers := min(e.cfg.Workers, max(total, 1))

	e.logger.Info("alignment started",
		"queries", total,
		"targets", e.targets.Size(),
		"workers", workers,
		"max_aln_num", maxAlnNum,
		"eval_thr", e.cfg.EvalThr,
		"cov_thr", e.cfg.CovThr,
		"profile_queries", e.profileQueries)

	arenas := make([]*worker, workers)
	for i := range arenas {
		arenas[i] = newWorker(e, i)
	}
	defer func() {
		for _, w := range arenas {
			w.release()
		}
	}()

	var (
		cursor atomic.Int64
		done   atomic.Int64
	)
	chunk := int64(e.cfg.ChunkSize)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range arenas {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				lo := cursor.Add(chunk) - chunk
				if lo >= int64(total) {
					return nil
				}
				hi := min(lo+chunk, int64(total))
				for id := lo; id < hi; id++ {
					if err := w.process(int(id), maxAlnNum); err != nil {
						return err
					}
				}
				n := done.Add(hi - lo)
				if e.progress != nil {
					e.progress(int(n), total)
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		_ = e.zeroHit.flush()
		e.logger.Error("alignment failed", "error", err)
		return Stats{}, err
	}
	if err := e.zeroHit.flush(); err != nil {
		return Stats{}, fmt.Errorf("flush zero-hit log: %w", err)
	}

	stats = e.merge(arenas)
	stats.Duration = time.Since(start)

	if stats.Queries != total {
		return Stats{}, fmt.Errorf("processed %d of %d queries", stats.Queries, total)
	}

	e.logger.Info("alignment finished",
		"queries", stats.Queries,
		"attempted", stats.Attempted,
		"passed", stats.Passed,
		"zero_hit_queries", stats.ZeroHitQueries,
		"duration", stats.Duration)

	return stats, nil
}

// merge reduces the per-worker partials.
func (e *Engine) merge(arenas []*worker) Stats {
	processed := roaring.New()
	zeroHit := roaring.New()
	var s Stats
	for _, w := range arenas {
		p := w.stats
		s.Candidates += p.candidates
		s.Attempted += p.attempted
		s.Passed += p.passed
		s.Rejections.Add(p.rejections)
		processed.Or(p.processed)
		zeroHit.Or(p.zeroHit)
	}
	s.Queries = int(processed.GetCardinality())
	s.ZeroHitQueries = int(zeroHit.GetCardinality())
	s.ZeroHit = zeroHit
	return s
}

func (e *Engine) close(commit bool) error {
	var errs []error
	if commit {
		if err := e.results.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close result store: %w", err))
		}
	} else if err := e.results.Abort(); err != nil {
		errs = append(errs, fmt.Errorf("abort result store: %w", err))
	}
	if err := e.prefilter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close prefilter store: %w", err))
	}
	if err := e.targets.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close target store: %w", err))
	}
	if e.queries != e.targets {
		if err := e.queries.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close query store: %w", err))
		}
	}
	return errors.Join(errs...)
}
