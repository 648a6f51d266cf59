package engine

import (
	"io"
	"log/slog"

	"github.com/hupe1980/seqsearch/aligner"
	"github.com/hupe1980/seqsearch/internal/resource"
)

// Option defines a configuration option for the Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetricsObserver sets the metrics observer for the engine.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(e *Engine) {
		if observer != nil {
			e.metrics = observer
		}
	}
}

// WithZeroHitLog sets the destination of zero-hit diagnostics.
func WithZeroHitLog(w io.Writer) Option {
	return func(e *Engine) {
		e.zeroHit = newZeroHitLog(w)
	}
}

// WithProgress registers a callback invoked after each processed chunk with
// the number of finished queries and the total. It is called from worker
// goroutines and must be safe for concurrent use.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithProfileQueries decodes query records as serialized profiles and aligns
// them position-specifically.
func WithProfileQueries() Option {
	return func(e *Engine) {
		e.profileQueries = true
	}
}

// WithResourceController sets the controller that budgets per-worker output
// buffer memory.
func WithResourceController(rc *resource.Controller) Option {
	return func(e *Engine) {
		e.rc = rc
	}
}

// WithMatcherOptions passes options to every worker's aligner.
func WithMatcherOptions(opts ...aligner.Option) Option {
	return func(e *Engine) {
		e.matcherOpts = append(e.matcherOpts, opts...)
	}
}
