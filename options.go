package seqsearch

import (
	"log/slog"

	"github.com/hupe1980/seqsearch/codec"
	"github.com/hupe1980/seqsearch/internal/resource"
)

type options struct {
	logger   *Logger
	metrics  []MetricsObserver
	progress func(done, total int)
	codec    codec.Codec

	memoryLimit int64
	ioLimit     int64

	uploadConcurrency int
}

// Option configures Search, BuildProfiles, CreateDB and Publish.
type Option func(*options)

// WithLogger sets the logger. Nil keeps the default, which discards output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLogLevel installs a text logger on stderr at level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsObserver adds an observer for engine events. It may be given
// more than once; every observer receives every event.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = append(o.metrics, m)
		}
	}
}

// WithProgress registers a callback invoked after each finished chunk of
// work with the number of completed and total items. total is 0 when it is
// not known in advance.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithMemoryLimit caps the bytes reserved for per-worker output buffers.
// Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit caps database write throughput in bytes per second.
// Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCodec configures the codec used for database manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithUploadConcurrency bounds the number of blobs Publish uploads at once.
func WithUploadConcurrency(n int) Option {
	return func(o *options) {
		o.uploadConcurrency = n
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:            NoopLogger(),
		codec:             codec.Default,
		uploadConcurrency: 3,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// observer returns the combined metrics observer, or nil when none is set.
func (o *options) observer() MetricsObserver {
	switch len(o.metrics) {
	case 0:
		return nil
	case 1:
		return o.metrics[0]
	default:
		return multiObserver(o.metrics)
	}
}

// controller returns a resource controller for the configured limits, or nil
// when no limit is set.
func (o *options) controller() *resource.Controller {
	if o.memoryLimit <= 0 && o.ioLimit <= 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})
}
