package engine

import "time"

// MetricsObserver defines the interface for observing engine events.
// Methods are called from worker goroutines and must be safe for concurrent use.
type MetricsObserver interface {
	// OnQuery is called after a query has been written.
	OnQuery(duration time.Duration, candidates, attempted, accepted int)

	// OnRejection reports n results rejected for reason
	// ("length_ratio", "eval", "qcov" or "dbcov").
	OnRejection(reason string, n int)

	// OnThroughput reports bytes processed.
	OnThroughput(name string, bytes int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnQuery(time.Duration, int, int, int) {}
func (o *NoopMetricsObserver) OnRejection(string, int)              {}
func (o *NoopMetricsObserver) OnThroughput(string, int64)           {}
