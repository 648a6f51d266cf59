package seqsearch

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/seqsearch/engine"
)

// MetricsObserver receives per-query engine events.
//
// Example Prometheus integration:
//
//	reg := prometheus.NewRegistry()
//	obs, _ := prommetrics.New(reg)
//	stats, err := seqsearch.Search(ctx, cfg, seqsearch.WithMetricsObserver(obs))
type MetricsObserver = engine.MetricsObserver

// NoopMetricsObserver discards all events.
type NoopMetricsObserver = engine.NoopMetricsObserver

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueryCount      atomic.Int64
	QueryTotalNanos atomic.Int64
	CandidateCount  atomic.Int64
	AttemptedCount  atomic.Int64
	AcceptedCount   atomic.Int64

	RejectedLengthRatio atomic.Int64
	RejectedEval        atomic.Int64
	RejectedQCov        atomic.Int64
	RejectedDBCov       atomic.Int64

	BytesWritten atomic.Int64
}

var _ MetricsObserver = (*BasicMetricsCollector)(nil)

// OnQuery implements MetricsObserver.
func (b *BasicMetricsCollector) OnQuery(duration time.Duration, candidates, attempted, accepted int) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.CandidateCount.Add(int64(candidates))
	b.AttemptedCount.Add(int64(attempted))
	b.AcceptedCount.Add(int64(accepted))
}

// OnRejection implements MetricsObserver.
func (b *BasicMetricsCollector) OnRejection(reason string, n int) {
	switch reason {
	case engine.ReasonLengthRatio:
		b.RejectedLengthRatio.Add(int64(n))
	case engine.ReasonEval:
		b.RejectedEval.Add(int64(n))
	case engine.ReasonQCov:
		b.RejectedQCov.Add(int64(n))
	case engine.ReasonDBCov:
		b.RejectedDBCov.Add(int64(n))
	}
}

// OnThroughput implements MetricsObserver.
func (b *BasicMetricsCollector) OnThroughput(_ string, bytes int64) {
	b.BytesWritten.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		QueryCount:          b.QueryCount.Load(),
		QueryAvgNanos:       b.getAvgQueryNanos(),
		CandidateCount:      b.CandidateCount.Load(),
		AttemptedCount:      b.AttemptedCount.Load(),
		AcceptedCount:       b.AcceptedCount.Load(),
		RejectedLengthRatio: b.RejectedLengthRatio.Load(),
		RejectedEval:        b.RejectedEval.Load(),
		RejectedQCov:        b.RejectedQCov.Load(),
		RejectedDBCov:       b.RejectedDBCov.Load(),
		BytesWritten:        b.BytesWritten.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	QueryCount          int64
	QueryAvgNanos       int64
	CandidateCount      int64
	AttemptedCount      int64
	AcceptedCount       int64
	RejectedLengthRatio int64
	RejectedEval        int64
	RejectedQCov        int64
	RejectedDBCov       int64
	BytesWritten        int64
}

// multiObserver fans events out to several observers.
type multiObserver []MetricsObserver

func (m multiObserver) OnQuery(d time.Duration, candidates, attempted, accepted int) {
	for _, o := range m {
		o.OnQuery(d, candidates, attempted, accepted)
	}
}

func (m multiObserver) OnRejection(reason string, n int) {
	for _, o := range m {
		o.OnRejection(reason, n)
	}
}

func (m multiObserver) OnThroughput(name string, bytes int64) {
	for _, o := range m {
		o.OnThroughput(name, bytes)
	}
}
