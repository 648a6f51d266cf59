package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/seqsearch/engine"
)

// Namespace prefixes every metric name.
const Namespace = "seqsearch"

// Observer implements engine.MetricsObserver.
type Observer struct {
	queryLatency prometheus.Histogram
	queries      prometheus.Counter
	candidates   prometheus.Counter
	alignments   *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	throughput   *prometheus.CounterVec
}

var _ engine.MetricsObserver = (*Observer)(nil)

// New creates an Observer and registers its collectors with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_duration_seconds",
			Help:      "Time to verify all candidates of one query.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Queries written to the result database.",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "candidates_total",
			Help:      "Prefilter candidates consumed.",
		}),
		alignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "alignments_total",
			Help:      "Alignments computed, by outcome.",
		}, []string{"outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rejections_total",
			Help:      "Candidates rejected, by threshold.",
		}, []string{"reason"}),
		throughput: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_total",
			Help:      "Bytes processed, by stream.",
		}, []string{"stream"}),
	}

	for _, c := range []prometheus.Collector{
		o.queryLatency, o.queries, o.candidates, o.alignments, o.rejections, o.throughput,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) OnQuery(d time.Duration, candidates, attempted, accepted int) {
	o.queryLatency.Observe(d.Seconds())
	o.queries.Inc()
	o.candidates.Add(float64(candidates))
	o.alignments.WithLabelValues("accepted").Add(float64(accepted))
	o.alignments.WithLabelValues("rejected").Add(float64(attempted - accepted))
}

func (o *Observer) OnRejection(reason string, n int) {
	o.rejections.WithLabelValues(reason).Add(float64(n))
}

func (o *Observer) OnThroughput(name string, bytes int64) {
	o.throughput.WithLabelValues(name).Add(float64(bytes))
}
