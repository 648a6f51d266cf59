package engine

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// Rejection reasons reported to MetricsObserver.OnRejection.
const (
	ReasonLengthRatio = "length_ratio"
	ReasonEval        = "eval"
	ReasonQCov        = "qcov"
	ReasonDBCov       = "dbcov"
)

// Rejections counts why candidates were not accepted. A single alignment can
// fail several thresholds and is counted once for each.
type Rejections struct {
	LengthRatio int
	Eval        int
	QCov        int
	DBCov       int
}

// Add accumulates o into r.
func (r *Rejections) Add(o Rejections) {
	r.LengthRatio += o.LengthRatio
	r.Eval += o.Eval
	r.QCov += o.QCov
	r.DBCov += o.DBCov
}

// Stats summarizes a completed run.
type Stats struct {
	Queries        int
	Candidates     int
	Attempted      int
	Passed         int
	ZeroHitQueries int
	Rejections     Rejections
	Duration       time.Duration

	// ZeroHit holds the prefilter ids of queries without accepted hits.
	ZeroHit *roaring.Bitmap
}

// PassRate returns Passed/Attempted, or 0 when nothing was aligned.
func (s Stats) PassRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Attempted)
}

// HitsPerQuery returns Passed/Queries, or 0 without queries.
func (s Stats) HitsPerQuery() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Queries)
}

// partial is the per-worker share of Stats.
type partial struct {
	candidates int
	attempted  int
	passed     int
	rejections Rejections
	processed  *roaring.Bitmap
	zeroHit    *roaring.Bitmap
}

func newPartial() *partial {
	return &partial{processed: roaring.New(), zeroHit: roaring.New()}
}
