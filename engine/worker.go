package engine

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/seqsearch/aligner"
	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/profile"
	"github.com/hupe1980/seqsearch/sequence"
)

// initialOutputSize is the starting capacity of a worker's output buffer.
const initialOutputSize = 64 * 1024

// worker is the per-goroutine arena. Nothing in it is shared.
type worker struct {
	e    *Engine
	slot int

	query   *sequence.Sequence
	qprof   profile.Profile
	target  *sequence.Sequence
	matcher *aligner.Matcher

	candidates []Candidate
	results    []aligner.Result
	out        []byte
	line       []byte
	reserved   int64
	diag       []byte

	stats *partial
}

func newWorker(e *Engine, slot int) *worker {
	return &worker{
		e:       e,
		slot:    slot,
		query:   sequence.New(e.cfg.MaxSeqLen, e.matrix),
		target:  sequence.New(e.cfg.MaxSeqLen, e.matrix),
		matcher: aligner.NewMatcher(e.matrix, e.cfg.MaxSeqLen, e.matcherOpts...),
		stats:   newPartial(),
	}
}

// process verifies the candidates of the id-th prefilter record.
func (w *worker) process(id int, maxAlnNum int) error {
	e := w.e
	start := time.Now()

	qKey := e.prefilter.Key(id)
	record, err := e.prefilter.GetByID(id)
	if err != nil {
		return fmt.Errorf("read prefilter record %d: %w", id, err)
	}

	qData, err := e.queries.GetByKey(qKey)
	if err != nil {
		return lookupError("query", qKey, err)
	}

	var qLen int
	if e.profileQueries {
		if err := w.qprof.UnmarshalBinary(qData); err != nil {
			return fmt.Errorf("decode query profile %q: %w", qKey, err)
		}
		if w.qprof.AlphabetSize() != e.matrix.ProfileSize() {
			return fmt.Errorf("%w: query profile %q has %d residues per column, matrix %s has %d",
				ErrInvalidConfig, qKey, w.qprof.AlphabetSize(), e.matrix.Name(), e.matrix.ProfileSize())
		}
		qLen = w.qprof.Len()
	} else {
		w.query.Map(id, qKey, qData)
		qLen = w.query.L
	}

	w.candidates = parseCandidates(w.candidates[:0], record, maxAlnNum, func(line []byte, err error) {
		e.logger.Warn("skipping malformed candidate", "query", qKey, "line", string(line), "error", err)
	})

	var rej Rejections
	w.results = w.results[:0]
	dbSize := e.targets.Size()

	for i := range w.candidates {
		c := &w.candidates[i]
		tData, err := e.targets.GetByKey(c.TargetKey)
		if err != nil {
			return lookupError("target", c.TargetKey, err)
		}
		w.target.Map(-1, c.TargetKey, tData)

		if !lengthRatioPasses(qLen, w.target.L, e.cfg.CovThr) {
			rej.LengthRatio++
			continue
		}

		var res aligner.Result
		if e.profileQueries {
			res = w.matcher.AlignProfile(&w.qprof, w.target, dbSize)
		} else {
			res = w.matcher.Align(w.query, w.target, dbSize)
		}
		w.results = append(w.results, res)
	}

	slices.SortFunc(w.results, func(a, b aligner.Result) int {
		switch {
		case aligner.Less(&a, &b):
			return -1
		case aligner.Less(&b, &a):
			return 1
		default:
			return 0
		}
	})

	w.out = w.out[:0]
	accepted := 0
	for i := range w.results {
		r := &w.results[i]
		ok := true
		if r.Eval > e.cfg.EvalThr {
			rej.Eval++
			ok = false
		}
		if r.QCov < e.cfg.CovThr {
			rej.QCov++
			ok = false
		}
		if r.DBCov < e.cfg.CovThr {
			rej.DBCov++
			ok = false
		}
		if !ok {
			continue
		}
		w.line = appendHit(w.line[:0], r)
		need := len(w.out) + len(w.line)
		if need >= e.cfg.OutputCapacity {
			return &CapacityExceededError{QueryKey: qKey, Capacity: e.cfg.OutputCapacity, Required: need}
		}
		if err := w.reserve(need); err != nil {
			return err
		}
		w.out = append(w.out, w.line...)
		accepted++
	}

	if err := e.results.Write(w.out, qKey, w.slot); err != nil {
		return fmt.Errorf("write results for %q: %w", qKey, err)
	}

	s := w.stats
	s.candidates += len(w.candidates)
	s.attempted += len(w.results)
	s.passed += accepted
	s.rejections.Add(rej)
	s.processed.Add(uint32(id))

	if accepted == 0 {
		s.zeroHit.Add(uint32(id))
		w.diag, err = e.zeroHit.record(w.diag, qKey, len(w.candidates), rej)
		if err != nil {
			return fmt.Errorf("write zero-hit log: %w", err)
		}
	}

	e.metrics.OnQuery(time.Since(start), len(w.candidates), len(w.results), accepted)
	reportRejections(e.metrics, rej)
	e.metrics.OnThroughput("results", int64(len(w.out)))
	return nil
}

// reserve grows the output buffer to at least n bytes, charging the growth
// to the memory budget. The buffer never grows past the output capacity.
func (w *worker) reserve(n int) error {
	if n <= cap(w.out) {
		return nil
	}
	newCap := max(n, min(max(2*cap(w.out), initialOutputSize), w.e.cfg.OutputCapacity))
	delta := int64(newCap - cap(w.out))
	if err := w.e.rc.AcquireMemory(delta); err != nil {
		return fmt.Errorf("grow output buffer to %d bytes: %w", newCap, err)
	}
	w.reserved += delta

	grown := make([]byte, len(w.out), newCap)
	copy(grown, w.out)
	w.out = grown
	return nil
}

func (w *worker) release() {
	w.e.rc.ReleaseMemory(w.reserved)
	w.reserved = 0
}

// lengthRatioPasses reports whether min(qLen,tLen)/max(qLen,tLen) >= covThr.
func lengthRatioPasses(qLen, tLen int, covThr float64) bool {
	lo, hi := min(qLen, tLen), max(qLen, tLen)
	ratio := 0.0
	if hi > 0 {
		ratio = float64(lo) / float64(hi)
	}
	return ratio >= covThr
}

func lookupError(store, key string, err error) error {
	if errors.Is(err, dbstore.ErrNotFound) {
		return &MissingRecordError{Store: store, Key: key, cause: err}
	}
	return fmt.Errorf("read %s %q: %w", store, key, err)
}

func reportRejections(m MetricsObserver, r Rejections) {
	if r.LengthRatio > 0 {
		m.OnRejection(ReasonLengthRatio, r.LengthRatio)
	}
	if r.Eval > 0 {
		m.OnRejection(ReasonEval, r.Eval)
	}
	if r.QCov > 0 {
		m.OnRejection(ReasonQCov, r.QCov)
	}
	if r.DBCov > 0 {
		m.OnRejection(ReasonDBCov, r.DBCov)
	}
}
