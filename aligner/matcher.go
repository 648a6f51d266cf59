package aligner

import (
	"math"

	"github.com/hupe1980/seqsearch/sequence"
	"github.com/hupe1980/seqsearch/submat"
)

const negInf = math.MinInt32 / 2

// QueryProfile is a position-specific query.
type QueryProfile interface {
	Len() int
	AlphabetSize() int
	PSSMRow(i int) []int8
	ConsensusIndex(i int) int8
}

type options struct {
	gapOpen   int
	gapExtend int
}

// Option configures a Matcher.
type Option func(*options)

// WithGapCosts overrides the matrix gap costs. A gap of length k costs
// open + k*extend.
func WithGapCosts(open, extend int) Option {
	return func(o *options) {
		o.gapOpen = open
		o.gapExtend = extend
	}
}

// Matcher computes local alignments. It is not safe for concurrent use.
type Matcher struct {
	matrix    *submat.Matrix
	gapOpen   int
	gapExtend int

	// query score profile: qLen rows of matrix.Size() scores
	qp   []int
	qres []int8

	h, f  []int
	trace []uint8
}

// NewMatcher creates a matcher whose buffers are sized for maxSeqLen.
// Buffers grow on demand.
func NewMatcher(m *submat.Matrix, maxSeqLen int, opts ...Option) *Matcher {
	o := options{gapOpen: m.GapOpen(), gapExtend: m.GapExtend()}
	for _, fn := range opts {
		fn(&o)
	}
	if maxSeqLen < 0 {
		maxSeqLen = 0
	}
	return &Matcher{
		matrix:    m,
		gapOpen:   o.gapOpen,
		gapExtend: o.gapExtend,
		qp:        make([]int, 0, maxSeqLen*m.Size()),
		qres:      make([]int8, 0, maxSeqLen),
		h:         make([]int, 0, maxSeqLen+1),
		f:         make([]int, 0, maxSeqLen+1),
	}
}

// Align aligns a query sequence against a target. dbSize is the number of
// target sequences, used for the e-value.
func (mt *Matcher) Align(q, t *sequence.Sequence, dbSize int) Result {
	n := mt.matrix.Size()
	mt.qp = grow(mt.qp, q.L*n)
	for i, a := range q.Residues[:q.L] {
		copy(mt.qp[i*n:i*n+n], mt.matrix.Row(a))
	}
	mt.qres = append(mt.qres[:0], q.Residues[:q.L]...)
	return mt.align(q.L, t, dbSize)
}

// AlignProfile aligns a profile query against a target. Column i scores
// target residue b as PSSM[i][b]; the unknown residue scores -1.
func (mt *Matcher) AlignProfile(p QueryProfile, t *sequence.Sequence, dbSize int) Result {
	n := mt.matrix.Size()
	qLen := p.Len()
	mt.qp = grow(mt.qp, qLen*n)
	mt.qres = mt.qres[:0]
	for i := 0; i < qLen; i++ {
		row := mt.qp[i*n : i*n+n]
		pssm := p.PSSMRow(i)
		for b := range row {
			if b < len(pssm) {
				row[b] = int(pssm[b])
			} else {
				row[b] = -1
			}
		}
		mt.qres = append(mt.qres, p.ConsensusIndex(i))
	}
	return mt.align(qLen, t, dbSize)
}

func (mt *Matcher) align(qLen int, t *sequence.Sequence, dbSize int) Result {
	tLen := t.L
	if qLen == 0 || tLen == 0 {
		return Result{DBKey: t.Key, Eval: math.Inf(1)}
	}

	score, qEnd, tEnd := mt.forward(qLen, t.Residues[:tLen])
	if score <= 0 {
		return Result{DBKey: t.Key, Eval: mt.matrix.EValue(0, qLen, tLen, dbSize)}
	}
	qStart, tStart := mt.reverse(qEnd, tEnd, score, t.Residues)
	ident, cols := mt.traceback(qStart, qEnd, tStart, tEnd, t.Residues)

	return Result{
		DBKey:   t.Key,
		Score:   score,
		QCov:    float64(qEnd-qStart+1) / float64(qLen),
		DBCov:   float64(tEnd-tStart+1) / float64(tLen),
		SeqID:   float64(ident) / float64(cols),
		Eval:    mt.matrix.EValue(score, qLen, tLen, dbSize),
		QStart:  qStart,
		QEnd:    qEnd,
		DBStart: tStart,
		DBEnd:   tEnd,
		AlnLen:  cols,
	}
}

// forward returns the best local score and its end cell (first in row-major
// order on ties).
func (mt *Matcher) forward(qLen int, target []int8) (best, bestI, bestJ int) {
	n := mt.matrix.Size()
	tLen := len(target)
	openExt := mt.gapOpen + mt.gapExtend
	ext := mt.gapExtend

	mt.h = grow(mt.h, tLen+1)
	mt.f = grow(mt.f, tLen+1)
	for j := range mt.h {
		mt.h[j] = 0
		mt.f[j] = negInf
	}

	bestI, bestJ = -1, -1
	for i := 0; i < qLen; i++ {
		row := mt.qp[i*n : i*n+n]
		diag := 0 // H[i-1][j-1]
		e := negInf
		hLeft := 0 // H[i][j-1]
		for j := 1; j <= tLen; j++ {
			up := mt.h[j] // H[i-1][j]
			e = max(hLeft-openExt, e-ext)
			f := max(up-openExt, mt.f[j]-ext)
			mt.f[j] = f
			h := max(0, diag+row[target[j-1]], e, f)
			diag = up
			mt.h[j] = h
			hLeft = h
			if h > best {
				best, bestI, bestJ = h, i, j-1
			}
		}
	}
	return best, bestI, bestJ
}

// reverse runs local DP over the reversed prefixes ending at (qEnd, tEnd) and
// returns the first cell at which the best score is reached. Because the end
// cell is the first best cell in row-major order, that alignment ends exactly
// at (qEnd, tEnd).
func (mt *Matcher) reverse(qEnd, tEnd, best int, target []int8) (qStart, tStart int) {
	n := mt.matrix.Size()
	cols := tEnd + 1
	openExt := mt.gapOpen + mt.gapExtend
	ext := mt.gapExtend

	mt.h = grow(mt.h, cols+1)
	mt.f = grow(mt.f, cols+1)
	for j := range mt.h {
		mt.h[j] = 0
		mt.f[j] = negInf
	}

	for i := qEnd; i >= 0; i-- {
		row := mt.qp[i*n : i*n+n]
		diag := 0
		e := negInf
		hLeft := 0
		for jj := 1; jj <= cols; jj++ {
			j := tEnd - jj + 1
			up := mt.h[jj]
			e = max(hLeft-openExt, e-ext)
			f := max(up-openExt, mt.f[jj]-ext)
			mt.f[jj] = f
			h := max(0, diag+row[target[j]], e, f)
			diag = up
			mt.h[jj] = h
			hLeft = h
			if h == best {
				return i, j
			}
		}
	}
	return 0, 0
}

// traceback globally aligns q[qs..qe] with t[ts..te] and counts identities and
// alignment columns.
func (mt *Matcher) traceback(qs, qe, ts, te int, target []int8) (ident, cols int) {
	n := mt.matrix.Size()
	rows := qe - qs + 1
	width := te - ts + 1
	stride := width + 1
	openExt := mt.gapOpen + mt.gapExtend
	ext := mt.gapExtend

	mt.trace = grow(mt.trace, (rows+1)*stride)
	mt.h = grow(mt.h, stride)
	mt.f = grow(mt.f, stride)

	mt.h[0] = 0
	mt.f[0] = negInf
	mt.trace[0] = 0
	for j := 1; j <= width; j++ {
		mt.h[j] = -(mt.gapOpen + j*ext)
		mt.f[j] = negInf
		tr := uint8(srcE)
		if j > 1 {
			tr |= extE
		}
		mt.trace[j] = tr
	}

	for i := 1; i <= rows; i++ {
		row := mt.qp[(qs+i-1)*n : (qs+i)*n]
		diag := mt.h[0]
		mt.h[0] = -(mt.gapOpen + i*ext)
		tr0 := uint8(srcF)
		if i > 1 {
			tr0 |= extF
		}
		mt.trace[i*stride] = tr0
		e := negInf
		hLeft := mt.h[0]
		for j := 1; j <= width; j++ {
			up := mt.h[j]
			var tr uint8

			eOpen, eExt := hLeft-openExt, e-ext
			if eExt >= eOpen && eExt > negInf {
				e = eExt
				tr |= extE
			} else {
				e = eOpen
			}
			fOpen, fExt := up-openExt, mt.f[j]-ext
			if fExt >= fOpen && fExt > negInf {
				mt.f[j] = fExt
				tr |= extF
			} else {
				mt.f[j] = fOpen
			}

			h := diag + row[target[ts+j-1]]
			src := uint8(srcDiag)
			if e > h {
				h, src = e, srcE
			}
			if mt.f[j] > h {
				h, src = mt.f[j], srcF
			}
			mt.trace[i*stride+j] = tr | src

			diag = up
			mt.h[j] = h
			hLeft = h
		}
	}

	i, j := rows, width
	state := uint8(srcDiag)
	for i > 0 || j > 0 {
		tr := mt.trace[i*stride+j]
		switch state {
		case srcDiag:
			switch tr & srcMask {
			case srcDiag:
				if mt.qres[qs+i-1] == target[ts+j-1] {
					ident++
				}
				cols++
				i--
				j--
			case srcE:
				state = srcE
			case srcF:
				state = srcF
			}
		case srcE:
			if tr&extE == 0 {
				state = srcDiag
			}
			cols++
			j--
		case srcF:
			if tr&extF == 0 {
				state = srcDiag
			}
			cols++
			i--
		}
	}
	return ident, cols
}

const (
	srcDiag = 0
	srcE    = 1
	srcF    = 2
	srcMask = 3
	extE    = 1 << 2
	extF    = 1 << 3
)

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
