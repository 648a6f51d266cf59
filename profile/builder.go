package profile

import (
	"fmt"
	"math"

	"github.com/hupe1980/seqsearch/submat"
)

// Default pseudocount admixture parameters.
const (
	DefaultPCA = 1.0
	DefaultPCB = 1.5
)

type options struct {
	pca           float64
	pcb           float64
	scoreBias     float64
	bitFactor     float64
	globalWeights bool
}

// Option configures a Builder.
type Option func(*options)

// WithPseudocounts sets the admixture parameters. The admixture weight of a
// column is min(1, pca / (1 + Neff/pcb)).
func WithPseudocounts(pca, pcb float64) Option {
	return func(o *options) {
		o.pca = pca
		o.pcb = pcb
	}
}

// WithScoreBias adds a constant to every PSSM score before rounding.
func WithScoreBias(b float64) Option {
	return func(o *options) {
		o.scoreBias = b
	}
}

// WithBitFactor sets the PSSM scale in units per bit. Defaults to the
// matrix bit factor.
func WithBitFactor(f float64) Option {
	return func(o *options) {
		o.bitFactor = f
	}
}

// WithGlobalWeights selects global sequence weights (true, default) or
// weights recomputed per column on the sequences that cover it.
func WithGlobalWeights(enabled bool) Option {
	return func(o *options) {
		o.globalWeights = enabled
	}
}

// Builder computes profiles. It is not safe for concurrent use.
type Builder struct {
	matrix *submat.Matrix
	opts   options

	weights  []float64
	sub      []float64
	counts   []int
	covering []int
	g        []float64
}

// NewBuilder creates a Builder for matrix m.
func NewBuilder(m *submat.Matrix, opts ...Option) (*Builder, error) {
	o := options{
		pca:           DefaultPCA,
		pcb:           DefaultPCB,
		bitFactor:     m.BitFactor(),
		globalWeights: true,
	}
	for _, fn := range opts {
		fn(&o)
	}

	if !(o.pca > 0) || !(o.pcb > 0) {
		return nil, fmt.Errorf("%w: pseudocount parameters must be positive (pca=%g, pcb=%g)", ErrInvalidParameter, o.pca, o.pcb)
	}
	if !(o.bitFactor > 0) {
		return nil, fmt.Errorf("%w: bit factor must be positive, got %g", ErrInvalidParameter, o.bitFactor)
	}
	if math.IsNaN(o.scoreBias) || math.IsInf(o.scoreBias, 0) {
		return nil, fmt.Errorf("%w: score bias must be finite", ErrInvalidParameter)
	}

	ps := m.ProfileSize()
	return &Builder{
		matrix: m,
		opts:   o,
		counts: make([]int, ps),
		g:      make([]float64, ps),
	}, nil
}

// Build computes the profile of msa.
func (b *Builder) Build(msa *MSA) (*Profile, error) {
	if msa == nil || msa.Depth() == 0 || msa.Len() == 0 {
		return nil, fmt.Errorf("%w: empty alignment", ErrInvalidMSA)
	}

	ps := b.matrix.ProfileSize()
	L := msa.Len()

	p := &Profile{
		pssm:      make([]int8, L*ps),
		freq:      make([]float64, L*ps),
		neff:      make([]float64, L),
		consensus: make([]int8, L),
		length:    L,
		alphabet:  b.matrix.Alphabet()[:ps],
	}

	b.weights = grow(b.weights, msa.Depth())
	if b.opts.globalWeights {
		b.sequenceWeights(msa, nil, b.weights)
	}

	for i := 0; i < L; i++ {
		col := p.freq[i*ps : (i+1)*ps]

		var weights []float64
		if b.opts.globalWeights {
			weights = b.weights
		} else {
			weights = b.columnWeights(msa, i)
		}

		total := b.matchWeights(msa, i, weights, col)
		if total == 0 {
			for a := range col {
				col[a] = b.matrix.Background(a)
			}
			p.neff[i] = 1
		} else {
			for a := range col {
				col[a] /= total
			}
			p.neff[i] = neff(col)
		}

		b.addPseudocounts(col, p.neff[i])
		b.logOdds(col, p.pssm[i*ps:(i+1)*ps])
		p.consensus[i] = argmax(col)
	}

	return p, nil
}

// sequenceWeights computes position-based weights: in each column with d
// distinct residues, a sequence holding residue r (seen n_r times) earns
// 1/(d·n_r). Columns with fewer than two distinct residues are skipped, gaps
// included. Only rows listed in subset take part (all rows when subset is
// nil); the rest get weight 0. Weights are normalized to sum 1 and fall back
// to uniform when no column is informative.
func (b *Builder) sequenceWeights(msa *MSA, subset []int, w []float64) {
	ps := b.matrix.ProfileSize()
	for k := range w {
		w[k] = 0
	}

	rows := subset
	if rows == nil {
		b.covering = grow(b.covering, msa.Depth())
		for k := range b.covering {
			b.covering[k] = k
		}
		rows = b.covering
	}

	for i := 0; i < msa.Len(); i++ {
		for a := range b.counts {
			b.counts[a] = 0
		}
		distinct := 0
		for _, k := range rows {
			c := msa.rows[k][i]
			if c < 0 || int(c) >= ps {
				continue
			}
			if b.counts[c] == 0 {
				distinct++
			}
			b.counts[c]++
		}
		if distinct <= 1 {
			continue
		}
		for _, k := range rows {
			c := msa.rows[k][i]
			if c < 0 || int(c) >= ps {
				continue
			}
			w[k] += 1 / float64(distinct*b.counts[c])
		}
	}

	var sum float64
	for _, k := range rows {
		sum += w[k]
	}
	if sum == 0 {
		for _, k := range rows {
			w[k] = 1 / float64(len(rows))
		}
		return
	}
	for _, k := range rows {
		w[k] /= sum
	}
}

// columnWeights recomputes weights on the sub-alignment of sequences that
// hold a residue in column i.
func (b *Builder) columnWeights(msa *MSA, i int) []float64 {
	ps := b.matrix.ProfileSize()
	subset := b.covering[:0]
	for k, row := range msa.rows {
		if c := row[i]; c >= 0 && int(c) < ps {
			subset = append(subset, k)
		}
	}
	b.covering = subset
	b.sub = grow(b.sub, msa.Depth())
	if len(subset) == 0 {
		for k := range b.sub {
			b.sub[k] = 0
		}
		return b.sub
	}
	b.sequenceWeights(msa, subset, b.sub)
	return b.sub
}

// matchWeights sums the weights of each residue in column i into col and
// returns the total.
func (b *Builder) matchWeights(msa *MSA, i int, w []float64, col []float64) float64 {
	ps := len(col)
	for a := range col {
		col[a] = 0
	}
	var total float64
	for k, row := range msa.rows {
		c := row[i]
		if c < 0 || int(c) >= ps {
			continue
		}
		col[c] += w[k]
		total += w[k]
	}
	return total
}

// neff returns exp(-Σ p·ln p) of a normalized column.
func neff(col []float64) float64 {
	var h float64
	for _, p := range col {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return math.Exp(h)
}

// addPseudocounts blends the column with g_a = Σ_b R[a|b]·f_b.
func (b *Builder) addPseudocounts(col []float64, neff float64) {
	ps := len(col)
	for a := 0; a < ps; a++ {
		var s float64
		for c := 0; c < ps; c++ {
			s += b.matrix.Conditional(a, c) * col[c]
		}
		b.g[a] = s
	}

	tau := math.Min(1, b.opts.pca/(1+neff/b.opts.pcb))
	var sum float64
	for a := range col {
		col[a] = (1-tau)*col[a] + tau*b.g[a]
		sum += col[a]
	}
	for a := range col {
		col[a] /= sum
	}
}

// logOdds writes floor(bitFactor·log2(p/bg) + bias + 0.5), clamped to int8.
func (b *Builder) logOdds(col []float64, out []int8) {
	for a, p := range col {
		s := b.opts.bitFactor*math.Log2(p/b.matrix.Background(a)) + b.opts.scoreBias
		out[a] = saturate(math.Floor(s + 0.5))
	}
}

func saturate(v float64) int8 {
	switch {
	case v >= math.MaxInt8:
		return math.MaxInt8
	case v <= math.MinInt8, math.IsNaN(v):
		return math.MinInt8
	default:
		return int8(v)
	}
}

func argmax(col []float64) int8 {
	best := 0
	for a := 1; a < len(col); a++ {
		if col[a] > col[best] {
			best = a
		}
	}
	return int8(best)
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
