package submat

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidMatrix is returned when a matrix definition cannot be used.
	ErrInvalidMatrix = errors.New("invalid substitution matrix")
)

// SeqType selects the residue alphabet.
type SeqType int

const (
	// Amino is the 20 amino acid alphabet plus X.
	Amino SeqType = iota
	// Nucleotide is ACGT plus N.
	Nucleotide
)

// String returns the CLI name of the sequence type.
func (t SeqType) String() string {
	switch t {
	case Amino:
		return "amino"
	case Nucleotide:
		return "nucleotide"
	default:
		return fmt.Sprintf("SeqType(%d)", int(t))
	}
}

// ParseSeqType parses "amino" or "nucleotide".
func ParseSeqType(s string) (SeqType, error) {
	switch s {
	case "amino", "aa", "protein":
		return Amino, nil
	case "nucleotide", "nucl", "dna":
		return Nucleotide, nil
	default:
		return 0, fmt.Errorf("%w: unknown sequence type %q", ErrInvalidMatrix, s)
	}
}

const (
	aminoAlphabet      = "ARNDCQEGHILKMFPSTWYVX"
	nucleotideAlphabet = "ACGTN"
)

// Alphabet returns the residue alphabet for t, unknown symbol last.
func (t SeqType) Alphabet() string {
	if t == Nucleotide {
		return nucleotideAlphabet
	}
	return aminoAlphabet
}

// Robinson & Robinson (1991) amino acid frequencies in aminoAlphabet order.
var aminoBackground = []float64{
	0.07805, 0.05129, 0.04487, 0.05364, 0.01925, 0.04264, 0.06295, 0.07377, 0.02199, 0.05142,
	0.09019, 0.05744, 0.02243, 0.03856, 0.05203, 0.07120, 0.05841, 0.01330, 0.03216, 0.06441,
}

// Matrix is an immutable substitution matrix. Safe for concurrent use.
type Matrix struct {
	name      string
	seqType   SeqType
	alphabet  []byte
	aa2int    [256]int8
	scores    []int // size*size, row-major
	bitFactor float64

	background  []float64 // ProfileSize
	conditional []float64 // ProfileSize*ProfileSize, R[a|b] at a*n+b

	lambda    float64
	k         float64
	gapOpen   int
	gapExtend int
}

type options struct {
	bitFactor float64
	gapOpen   int
	gapExtend int
	lambda    float64
	k         float64
}

// Option configures matrix construction.
type Option func(*options)

// WithBitFactor sets the score scale in units per bit (2 for half-bit matrices).
func WithBitFactor(f float64) Option {
	return func(o *options) {
		o.bitFactor = f
	}
}

// WithGapCosts sets the affine gap open and extend penalties (positive values).
func WithGapCosts(open, extend int) Option {
	return func(o *options) {
		o.gapOpen = open
		o.gapExtend = extend
	}
}

// WithKarlinAltschul overrides the e-value statistics.
func WithKarlinAltschul(lambda, k float64) Option {
	return func(o *options) {
		o.lambda = lambda
		o.k = k
	}
}

func defaultOptions(t SeqType) options {
	if t == Nucleotide {
		return options{bitFactor: 2, gapOpen: 5, gapExtend: 2}
	}
	return options{bitFactor: 2, gapOpen: 11, gapExtend: 1}
}

func applyOptions(t SeqType, opts []Option) options {
	o := defaultOptions(t)
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// New builds a matrix from a full score table over t's alphabet.
// scores must be size*size with rows and columns in alphabet order.
func New(name string, t SeqType, scores []int, opts ...Option) (*Matrix, error) {
	alphabet := []byte(t.Alphabet())
	n := len(alphabet)
	if len(scores) != n*n {
		return nil, fmt.Errorf("%w: %s needs %d scores, got %d", ErrInvalidMatrix, name, n*n, len(scores))
	}

	o := applyOptions(t, opts)
	if o.bitFactor <= 0 {
		return nil, fmt.Errorf("%w: bit factor must be positive", ErrInvalidMatrix)
	}
	if o.gapOpen < 0 || o.gapExtend <= 0 {
		return nil, fmt.Errorf("%w: invalid gap costs %d/%d", ErrInvalidMatrix, o.gapOpen, o.gapExtend)
	}

	m := &Matrix{
		name:      name,
		seqType:   t,
		alphabet:  alphabet,
		scores:    append([]int(nil), scores...),
		bitFactor: o.bitFactor,
		gapOpen:   o.gapOpen,
		gapExtend: o.gapExtend,
	}

	unknown := int8(n - 1)
	for i := range m.aa2int {
		m.aa2int[i] = unknown
	}
	for i, c := range alphabet {
		m.aa2int[c] = int8(i)
		m.aa2int[c|0x20] = int8(i) // lowercase
	}
	if t == Nucleotide {
		m.aa2int['U'] = m.aa2int['T']
		m.aa2int['u'] = m.aa2int['T']
	}

	m.initBackground()
	m.initConditional()

	m.lambda, m.k = o.lambda, o.k
	if m.lambda <= 0 || m.k <= 0 {
		lambda, err := ungappedLambda(m)
		if err != nil {
			return nil, err
		}
		m.lambda = lambda
		m.k = defaultK(t)
	}

	return m, nil
}

func (m *Matrix) initBackground() {
	ps := m.ProfileSize()
	m.background = make([]float64, ps)
	if m.seqType == Amino {
		var sum float64
		for _, f := range aminoBackground {
			sum += f
		}
		for i, f := range aminoBackground {
			m.background[i] = f / sum
		}
		return
	}
	for i := range m.background {
		m.background[i] = 1 / float64(ps)
	}
}

// initConditional derives joint frequencies p(a,b) ∝ f_a·f_b·2^(s/bitFactor)
// and stores R[a|b] = p(a,b) / Σ_a p(a,b).
func (m *Matrix) initConditional() {
	ps := m.ProfileSize()
	joint := make([]float64, ps*ps)
	for a := 0; a < ps; a++ {
		for b := 0; b < ps; b++ {
			p := m.background[a] * m.background[b] * math.Exp2(float64(m.scores[a*len(m.alphabet)+b])/m.bitFactor)
			joint[a*ps+b] = p
		}
	}

	m.conditional = make([]float64, ps*ps)
	for b := 0; b < ps; b++ {
		var col float64
		for a := 0; a < ps; a++ {
			col += joint[a*ps+b]
		}
		for a := 0; a < ps; a++ {
			m.conditional[a*ps+b] = joint[a*ps+b] / col
		}
	}
}

// Name returns the matrix name.
func (m *Matrix) Name() string { return m.name }

// SeqType returns the alphabet type.
func (m *Matrix) SeqType() SeqType { return m.seqType }

// Size returns the alphabet size including the unknown symbol.
func (m *Matrix) Size() int { return len(m.alphabet) }

// ProfileSize returns the alphabet size without the unknown symbol.
func (m *Matrix) ProfileSize() int { return len(m.alphabet) - 1 }

// Unknown returns the index of the unknown residue.
func (m *Matrix) Unknown() int8 { return int8(len(m.alphabet) - 1) }

// AA2Int maps a residue letter to its alphabet index.
func (m *Matrix) AA2Int(c byte) int8 { return m.aa2int[c] }

// Int2AA maps an alphabet index back to its letter.
func (m *Matrix) Int2AA(i int8) byte { return m.alphabet[i] }

// Alphabet returns a copy of the alphabet.
func (m *Matrix) Alphabet() string { return string(m.alphabet) }

// Score returns the substitution score of a against b.
func (m *Matrix) Score(a, b int8) int { return m.scores[int(a)*len(m.alphabet)+int(b)] }

// Row returns the scores of a against every residue. The slice must not be modified.
func (m *Matrix) Row(a int8) []int {
	n := len(m.alphabet)
	return m.scores[int(a)*n : int(a)*n+n]
}

// BitFactor returns the score units per bit.
func (m *Matrix) BitFactor() float64 { return m.bitFactor }

// Background returns the background frequency of residue a (a < ProfileSize).
func (m *Matrix) Background(a int) float64 { return m.background[a] }

// Conditional returns R[a|b], the probability of observing a given b.
func (m *Matrix) Conditional(a, b int) float64 { return m.conditional[a*m.ProfileSize()+b] }

// GapOpen returns the gap open penalty.
func (m *Matrix) GapOpen() int { return m.gapOpen }

// GapExtend returns the gap extension penalty.
func (m *Matrix) GapExtend() int { return m.gapExtend }

// Lambda returns the Karlin-Altschul λ.
func (m *Matrix) Lambda() float64 { return m.lambda }

// K returns the Karlin-Altschul K.
func (m *Matrix) K() float64 { return m.k }

// EValue returns K·qLen·tLen·dbSize·exp(-λ·score).
func (m *Matrix) EValue(score, qLen, tLen, dbSize int) float64 {
	return m.k * float64(qLen) * float64(tLen) * float64(dbSize) * math.Exp(-m.lambda*float64(score))
}
