package profile

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqsearch/submat"
)

func newMSA(t *testing.T, rows ...string) *MSA {
	t.Helper()
	b := make([][]byte, len(rows))
	for i, r := range rows {
		b[i] = []byte(r)
	}
	msa, err := NewMSA(b, submat.BLOSUM62())
	require.NoError(t, err)
	return msa
}

func newBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(submat.BLOSUM62(), opts...)
	require.NoError(t, err)
	return b
}

func assertColumnsValid(t *testing.T, p *Profile) {
	t.Helper()
	for i := 0; i < p.Len(); i++ {
		var sum float64
		for a := 0; a < p.AlphabetSize(); a++ {
			f := p.Freq(i, a)
			assert.Positive(t, f, "column %d residue %d", i, a)
			sum += f
		}
		assert.InDelta(t, 1.0, sum, 1e-6, "column %d", i)
		assert.GreaterOrEqual(t, p.Neff(i), 1.0-1e-9)
		assert.LessOrEqual(t, p.Neff(i), float64(p.AlphabetSize())+1e-9)
	}
}

func TestBuild_SingleSequence(t *testing.T) {
	const query = "MKTAYIAKQRQISFVKSHFSRQ"
	msa := newMSA(t, query)
	b := newBuilder(t)

	w := make([]float64, 1)
	b.sequenceWeights(msa, nil, w)
	assert.Equal(t, []float64{1}, w)

	col := make([]float64, 20)
	for i := 0; i < msa.Len(); i++ {
		assert.Equal(t, 1.0, b.matchWeights(msa, i, w, col))
	}

	p, err := b.Build(msa)
	require.NoError(t, err)

	assert.Equal(t, len(query), p.Len())
	assert.Equal(t, query, p.Consensus())
	for i := 0; i < p.Len(); i++ {
		assert.InDelta(t, 1.0, p.Neff(i), 1e-12)
	}
	assertColumnsValid(t, p)
}

func TestSequenceWeights(t *testing.T) {
	b := newBuilder(t)

	tests := []struct {
		name string
		rows []string
		want []float64
	}{
		// A gap does not make a column informative.
		{"invariant with gaps", []string{"AA", "A-"}, []float64{0.5, 0.5}},
		{"unknown residue column", []string{"AX", "A-"}, []float64{0.5, 0.5}},
		// Column 1: d=2, C seen twice, D once.
		{"one informative column", []string{"AC", "AC", "AD"}, []float64{0.25, 0.25, 0.5}},
		// Column 1 is informative; the invariant column 0 adds nothing.
		{"invariant column ignored", []string{"AC", "A-", "AD"}, []float64{0.5, 0, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := make([]float64, len(tt.rows))
			b.sequenceWeights(newMSA(t, tt.rows...), nil, w)
			assert.InDeltaSlice(t, tt.want, w, 1e-12)
		})
	}
}

func TestBuild_ColumnWeightsReuseScratch(t *testing.T) {
	msa := newMSA(t, "MKTAYIAK", "MK----AK", "MRTAFIAR", "LKTGYIAK")
	b := newBuilder(t, WithGlobalWeights(false))

	first, err := b.Build(msa)
	require.NoError(t, err)

	allocs := testing.AllocsPerRun(10, func() {
		for i := 0; i < msa.Len(); i++ {
			b.columnWeights(msa, i)
		}
	})
	assert.Zero(t, allocs)

	second, err := b.Build(msa)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_Neff(t *testing.T) {
	b := newBuilder(t)

	t.Run("invariant columns", func(t *testing.T) {
		p, err := b.Build(newMSA(t, "ACD", "ACE", "ACF"))
		require.NoError(t, err)
		assert.InDelta(t, 1.0, p.Neff(0), 1e-12)
		assert.InDelta(t, 1.0, p.Neff(1), 1e-12)
		assert.InDelta(t, 3.0, p.Neff(2), 1e-9)
	})

	t.Run("k equally frequent residues", func(t *testing.T) {
		for k := 1; k <= 6; k++ {
			rows := make([]string, k)
			for i := range rows {
				rows[i] = string("ACDEFG"[i])
			}
			p, err := b.Build(newMSA(t, rows...))
			require.NoError(t, err)
			assert.InDelta(t, float64(k), p.Neff(0), 1e-9, "k=%d", k)
		}
	})
}

func TestBuild_RandomAlignmentsAreValid(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	letters := "ARNDCQEGHILKMFPSTWYV--X"

	for _, global := range []bool{true, false} {
		b := newBuilder(t, WithGlobalWeights(global))
		for trial := 0; trial < 20; trial++ {
			depth := 1 + rng.IntN(12)
			width := 1 + rng.IntN(40)
			rows := make([]string, depth)
			for i := range rows {
				r := make([]byte, width)
				for j := range r {
					r[j] = letters[rng.IntN(len(letters))]
				}
				if i == 0 {
					r[0] = 'A'
				}
				rows[i] = string(r)
			}

			p, err := b.Build(newMSA(t, rows...))
			require.NoError(t, err)
			assertColumnsValid(t, p)
		}
	}
}

func TestBuild_ConservedColumnScoresPositive(t *testing.T) {
	m := submat.BLOSUM62()
	p, err := newBuilder(t).Build(newMSA(t, "WAC", "WRC", "WNC", "WDC"))
	require.NoError(t, err)

	w := int(m.AA2Int('W'))
	assert.Positive(t, p.PSSM(0, w))
	assert.Equal(t, byte('W'), p.Consensus()[0])
	for a := 0; a < p.AlphabetSize(); a++ {
		if a != w {
			assert.Less(t, p.PSSM(0, a), p.PSSM(0, w))
		}
	}
	assert.Equal(t, p.PSSMRow(0)[w], p.PSSM(0, w))
	assert.Equal(t, m.Alphabet()[:20], p.Alphabet())
}

func TestBuild_GapsAndUnknownColumns(t *testing.T) {
	// Column 1 holds only the unknown residue: background frequencies, Neff 1.
	p, err := newBuilder(t).Build(newMSA(t, "AXC", "A-C", "G-C"))
	require.NoError(t, err)

	assert.Equal(t, 3, p.Len())
	assert.InDelta(t, 1.0, p.Neff(1), 1e-12)
	assertColumnsValid(t, p)
}

func TestBuild_ColumnWeightsMatchGlobalWithoutGaps(t *testing.T) {
	msa := newMSA(t, "MKTAYIAK", "MKSAYLAK", "MRTAFIAR", "LKTGYIAK")

	global, err := newBuilder(t).Build(msa)
	require.NoError(t, err)
	local, err := newBuilder(t, WithGlobalWeights(false)).Build(msa)
	require.NoError(t, err)

	for i := 0; i < global.Len(); i++ {
		assert.InDelta(t, global.Neff(i), local.Neff(i), 1e-12)
		for a := 0; a < global.AlphabetSize(); a++ {
			assert.InDelta(t, global.Freq(i, a), local.Freq(i, a), 1e-12)
		}
	}
}

func TestBuild_ColumnWeightsDifferWithGaps(t *testing.T) {
	msa := newMSA(t, "MKTAYIAK", "MK----AK", "MRTAFIAR", "LKTGYIAK")

	global, err := newBuilder(t).Build(msa)
	require.NoError(t, err)
	local, err := newBuilder(t, WithGlobalWeights(false)).Build(msa)
	require.NoError(t, err)

	differs := false
	for i := 0; i < global.Len(); i++ {
		if global.Neff(i) != local.Neff(i) {
			differs = true
		}
	}
	assert.True(t, differs)
	assertColumnsValid(t, local)
}

func TestBuild_Saturation(t *testing.T) {
	msa := newMSA(t, "ACDE")

	hi, err := newBuilder(t, WithScoreBias(1000)).Build(msa)
	require.NoError(t, err)
	lo, err := newBuilder(t, WithScoreBias(-1000)).Build(msa)
	require.NoError(t, err)

	for i := 0; i < msa.Len(); i++ {
		for a := 0; a < hi.AlphabetSize(); a++ {
			assert.Equal(t, int8(127), hi.PSSM(i, a))
			assert.Equal(t, int8(-128), lo.PSSM(i, a))
		}
	}
}

func TestBuild_BitFactorScales(t *testing.T) {
	msa := newMSA(t, "W")
	m := submat.BLOSUM62()
	w := int(m.AA2Int('W'))

	half, err := newBuilder(t).Build(msa)
	require.NoError(t, err)
	third, err := newBuilder(t, WithBitFactor(3)).Build(msa)
	require.NoError(t, err)
	assert.Greater(t, third.PSSM(0, w), half.PSSM(0, w))
}

func TestNewBuilder_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero pca", WithPseudocounts(0, 1.5)},
		{"negative pcb", WithPseudocounts(1, -1)},
		{"zero bit factor", WithBitFactor(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(submat.BLOSUM62(), tt.opt)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestBuild_EmptyMSA(t *testing.T) {
	_, err := newBuilder(t).Build(nil)
	assert.ErrorIs(t, err, ErrInvalidMSA)
}

func TestBuildAll(t *testing.T) {
	msas := []*MSA{
		newMSA(t, "MKTAYIAK"),
		newMSA(t, "ACD", "ACE"),
		newMSA(t, "W"),
		newMSA(t, "GGGG", "GAGG", "GGAG"),
	}
	factory := func() (*Builder, error) { return NewBuilder(submat.BLOSUM62()) }

	got, err := BuildAll(context.Background(), factory, msas, 3)
	require.NoError(t, err)
	require.Len(t, got, len(msas))

	for i, msa := range msas {
		want, err := newBuilder(t).Build(msa)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
}

func TestBuildAll_Errors(t *testing.T) {
	factory := func() (*Builder, error) { return NewBuilder(submat.BLOSUM62()) }

	_, err := BuildAll(context.Background(), factory, []*MSA{newMSA(t, "A"), {}}, 2)
	assert.ErrorIs(t, err, ErrInvalidMSA)

	bad := func() (*Builder, error) { return NewBuilder(submat.BLOSUM62(), WithBitFactor(-1)) }
	_, err = BuildAll(context.Background(), bad, []*MSA{newMSA(t, "A")}, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildAll(ctx, factory, []*MSA{newMSA(t, "A")}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
