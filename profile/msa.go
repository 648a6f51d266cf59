package profile

import (
	"fmt"

	"github.com/hupe1980/seqsearch/submat"
)

// Gap marks a gap in an MSA row.
const Gap int8 = -1

// MSA is a multiple sequence alignment in match-column coordinates. The first
// row is the reference (query) sequence.
type MSA struct {
	rows   [][]int8
	length int
}

func isGap(c byte) bool { return c == '-' || c == '.' }

func isInsertion(c byte) bool { return c == '.' || (c >= 'a' && c <= 'z') }

// NewMSA builds an MSA from aligned FASTA rows of equal length. Columns where
// the reference row has a gap are insertions relative to the reference and
// are dropped.
func NewMSA(rows [][]byte, m *submat.Matrix) (*MSA, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no sequences", ErrInvalidMSA)
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, reference has %d", ErrInvalidMSA, i, len(r), width)
		}
	}

	keep := make([]int, 0, width)
	for j, c := range rows[0] {
		if !isGap(c) {
			keep = append(keep, j)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: reference sequence is empty", ErrInvalidMSA)
	}

	msa := &MSA{rows: make([][]int8, len(rows)), length: len(keep)}
	for i, r := range rows {
		out := make([]int8, len(keep))
		for k, j := range keep {
			out[k] = encode(r[j], m)
		}
		msa.rows[i] = out
	}
	return msa, nil
}

// NewA3M builds an MSA from A3M rows: uppercase letters and '-' are match
// columns; lowercase letters and '.' are insertions and are dropped. Every row
// must have the same number of match columns.
func NewA3M(rows [][]byte, m *submat.Matrix) (*MSA, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no sequences", ErrInvalidMSA)
	}

	msa := &MSA{rows: make([][]int8, len(rows))}
	for i, r := range rows {
		out := make([]int8, 0, len(r))
		for _, c := range r {
			if isInsertion(c) {
				continue
			}
			out = append(out, encode(c, m))
		}
		if i == 0 {
			msa.length = len(out)
		} else if len(out) != msa.length {
			return nil, fmt.Errorf("%w: row %d has %d match columns, reference has %d", ErrInvalidMSA, i, len(out), msa.length)
		}
		msa.rows[i] = out
	}
	if msa.length == 0 {
		return nil, fmt.Errorf("%w: reference sequence is empty", ErrInvalidMSA)
	}
	return msa, nil
}

func encode(c byte, m *submat.Matrix) int8 {
	if isGap(c) {
		return Gap
	}
	return m.AA2Int(c)
}

// Len returns the number of match columns.
func (a *MSA) Len() int { return a.length }

// Depth returns the number of sequences.
func (a *MSA) Depth() int { return len(a.rows) }

// Row returns the encoded row i. The slice must not be modified.
func (a *MSA) Row(i int) []int8 { return a.rows[i] }
