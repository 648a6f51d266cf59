// Package sequence holds the reusable, alphabet-mapped sequence record that
// alignment workers decode database entries into.
package sequence

import (
	"github.com/hupe1980/seqsearch/submat"
)

// Mapper maps residue letters to alphabet indices.
type Mapper interface {
	AA2Int(c byte) int8
}

// Sequence is a decoded sequence. It is owned by a single worker and reused
// across records; Map overwrites it in place.
type Sequence struct {
	ID       int
	Key      string
	L        int
	Residues []int8

	mapper Mapper
}

// New creates a sequence with an initial residue capacity of maxLen.
func New(maxLen int, m Mapper) *Sequence {
	if maxLen < 0 {
		maxLen = 0
	}
	return &Sequence{
		Residues: make([]int8, 0, maxLen),
		mapper:   m,
	}
}

// NewFromMatrix is New with the matrix as mapper.
func NewFromMatrix(maxLen int, m *submat.Matrix) *Sequence {
	return New(maxLen, m)
}

// Map decodes data into the sequence. Whitespace, '\n' and the record
// terminator NUL are skipped. The residue buffer only grows when the record
// is longer than its capacity.
func (s *Sequence) Map(id int, key string, data []byte) {
	s.ID = id
	s.Key = key
	s.Residues = s.Residues[:0]
	for _, c := range data {
		switch c {
		case 0, '\n', '\r', ' ', '\t':
			continue
		}
		s.Residues = append(s.Residues, s.mapper.AA2Int(c))
	}
	s.L = len(s.Residues)
}

// Cap returns the current residue capacity.
func (s *Sequence) Cap() int { return cap(s.Residues) }
