// Package submat provides substitution matrices for sequence alignment and
// profile construction.
//
// A Matrix couples integer pair scores with the probabilistic view needed by
// profile building: background residue frequencies and the conditional
// substitution probabilities R[a|b] implied by the scores. It also carries the
// Karlin-Altschul parameters used to turn raw alignment scores into e-values.
//
// Alphabets are fixed per sequence type. The last symbol of every alphabet is
// the unknown residue (X for amino acids, N for nucleotides); letters outside
// the alphabet map to it.
//
//	m := submat.BLOSUM62()
//	a := m.AA2Int('W')
//	s := m.Score(a, a) // 11
package submat
