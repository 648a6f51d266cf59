package submat

import (
	"strings"
	"sync"
)

// blosum62Table is BLOSUM62 in NCBI format (half-bit units).
const blosum62Table = `# BLOSUM62, Henikoff & Henikoff (1992), half-bit units
   A  R  N  D  C  Q  E  G  H  I  L  K  M  F  P  S  T  W  Y  V  B  Z  X  *
A  4 -1 -2 -2  0 -1 -1  0 -2 -1 -1 -1 -1 -2 -1  1  0 -3 -2  0 -2 -1  0 -4
R -1  5  0 -2 -3  1  0 -2  0 -3 -2  2 -1 -3 -2 -1 -1 -3 -2 -3 -1  0 -1 -4
N -2  0  6  1 -3  0  0  0  1 -3 -3  0 -2 -3 -2  1  0 -4 -2 -3  3  0 -1 -4
D -2 -2  1  6 -3  0  2 -1 -1 -3 -4 -1 -3 -3 -1  0 -1 -4 -3 -3  4  1 -1 -4
C  0 -3 -3 -3  9 -3 -4 -3 -3 -1 -1 -3 -1 -2 -3 -1 -1 -2 -2 -1 -3 -3 -2 -4
Q -1  1  0  0 -3  5  2 -2  0 -3 -2  1  0 -3 -1  0 -1 -2 -1 -2  0  3 -1 -4
E -1  0  0  2 -4  2  5 -2  0 -3 -3  1 -2 -3 -1  0 -1 -3 -2 -2  1  4 -1 -4
G  0 -2  0 -1 -3 -2 -2  6 -2 -4 -4 -2 -3 -3 -2  0 -2 -2 -3 -3 -1 -2 -1 -4
H -2  0  1 -1 -3  0  0 -2  8 -3 -3 -1 -2 -1 -2 -1 -2 -2  2 -3  0  0 -1 -4
I -1 -3 -3 -3 -1 -3 -3 -4 -3  4  2 -3  1  0 -3 -2 -1 -3 -1  3 -3 -3 -1 -4
L -1 -2 -3 -4 -1 -2 -3 -4 -3  2  4 -2  2  0 -3 -2 -1 -2 -1  1 -4 -3 -1 -4
K -1  2  0 -1 -3  1  1 -2 -1 -3 -2  5 -1 -3 -1  0 -1 -3 -2 -2  0  1 -1 -4
M -1 -1 -2 -3 -1  0 -2 -3 -2  1  2 -1  5  0 -2 -1 -1 -1 -1  1 -3 -1 -1 -4
F -2 -3 -3 -3 -2 -3 -3 -3 -1  0  0 -3  0  6 -4 -2 -2  1  3 -1 -3 -3 -1 -4
P -1 -2 -2 -1 -3 -1 -1 -2 -2 -3 -3 -1 -2 -4  7 -1 -1 -4 -3 -2 -2 -1 -2 -4
S  1 -1  1  0 -1  0  0  0 -1 -2 -2  0 -1 -2 -1  4  1 -3 -2 -2  0  0  0 -4
T  0 -1  0 -1 -1 -1 -1 -2 -2 -1 -1 -1 -1 -2 -1  1  5 -2 -2  0 -1 -1  0 -4
W -3 -3 -4 -4 -2 -2 -3 -2 -2 -3 -2 -3 -1  1 -4 -3 -2 11  2 -3 -4 -3 -2 -4
Y -2 -2 -2 -3 -2 -1 -2 -3  2 -1 -1 -2 -1  3 -3 -2 -2  2  7 -1 -3 -2 -1 -4
V  0 -3 -3 -3 -1 -2 -2 -3 -3  3  1 -2  1 -1 -2 -2  0 -3 -1  4 -3 -2 -1 -4
B -2 -1  3  4 -3  0  1 -1  0 -3 -4  0 -3 -3 -2  0 -1 -4 -3 -3  4  1 -1 -4
Z -1  0  0  1 -3  3  4 -2  0 -3 -3  1 -1 -3 -1  0 -1 -3 -2 -2  1  4 -1 -4
X  0 -1 -1 -1 -2 -1 -1 -1 -1 -1 -1 -1 -1 -1 -2  0  0 -2 -1 -1 -1 -1 -1 -4
* -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4 -4  1
`

// nucleotideTable uses the BLASTN +2/-3 scoring; N scores 0 against anything
// except itself (-1).
const nucleotideTable = `# NUC +2/-3
   A  C  G  T  N
A  2 -3 -3 -3  0
C -3  2 -3 -3  0
G -3 -3  2 -3  0
T -3 -3 -3  2  0
N  0  0  0  0 -1
`

var (
	blosum62Once sync.Once
	blosum62     *Matrix

	nucleotideOnce sync.Once
	nucleotide     *Matrix
)

// BLOSUM62 returns the shared built-in BLOSUM62 matrix with gap costs 11/1
// and the gapped Karlin-Altschul parameters λ=0.267, K=0.041.
func BLOSUM62() *Matrix {
	blosum62Once.Do(func() {
		m, err := Parse("BLOSUM62", strings.NewReader(blosum62Table), Amino,
			WithKarlinAltschul(0.267, 0.041))
		if err != nil {
			panic(err)
		}
		blosum62 = m
	})
	return blosum62
}

// NucleotideMatrix returns the shared built-in +2/-3 nucleotide matrix with
// gap costs 5/2 and λ=0.625, K=0.41.
func NucleotideMatrix() *Matrix {
	nucleotideOnce.Do(func() {
		m, err := Parse("NUC", strings.NewReader(nucleotideTable), Nucleotide,
			WithKarlinAltschul(0.625, 0.41))
		if err != nil {
			panic(err)
		}
		nucleotide = m
	})
	return nucleotide
}

// Default returns the built-in matrix for t.
func Default(t SeqType) *Matrix {
	if t == Nucleotide {
		return NucleotideMatrix()
	}
	return BLOSUM62()
}
