package submat

import (
	"fmt"
	"math"
)

func defaultK(t SeqType) float64 {
	if t == Nucleotide {
		return 0.41
	}
	return 0.041
}

// ungappedLambda solves Σ f_a·f_b·exp(λ·s_ab) = 1 for λ > 0 by bisection.
// It requires a negative expected score and at least one positive score.
func ungappedLambda(m *Matrix) (float64, error) {
	ps := m.ProfileSize()
	n := m.Size()

	var expected float64
	positive := false
	for a := 0; a < ps; a++ {
		for b := 0; b < ps; b++ {
			s := m.scores[a*n+b]
			expected += m.background[a] * m.background[b] * float64(s)
			if s > 0 {
				positive = true
			}
		}
	}
	if expected >= 0 || !positive {
		return 0, fmt.Errorf("%w: %s has no valid Karlin-Altschul lambda", ErrInvalidMatrix, m.name)
	}

	f := func(lambda float64) float64 {
		var sum float64
		for a := 0; a < ps; a++ {
			for b := 0; b < ps; b++ {
				sum += m.background[a] * m.background[b] * math.Exp(lambda*float64(m.scores[a*n+b]))
			}
		}
		return sum - 1
	}

	lo, hi := 1e-6, 1.0
	for f(hi) < 0 {
		hi *= 2
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if f(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}
