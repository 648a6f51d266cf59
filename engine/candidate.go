package engine

import (
	"bytes"
	"fmt"
	"strconv"
)

// Candidate is one prefilter hit of a query.
type Candidate struct {
	TargetKey      string
	PrefilterScore float64
	PrefilterEval  float64
}

// parseCandidates appends at most limit well-formed candidates from a
// prefilter record to dst. Lines are "targetKey\tscore\teval" with optional
// trailing columns. Malformed lines are reported to onMalformed and do not
// count towards limit.
func parseCandidates(dst []Candidate, data []byte, limit int, onMalformed func(line []byte, err error)) []Candidate {
	consumed := 0
	for len(data) > 0 && consumed < limit {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		line = bytes.TrimRight(line, "\r\x00")
		if len(line) == 0 {
			continue
		}

		c, err := parseCandidate(line)
		if err != nil {
			if onMalformed != nil {
				onMalformed(line, err)
			}
			continue
		}
		dst = append(dst, c)
		consumed++
	}
	return dst
}

func parseCandidate(line []byte) (Candidate, error) {
	key, rest, ok := bytes.Cut(line, []byte{'\t'})
	if !ok || len(key) == 0 {
		return Candidate{}, fmt.Errorf("%w: missing target key", ErrMalformedCandidate)
	}
	scoreField, rest, ok := bytes.Cut(rest, []byte{'\t'})
	if !ok {
		return Candidate{}, fmt.Errorf("%w: expected 3 fields", ErrMalformedCandidate)
	}
	evalField, _, _ := bytes.Cut(rest, []byte{'\t'})

	score, err := strconv.ParseFloat(string(scoreField), 64)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: score: %w", ErrMalformedCandidate, err)
	}
	eval, err := strconv.ParseFloat(string(evalField), 64)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: eval: %w", ErrMalformedCandidate, err)
	}

	return Candidate{TargetKey: string(key), PrefilterScore: score, PrefilterEval: eval}, nil
}
