package submat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads an NCBI-format matrix file.
func Load(path string, t SeqType, opts ...Option) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(filepath.Base(path), f, t, opts...)
}

// Parse reads an NCBI-format matrix: '#' comments, a header line of column
// letters, then one row per letter. Letters outside t's alphabet (B, Z, *)
// are ignored; every pair of alphabet letters must be present.
func Parse(name string, r io.Reader, t SeqType, opts ...Option) (*Matrix, error) {
	alphabet := t.Alphabet()
	n := len(alphabet)

	index := func(c byte) int {
		return strings.IndexByte(alphabet, c&^0x20)
	}

	scores := make([]int, n*n)
	seen := make([]bool, n*n)

	var header []int
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		if header == nil {
			header = make([]int, len(fields))
			for i, f := range fields {
				if len(f) != 1 {
					return nil, fmt.Errorf("%w: %s line %d: bad column symbol %q", ErrInvalidMatrix, name, lineNo, f)
				}
				header[i] = index(f[0])
			}
			continue
		}

		if len(fields[0]) != 1 {
			return nil, fmt.Errorf("%w: %s line %d: bad row symbol %q", ErrInvalidMatrix, name, lineNo, fields[0])
		}
		row := index(fields[0][0])
		if row < 0 {
			continue
		}
		if len(fields)-1 != len(header) {
			return nil, fmt.Errorf("%w: %s line %d: expected %d scores, got %d", ErrInvalidMatrix, name, lineNo, len(header), len(fields)-1)
		}
		for i, f := range fields[1:] {
			col := header[i]
			if col < 0 {
				continue
			}
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %w", ErrInvalidMatrix, name, lineNo, err)
			}
			scores[row*n+col] = v
			seen[row*n+col] = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing score for %c/%c", ErrInvalidMatrix, name, alphabet[i/n], alphabet[i%n])
		}
	}

	return New(name, t, scores, opts...)
}
