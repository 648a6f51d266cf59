package profile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/seqsearch/internal/hash"
)

// Profile is a position-specific scoring matrix with its frequencies,
// per-column Neff and consensus. Values are laid out column-major: entry
// (i, a) is at i*AlphabetSize()+a.
type Profile struct {
	pssm      []int8
	freq      []float64
	neff      []float64
	consensus []int8
	length    int
	alphabet  string
}

// Len returns the number of columns.
func (p *Profile) Len() int { return p.length }

// AlphabetSize returns the number of residues per column.
func (p *Profile) AlphabetSize() int { return len(p.alphabet) }

// Alphabet returns the residue letters in column order.
func (p *Profile) Alphabet() string { return p.alphabet }

// PSSM returns the score of residue a in column i.
func (p *Profile) PSSM(i, a int) int8 { return p.pssm[i*len(p.alphabet)+a] }

// PSSMRow returns the scores of column i. The slice must not be modified.
func (p *Profile) PSSMRow(i int) []int8 {
	n := len(p.alphabet)
	return p.pssm[i*n : (i+1)*n : (i+1)*n]
}

// Freq returns the pseudocount-corrected frequency of residue a in column i.
func (p *Profile) Freq(i, a int) float64 { return p.freq[i*len(p.alphabet)+a] }

// Neff returns the effective number of sequences of column i.
func (p *Profile) Neff(i int) float64 { return p.neff[i] }

// ConsensusIndex returns the alphabet index of the consensus residue of column i.
func (p *Profile) ConsensusIndex(i int) int8 { return p.consensus[i] }

// Consensus returns the consensus sequence.
func (p *Profile) Consensus() string {
	out := make([]byte, p.length)
	for i, c := range p.consensus {
		out[i] = p.alphabet[c]
	}
	return string(out)
}

// Binary layout (little-endian):
//
//	magic "SSPF" | version u8 | alphabet size u8 | length u32 | alphabet
//	per column: consensus u8 | neff f64 | pssm [n]i8 | freq [n]f64
//	CRC32C u32 of everything before it
const (
	magic         = "SSPF"
	formatVersion = 1
	headerSize    = 4 + 1 + 1 + 4
)

// MarshalBinary encodes the profile.
func (p *Profile) MarshalBinary() ([]byte, error) {
	n := len(p.alphabet)
	size := headerSize + n + p.length*(1+8+n+8*n) + 4
	buf := make([]byte, 0, size)

	buf = append(buf, magic...)
	buf = append(buf, formatVersion, byte(n))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.length))
	buf = append(buf, p.alphabet...)

	for i := 0; i < p.length; i++ {
		buf = append(buf, byte(p.consensus[i]))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.neff[i]))
		for _, s := range p.pssm[i*n : (i+1)*n] {
			buf = append(buf, byte(s))
		}
		for _, f := range p.freq[i*n : (i+1)*n] {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		}
	}

	return binary.LittleEndian.AppendUint32(buf, hash.CRC32C(buf)), nil
}

// UnmarshalBinary decodes data into p, reusing p's buffers.
func (p *Profile) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize+4 {
		return fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(data))
	}
	body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])
	if hash.CRC32C(body) != sum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if string(body[:4]) != magic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if body[4] != formatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, body[4])
	}

	n := int(body[5])
	length := int(binary.LittleEndian.Uint32(body[6:]))
	if n == 0 || len(body) != headerSize+n+length*(1+8+n+8*n) {
		return fmt.Errorf("%w: size does not match header", ErrCorrupt)
	}

	off := headerSize
	p.alphabet = string(body[off : off+n])
	off += n

	p.length = length
	p.pssm = grow(p.pssm, length*n)
	p.freq = grow(p.freq, length*n)
	p.neff = grow(p.neff, length)
	p.consensus = grow(p.consensus, length)

	for i := 0; i < length; i++ {
		c := int8(body[off])
		if c < 0 || int(c) >= n {
			return fmt.Errorf("%w: consensus index %d out of range", ErrCorrupt, c)
		}
		p.consensus[i] = c
		off++
		p.neff[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[off:]))
		off += 8
		for a := 0; a < n; a++ {
			p.pssm[i*n+a] = int8(body[off+a])
		}
		off += n
		for a := 0; a < n; a++ {
			p.freq[i*n+a] = math.Float64frombits(binary.LittleEndian.Uint64(body[off:]))
			off += 8
		}
	}
	return nil
}

// Unmarshal decodes a profile written by MarshalBinary.
func Unmarshal(data []byte) (*Profile, error) {
	p := &Profile{}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}
