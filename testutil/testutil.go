package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/hupe1980/seqsearch/dbstore"
)

// Residue alphabets without the unknown symbol.
const (
	AminoAlphabet      = "ARNDCQEGHILKMFPSTWYV"
	NucleotideAlphabet = "ACGT"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Sequence returns n residues drawn uniformly from alphabet.
func (r *RNG) Sequence(alphabet string, n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return out
}

// Mutate returns a copy of s where each position is substituted with
// probability rate by a different residue of alphabet.
func (r *RNG) Mutate(s []byte, alphabet string, rate float64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]byte(nil), s...)
	for i := range out {
		if r.rand.Float64() >= rate {
			continue
		}
		for {
			c := alphabet[r.rand.Intn(len(alphabet))]
			if c != out[i] {
				out[i] = c
				break
			}
		}
	}
	return out
}

// Record is one fixture database entry.
type Record struct {
	Key  string
	Data []byte
}

// WriteDB writes records to a database at path through a single slot.
func WriteDB(tb testing.TB, path string, records []Record, opts ...dbstore.WriterOption) {
	tb.Helper()

	w, err := dbstore.Create(path, 1, opts...)
	if err != nil {
		tb.Fatalf("create %s: %v", path, err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Data, rec.Key, 0); err != nil {
			tb.Fatalf("write %s/%s: %v", path, rec.Key, err)
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("close %s: %v", path, err)
	}
}

// OpenDB opens the database at path and closes it at test cleanup.
func OpenDB(tb testing.TB, path string) *dbstore.Reader {
	tb.Helper()

	r, err := dbstore.Open(path)
	if err != nil {
		tb.Fatalf("open %s: %v", path, err)
	}
	tb.Cleanup(func() { _ = r.Close() })
	return r
}

// ReadAll returns every record of the database at path, keyed by record key.
func ReadAll(tb testing.TB, path string) map[string]string {
	tb.Helper()

	r, err := dbstore.Open(path)
	if err != nil {
		tb.Fatalf("open %s: %v", path, err)
	}
	defer r.Close()

	out := make(map[string]string, r.Size())
	for id := 0; id < r.Size(); id++ {
		data, err := r.GetByID(id)
		if err != nil {
			tb.Fatalf("read %s/%d: %v", path, id, err)
		}
		out[r.Key(id)] = string(data)
	}
	return out
}

// Key formats a fixture key.
func Key(prefix string, i int) string {
	return fmt.Sprintf("%s%05d", prefix, i)
}
