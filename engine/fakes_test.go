package engine

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/seqsearch/dbstore"
)

type memSeqStore struct {
	recs   map[string][]byte
	closed atomic.Int32
}

func newMemSeqStore() *memSeqStore {
	return &memSeqStore{recs: make(map[string][]byte)}
}

func (s *memSeqStore) put(key string, data []byte) *memSeqStore {
	s.recs[key] = data
	return s
}

func (s *memSeqStore) GetByKey(key string) ([]byte, error) {
	d, ok := s.recs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dbstore.ErrNotFound, key)
	}
	return d, nil
}

func (s *memSeqStore) Size() int { return len(s.recs) }

func (s *memSeqStore) Close() error {
	s.closed.Add(1)
	return nil
}

type memPrefilter struct {
	keys   []string
	recs   [][]byte
	closed atomic.Int32
}

// add appends a candidate list. Each target becomes "key\t0\t0".
func (p *memPrefilter) add(query string, targets ...string) *memPrefilter {
	var b strings.Builder
	for _, t := range targets {
		b.WriteString(t)
		b.WriteString("\t0\t0\n")
	}
	return p.addRaw(query, b.String())
}

func (p *memPrefilter) addRaw(query, record string) *memPrefilter {
	p.keys = append(p.keys, query)
	p.recs = append(p.recs, []byte(record))
	return p
}

func (p *memPrefilter) Size() int                      { return len(p.keys) }
func (p *memPrefilter) Key(id int) string              { return p.keys[id] }
func (p *memPrefilter) GetByID(id int) ([]byte, error) { return p.recs[id], nil }

func (p *memPrefilter) Close() error {
	p.closed.Add(1)
	return nil
}

type memResults struct {
	mu     sync.Mutex
	blobs  map[string]string
	slots  map[int]bool
	closed  atomic.Int32
	aborted atomic.Int32
}

func newMemResults() *memResults {
	return &memResults{blobs: make(map[string]string), slots: make(map[int]bool)}
}

func (r *memResults) Write(data []byte, key string, slot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[key] = string(data)
	r.slots[slot] = true
	return nil
}

func (r *memResults) Close() error {
	r.closed.Add(1)
	return nil
}

func (r *memResults) Abort() error {
	r.aborted.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.blobs)
	return nil
}

type countingObserver struct {
	queries    atomic.Int64
	candidates atomic.Int64
	attempted  atomic.Int64
	accepted   atomic.Int64
	bytes      atomic.Int64

	mu         sync.Mutex
	rejections map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{rejections: make(map[string]int)}
}

func (o *countingObserver) OnQuery(_ time.Duration, candidates, attempted, accepted int) {
	o.queries.Add(1)
	o.candidates.Add(int64(candidates))
	o.attempted.Add(int64(attempted))
	o.accepted.Add(int64(accepted))
}

func (o *countingObserver) OnRejection(reason string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejections[reason] += n
}

func (o *countingObserver) OnThroughput(_ string, bytes int64) {
	o.bytes.Add(bytes)
}
