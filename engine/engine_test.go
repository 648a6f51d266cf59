package engine

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqsearch/aligner"
	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/internal/resource"
	"github.com/hupe1980/seqsearch/profile"
	"github.com/hupe1980/seqsearch/sequence"
	"github.com/hupe1980/seqsearch/submat"
	"github.com/hupe1980/seqsearch/testutil"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxSeqLen = 256
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, q, tg SequenceStore, p PrefilterStore, r ResultStore, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, q, tg, p, r, submat.BLOSUM62(), opts...)
	require.NoError(t, err)
	return e
}

// align computes the result the engine is expected to produce for a pair.
func align(q, tg []byte, dbSize int) aligner.Result {
	m := submat.BLOSUM62()
	qs := sequence.NewFromMatrix(0, m)
	ts := sequence.NewFromMatrix(0, m)
	qs.Map(0, "q", q)
	ts.Map(0, "t", tg)
	return aligner.NewMatcher(m, 0).Align(qs, ts, dbSize)
}

func hitKeys(blob string) []string {
	var keys []string
	for _, line := range strings.Split(strings.TrimSuffix(blob, "\n"), "\n") {
		if line == "" {
			continue
		}
		key, _, _ := strings.Cut(line, "\t")
		keys = append(keys, key)
	}
	return keys
}

func TestEngine_SelfHit(t *testing.T) {
	rng := testutil.NewRNG(1)
	seq := rng.Sequence(testutil.AminoAlphabet, 120)

	seqs := newMemSeqStore().put("S1", seq)
	pre := (&memPrefilter{}).add("S1", "S1")
	res := newMemResults()

	e := newTestEngine(t, testConfig(), seqs, seqs, pre, res)
	stats, err := e.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Queries)
	assert.Equal(t, 1, stats.Attempted)
	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 0, stats.ZeroHitQueries)
	assert.Equal(t, 1.0, stats.PassRate())

	fields := strings.Split(strings.TrimSuffix(res.blobs["S1"], "\n"), "\t")
	require.Len(t, fields, 6)
	assert.Equal(t, "S1", fields[0])
	assert.Equal(t, "1.000", fields[2])
	assert.Equal(t, "1.000", fields[3])
	assert.Equal(t, "1.000", fields[4])

	// Shared query and target store is closed once.
	assert.Equal(t, int32(1), seqs.closed.Load())
	assert.Equal(t, int32(1), pre.closed.Load())
	assert.Equal(t, int32(1), res.closed.Load())
}

func TestEngine_LengthRatioRejection(t *testing.T) {
	rng := testutil.NewRNG(2)
	queries := newMemSeqStore().put("Q", rng.Sequence(testutil.AminoAlphabet, 100))
	targets := newMemSeqStore().put("T", rng.Sequence(testutil.AminoAlphabet, 40))
	pre := (&memPrefilter{}).add("Q", "T")
	res := newMemResults()

	var zh bytes.Buffer
	e := newTestEngine(t, testConfig(), queries, targets, pre, res, WithZeroHitLog(&zh))
	stats, err := e.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 0, stats.Attempted)
	assert.Equal(t, Rejections{LengthRatio: 1}, stats.Rejections)
	assert.Equal(t, 1, stats.ZeroHitQueries)
	assert.True(t, stats.ZeroHit.Contains(0))

	blob, ok := res.blobs["Q"]
	assert.True(t, ok, "zero-hit query still gets a blob")
	assert.Empty(t, blob)

	assert.Equal(t, "Q\tcandidates=1\tlength_ratio=1\teval=0\tqcov=0\tdbcov=0\n", zh.String())
	assert.Equal(t, int32(1), queries.closed.Load())
	assert.Equal(t, int32(1), targets.closed.Load())
}

func TestEngine_EvalThreshold(t *testing.T) {
	rng := testutil.NewRNG(3)
	q := rng.Sequence(testutil.AminoAlphabet, 100)
	near := rng.Mutate(q, testutil.AminoAlphabet, 0.1)
	far := rng.Mutate(q, testutil.AminoAlphabet, 0.5)

	e1 := align(q, near, 2).Eval
	e2 := align(q, far, 2).Eval
	require.Less(t, e1, e2)

	cfg := testConfig()
	cfg.CovThr = 0
	cfg.EvalThr = math.Sqrt(e1 * e2)

	queries := newMemSeqStore().put("Q", q)
	targets := newMemSeqStore().put("close", near).put("far", far)
	pre := (&memPrefilter{}).add("Q", "far", "close")
	res := newMemResults()

	e := newTestEngine(t, cfg, queries, targets, pre, res)
	stats, err := e.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"close"}, hitKeys(res.blobs["Q"]))
	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 1, stats.Rejections.Eval)
}

func TestEngine_HitsSortedByScore(t *testing.T) {
	rng := testutil.NewRNG(4)
	q := rng.Sequence(testutil.AminoAlphabet, 100)

	cfg := testConfig()
	cfg.CovThr = 0
	cfg.EvalThr = math.Inf(1)

	queries := newMemSeqStore().put("Q", q)
	targets := newMemSeqStore().
		put("t30", rng.Mutate(q, testutil.AminoAlphabet, 0.3)).
		put("t0", q).
		put("t10", rng.Mutate(q, testutil.AminoAlphabet, 0.1))
	pre := (&memPrefilter{}).add("Q", "t30", "t0", "t10")
	res := newMemResults()

	e := newTestEngine(t, cfg, queries, targets, pre, res)
	_, err := e.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"t0", "t10", "t30"}, hitKeys(res.blobs["Q"]))
}

func TestEngine_MaxAlnNum(t *testing.T) {
	rng := testutil.NewRNG(5)
	q := rng.Sequence(testutil.AminoAlphabet, 60)

	queries := newMemSeqStore().put("Q", q)
	targets := newMemSeqStore()
	var keys []string
	for i := range 10 {
		k := testutil.Key("T", i)
		targets.put(k, rng.Mutate(q, testutil.AminoAlphabet, 0.2))
		keys = append(keys, k)
	}
	pre := (&memPrefilter{}).add("Q", keys...)

	cfg := testConfig()
	cfg.CovThr = 0
	e := newTestEngine(t, cfg, queries, targets, pre, newMemResults())
	stats, err := e.Run(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Candidates)
	assert.LessOrEqual(t, stats.Attempted, 3)
}

func TestEngine_MalformedCandidatesSkipped(t *testing.T) {
	rng := testutil.NewRNG(6)
	q := rng.Sequence(testutil.AminoAlphabet, 60)

	queries := newMemSeqStore().put("Q", q)
	targets := newMemSeqStore().put("T", q)
	pre := (&memPrefilter{}).addRaw("Q", "garbage\nT\tnan?\t1\nT\t10\t1e-3\n")
	res := newMemResults()

	e := newTestEngine(t, testConfig(), queries, targets, pre, res)
	stats, err := e.Run(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, []string{"T"}, hitKeys(res.blobs["Q"]))
}

func TestEngine_MissingTarget(t *testing.T) {
	rng := testutil.NewRNG(7)
	queries := newMemSeqStore().put("Q", rng.Sequence(testutil.AminoAlphabet, 50))
	targets := newMemSeqStore()
	pre := (&memPrefilter{}).add("Q", "ghost")
	res := newMemResults()

	e := newTestEngine(t, testConfig(), queries, targets, pre, res)
	_, err := e.Run(context.Background(), 10)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrMissingRecord)
	assert.ErrorIs(t, err, dbstore.ErrNotFound)

	var mre *MissingRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "target", mre.Store)
	assert.Equal(t, "ghost", mre.Key)

	assert.Equal(t, int32(0), res.closed.Load())
	assert.Equal(t, int32(1), res.aborted.Load())
	assert.Equal(t, int32(1), targets.closed.Load())
}

func TestEngine_MissingQuery(t *testing.T) {
	queries := newMemSeqStore()
	targets := newMemSeqStore().put("T", []byte("MKTAYIAKQR"))
	pre := (&memPrefilter{}).add("Q", "T")

	e := newTestEngine(t, testConfig(), queries, targets, pre, newMemResults())
	_, err := e.Run(context.Background(), 10)

	var mre *MissingRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "query", mre.Store)
	assert.Equal(t, "Q", mre.Key)
}

func TestEngine_CapacityExceeded(t *testing.T) {
	seq := []byte("MKTAYIAKQRQISFVKSHFSRQ")
	seqs := newMemSeqStore().put("S", seq)
	pre := (&memPrefilter{}).add("S", "S")

	cfg := testConfig()
	cfg.OutputCapacity = 10
	e := newTestEngine(t, cfg, seqs, seqs, pre, newMemResults())
	_, err := e.Run(context.Background(), 10)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	var cee *CapacityExceededError
	require.ErrorAs(t, err, &cee)
	assert.Equal(t, "S", cee.QueryKey)
	assert.Equal(t, 10, cee.Capacity)
	assert.Greater(t, cee.Required, 10)
}

func TestEngine_CapacityCheckedBeforeGrowth(t *testing.T) {
	seq := []byte("MKTAYIAKQRQISFVKSHFSRQ")
	seqs := newMemSeqStore()
	var keys []string
	for i := range 8 {
		k := testutil.Key("S", i)
		seqs.put(k, seq)
		keys = append(keys, k)
	}
	pre := (&memPrefilter{}).add(keys[0], keys...)

	// A few hit lines fit, eight do not. The buffer must stay within the
	// capacity, which is below the memory limit.
	cfg := testConfig()
	cfg.OutputCapacity = 200
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 512})
	res := newMemResults()
	e := newTestEngine(t, cfg, seqs, seqs, pre, res, WithResourceController(rc))
	_, err := e.Run(context.Background(), 10)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NotErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	var cee *CapacityExceededError
	require.ErrorAs(t, err, &cee)
	assert.GreaterOrEqual(t, cee.Required, 200)
	assert.Less(t, cee.Required, 300)
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, int32(1), res.aborted.Load())
}

func TestEngine_MemoryLimit(t *testing.T) {
	seqs := newMemSeqStore().put("S", []byte("MKTAYIAKQRQISFVKSHFSRQ"))
	pre := (&memPrefilter{}).add("S", "S")

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	e := newTestEngine(t, testConfig(), seqs, seqs, pre, newMemResults(), WithResourceController(rc))
	_, err := e.Run(context.Background(), 10)

	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestEngine_InvalidArguments(t *testing.T) {
	seqs := newMemSeqStore()
	pre := &memPrefilter{}

	_, err := New(testConfig(), seqs, seqs, pre, newMemResults(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(testConfig(), nil, seqs, pre, newMemResults(), submat.BLOSUM62())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	e := newTestEngine(t, testConfig(), seqs, seqs, pre, newMemResults())
	_, err = e.Run(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = e.Run(context.Background(), 10)
	assert.ErrorIs(t, err, ErrInvalidConfig, "an engine runs once")
}

func TestEngine_EmptyPrefilter(t *testing.T) {
	seqs := newMemSeqStore()
	pre := &memPrefilter{}
	e := newTestEngine(t, testConfig(), seqs, seqs, pre, newMemResults())

	stats, err := e.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Queries)
	assert.Equal(t, 0.0, stats.HitsPerQuery())
}

func TestEngine_Cancelled(t *testing.T) {
	seqs := newMemSeqStore().put("S", []byte("MKTAYIAKQR"))
	pre := (&memPrefilter{}).add("S", "S")
	res := newMemResults()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, testConfig(), seqs, seqs, pre, res)
	_, err := e.Run(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), res.closed.Load())
	assert.Equal(t, int32(1), res.aborted.Load())
}

func TestEngine_ProgressAndMetrics(t *testing.T) {
	rng := testutil.NewRNG(8)
	seqs := newMemSeqStore()
	pre := &memPrefilter{}
	for i := range 25 {
		k := testutil.Key("S", i)
		seqs.put(k, rng.Sequence(testutil.AminoAlphabet, 50+i))
		pre.add(k, k)
	}

	cfg := testConfig()
	cfg.Workers = 3
	cfg.ChunkSize = 4

	var calls, last atomic.Int64
	obs := newCountingObserver()
	res := newMemResults()

	e := newTestEngine(t, cfg, seqs, seqs, pre, res,
		WithMetricsObserver(obs),
		WithProgress(func(done, total int) {
			assert.Equal(t, 25, total)
			calls.Add(1)
			for {
				prev := last.Load()
				if int64(done) <= prev || last.CompareAndSwap(prev, int64(done)) {
					break
				}
			}
		}))
	stats, err := e.Run(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 25, stats.Queries)
	assert.Equal(t, int64(25), last.Load())
	assert.Equal(t, int64(7), calls.Load()) // ceil(25/4) chunks

	assert.Equal(t, int64(25), obs.queries.Load())
	assert.Equal(t, int64(stats.Candidates), obs.candidates.Load())
	assert.Equal(t, int64(stats.Attempted), obs.attempted.Load())
	assert.Equal(t, int64(stats.Passed), obs.accepted.Load())
	assert.Len(t, res.blobs, 25)
	assert.LessOrEqual(t, len(res.slots), 3)
}

func TestEngine_ProfileQueries(t *testing.T) {
	m := submat.BLOSUM62()
	rng := testutil.NewRNG(9)
	seq := rng.Sequence(testutil.AminoAlphabet, 80)

	msa, err := profile.NewMSA([][]byte{seq}, m)
	require.NoError(t, err)
	b, err := profile.NewBuilder(m)
	require.NoError(t, err)
	p, err := b.Build(msa)
	require.NoError(t, err)
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	queries := newMemSeqStore().put("P", data)
	targets := newMemSeqStore().put("T", seq).put("R", rng.Sequence(testutil.AminoAlphabet, 80))
	pre := (&memPrefilter{}).add("P", "R", "T")
	res := newMemResults()

	e := newTestEngine(t, testConfig(), queries, targets, pre, res, WithProfileQueries())
	stats, err := e.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, []string{"T"}, hitKeys(res.blobs["P"]))
}

func TestEngine_ProfileAlphabetMismatch(t *testing.T) {
	nm := submat.NucleotideMatrix()
	msa, err := profile.NewMSA([][]byte{[]byte("ACGTACGT")}, nm)
	require.NoError(t, err)
	b, err := profile.NewBuilder(nm)
	require.NoError(t, err)
	p, err := b.Build(msa)
	require.NoError(t, err)
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	queries := newMemSeqStore().put("P", data)
	targets := newMemSeqStore().put("T", []byte("MKTAYIAK"))
	pre := (&memPrefilter{}).add("P", "T")

	e := newTestEngine(t, testConfig(), queries, targets, pre, newMemResults(), WithProfileQueries())
	_, err = e.Run(context.Background(), 10)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// fixture writes query, target and prefilter databases with related
// sequences and returns their paths.
func fixture(t *testing.T, dir string) (queries, targets, prefilter string) {
	t.Helper()
	rng := testutil.NewRNG(42)

	var qs, ts, ps []testutil.Record
	for i := range 30 {
		qk := testutil.Key("Q", i)
		q := rng.Sequence(testutil.AminoAlphabet, 60+rng.Intn(60))
		qs = append(qs, testutil.Record{Key: qk, Data: q})

		var lines strings.Builder
		for j, rate := range []float64{0.05, 0.3, 0.6} {
			tk := testutil.Key("T", i*10+j)
			ts = append(ts, testutil.Record{Key: tk, Data: rng.Mutate(q, testutil.AminoAlphabet, rate)})
			lines.WriteString(tk + "\t10\t0.1\n")
		}
		tk := testutil.Key("T", i*10+9)
		ts = append(ts, testutil.Record{Key: tk, Data: rng.Sequence(testutil.AminoAlphabet, 40+rng.Intn(100))})
		lines.WriteString(tk + "\t5\t1\n")

		ps = append(ps, testutil.Record{Key: qk, Data: []byte(lines.String())})
	}

	queries = filepath.Join(dir, "queries")
	targets = filepath.Join(dir, "targets")
	prefilter = filepath.Join(dir, "prefilter")
	testutil.WriteDB(t, queries, qs)
	testutil.WriteDB(t, targets, ts)
	testutil.WriteDB(t, prefilter, ps)
	return queries, targets, prefilter
}

func runOnDisk(t *testing.T, qPath, tPath, pPath, out string, workers int) Stats {
	t.Helper()

	q, err := dbstore.Open(qPath)
	require.NoError(t, err)
	tg, err := dbstore.Open(tPath)
	require.NoError(t, err)
	p, err := dbstore.Open(pPath)
	require.NoError(t, err)
	w, err := dbstore.Create(out, workers)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Workers = workers
	cfg.ChunkSize = 2
	cfg.EvalThr = 1e-3
	cfg.CovThr = 0.5

	e, err := New(cfg, q, tg, p, w, submat.BLOSUM62())
	require.NoError(t, err)
	stats, err := e.Run(context.Background(), 10)
	require.NoError(t, err)
	return stats
}

func TestEngine_Deterministic(t *testing.T) {
	dir := t.TempDir()
	q, tg, p := fixture(t, dir)

	a := filepath.Join(dir, "aln_a")
	b := filepath.Join(dir, "aln_b")
	sa := runOnDisk(t, q, tg, p, a, 1)
	sb := runOnDisk(t, q, tg, p, b, 1)
	assert.Equal(t, sa.Passed, sb.Passed)

	for _, path := range []func(string) string{
		func(s string) string { return s },
		dbstore.IndexPath,
	} {
		da, err := os.ReadFile(path(a))
		require.NoError(t, err)
		db, err := os.ReadFile(path(b))
		require.NoError(t, err)
		assert.Equal(t, da, db)
	}
}

func TestEngine_WorkerCountInvariance(t *testing.T) {
	dir := t.TempDir()
	q, tg, p := fixture(t, dir)

	one := filepath.Join(dir, "aln_1")
	four := filepath.Join(dir, "aln_4")
	s1 := runOnDisk(t, q, tg, p, one, 1)
	s4 := runOnDisk(t, q, tg, p, four, 4)

	assert.Equal(t, 30, s1.Queries)
	assert.Equal(t, s1.Candidates, s4.Candidates)
	assert.Equal(t, s1.Attempted, s4.Attempted)
	assert.Equal(t, s1.Passed, s4.Passed)
	assert.Equal(t, s1.Rejections, s4.Rejections)
	assert.True(t, s1.ZeroHit.Equals(s4.ZeroHit))
	assert.Greater(t, s1.Passed, 0)

	assert.Equal(t, testutil.ReadAll(t, one), testutil.ReadAll(t, four))
}
