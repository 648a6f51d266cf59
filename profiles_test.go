package seqsearch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqsearch"
	"github.com/hupe1980/seqsearch/profile"
	"github.com/hupe1980/seqsearch/submat"
	"github.com/hupe1980/seqsearch/testutil"
)

// writeMSA writes an aligned FASTA file whose first row is ref and returns
// its path.
func writeMSA(t *testing.T, dir, name string, ref []byte, rows ...[]byte) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, ">%s reference\n%s\n", name, ref)
	for i, r := range rows {
		fmt.Fprintf(&b, ">%s_%d\n%s\n", name, i, r)
	}
	path := filepath.Join(dir, name+".fasta")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func homologs(rng *testutil.RNG, ref []byte, n int) [][]byte {
	rows := make([][]byte, n)
	for i := range rows {
		rows[i] = rng.Mutate(ref, testutil.AminoAlphabet, 0.1)
	}
	return rows
}

func TestLoadMSA(t *testing.T) {
	dir := t.TempDir()
	path := writeMSA(t, dir, "fam1", []byte("AC-DE"), []byte("ACWDE"), []byte("A--DE"))

	key, msa, err := seqsearch.LoadMSA(path, submat.BLOSUM62(), seqsearch.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "fam1", key)
	assert.Equal(t, 4, msa.Len())
	assert.Equal(t, 3, msa.Depth())
	assert.Equal(t, profile.Gap, msa.Row(2)[1])
}

func TestLoadMSA_A3M(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fam.a3m")
	require.NoError(t, os.WriteFile(path, []byte(">q\nACDE\n>h1\nAcwCD-\n"), 0o644))

	key, msa, err := seqsearch.LoadMSA(path, submat.BLOSUM62(), seqsearch.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "q", key)
	assert.Equal(t, 4, msa.Len())

	// Read as aligned FASTA the rows have different widths.
	_, _, err = seqsearch.LoadMSA(path, submat.BLOSUM62(), seqsearch.FormatFASTA)
	assert.ErrorIs(t, err, seqsearch.ErrInvalidMSA)
}

func TestParseMSAFormat(t *testing.T) {
	for in, want := range map[string]seqsearch.MSAFormat{
		"":      seqsearch.FormatAuto,
		"auto":  seqsearch.FormatAuto,
		"FASTA": seqsearch.FormatFASTA,
		"a3m":   seqsearch.FormatA3M,
	} {
		got, err := seqsearch.ParseMSAFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := seqsearch.ParseMSAFormat("stockholm")
	assert.ErrorIs(t, err, seqsearch.ErrInvalidConfig)
}

func TestBuildProfile(t *testing.T) {
	rng := testutil.NewRNG(11)
	dir := t.TempDir()
	ref := rng.Sequence(testutil.AminoAlphabet, 50)
	path := writeMSA(t, dir, "fam", ref, homologs(rng, ref, 6)...)

	p, err := seqsearch.BuildProfile(path, seqsearch.ProfileConfig{})
	require.NoError(t, err)
	assert.Equal(t, len(ref), p.Len())
	assert.Equal(t, 20, p.AlphabetSize())
	for i := range p.Len() {
		assert.GreaterOrEqual(t, p.Neff(i), 1.0-1e-9)
	}

	_, err = seqsearch.BuildProfile(path, seqsearch.ProfileConfig{PCA: -1})
	assert.ErrorIs(t, err, seqsearch.ErrInvalidConfig)
}

func TestBuildProfiles(t *testing.T) {
	rng := testutil.NewRNG(5)
	dir := t.TempDir()

	var files []string
	refs := map[string][]byte{}
	for i := range 5 {
		name := testutil.Key("fam", i)
		ref := rng.Sequence(testutil.AminoAlphabet, 40+rng.Intn(30))
		refs[name] = ref
		files = append(files, writeMSA(t, dir, name, ref, homologs(rng, ref, 3)...))
	}

	out := filepath.Join(dir, "profiles")
	n, err := seqsearch.BuildProfiles(context.Background(), seqsearch.ProfileConfig{
		MSAFiles:    files,
		OutputDB:    out,
		Workers:     3,
		Compression: "lz4",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	records := testutil.ReadAll(t, out)
	require.Len(t, records, 5)
	for key, data := range records {
		p, err := profile.Unmarshal([]byte(data))
		require.NoError(t, err, key)
		assert.Equal(t, len(refs[key]), p.Len(), key)
	}
}

func TestBuildProfiles_Errors(t *testing.T) {
	dir := t.TempDir()
	a := writeMSA(t, dir, "dup", []byte("ACDE"))
	b := filepath.Join(dir, "other.fasta")
	require.NoError(t, os.WriteFile(b, []byte(">dup\nWWWW\n"), 0o644))
	bad := filepath.Join(dir, "bad.fasta")
	require.NoError(t, os.WriteFile(bad, []byte(">x\nACDE\n>y\nAC\n"), 0o644))

	ctx := context.Background()
	out := filepath.Join(dir, "out")

	_, err := seqsearch.BuildProfiles(ctx, seqsearch.ProfileConfig{MSAFiles: []string{a, b}, OutputDB: out})
	assert.ErrorIs(t, err, seqsearch.ErrInvalidConfig)

	_, err = seqsearch.BuildProfiles(ctx, seqsearch.ProfileConfig{MSAFiles: []string{bad}, OutputDB: out})
	assert.ErrorIs(t, err, seqsearch.ErrInvalidMSA)

	_, err = seqsearch.BuildProfiles(ctx, seqsearch.ProfileConfig{OutputDB: out})
	assert.ErrorIs(t, err, seqsearch.ErrInvalidConfig)

	_, err = seqsearch.BuildProfiles(ctx, seqsearch.ProfileConfig{MSAFiles: []string{a}})
	assert.ErrorIs(t, err, seqsearch.ErrInvalidConfig)

	assert.NoFileExists(t, out)
}

func TestSearch_ProfileQueries(t *testing.T) {
	rng := testutil.NewRNG(21)
	dir := t.TempDir()

	ref := rng.Sequence(testutil.AminoAlphabet, 80)
	msa := writeMSA(t, dir, "fam", ref, homologs(rng, ref, 5)...)

	profiles := filepath.Join(dir, "profiles")
	_, err := seqsearch.BuildProfiles(context.Background(), seqsearch.ProfileConfig{
		MSAFiles: []string{msa},
		OutputDB: profiles,
	})
	require.NoError(t, err)

	targets := filepath.Join(dir, "targets")
	testutil.WriteDB(t, targets, []testutil.Record{
		{Key: "hom", Data: rng.Mutate(ref, testutil.AminoAlphabet, 0.15)},
		{Key: "rnd", Data: rng.Sequence(testutil.AminoAlphabet, 80)},
	})
	pref := filepath.Join(dir, "pref")
	testutil.WriteDB(t, pref, []testutil.Record{
		{Key: "fam", Data: []byte("hom\t30\t0\nrnd\t2\t1\n")},
	})

	cfg := seqsearch.DefaultConfig()
	cfg.QueryDB = profiles
	cfg.TargetDB = targets
	cfg.PrefilterDB = pref
	cfg.OutputDB = filepath.Join(dir, "aln")
	cfg.ProfileQueries = true

	stats, err := seqsearch.Search(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Queries)
	assert.Equal(t, 1, stats.Passed)

	rec := testutil.ReadAll(t, cfg.OutputDB)["fam"]
	assert.True(t, strings.HasPrefix(rec, "hom\t"), rec)
}
