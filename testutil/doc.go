// Package testutil provides testing utilities for seqsearch.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Sequences
//
//	rng := testutil.NewRNG(seed)
//	q := rng.Sequence(testutil.AminoAlphabet, 120)
//	t := rng.Mutate(q, testutil.AminoAlphabet, 0.1) // ~10% substitutions
//
// # Fixture Databases
//
//	testutil.WriteDB(t, path, []testutil.Record{{Key: "q1", Data: q}})
package testutil
