// Package profile builds position-specific scoring matrices (PSSMs) from
// multiple sequence alignments.
//
// The pipeline per MSA is:
//
//  1. Position-based sequence weights (Henikoff & Henikoff 1994).
//  2. Weighted residue frequencies per column (match weights).
//  3. Column diversity Neff = exp(entropy) of the frequencies.
//  4. Pseudocount admixture from the substitution matrix conditionals,
//     scaled down as Neff grows.
//  5. Log-odds scores in bit-factor units, rounded and saturated to int8.
//  6. Consensus residue per column.
//
// A Builder owns scratch buffers and is used by one goroutine at a time.
// BuildAll fans independent MSAs out over a worker pool with one Builder per
// worker.
//
// # Saturation
//
// PSSM scores are stored as int8. Values that round outside [-128, 127] are
// clamped to the nearest bound, so very rare residues under strong
// conservation all score -128. Scores from different profiles are comparable
// only when built with the same bit factor and score bias.
package profile
