// Package aligner implements the Smith-Waterman local alignment kernel with
// affine gap costs (Gotoh).
//
// A Matcher owns its dynamic-programming buffers and is reused across many
// alignments by a single goroutine. Alignment runs in three passes:
//
//  1. a linear-space forward pass finds the best score and its end cell,
//  2. a linear-space reverse pass from that cell finds the start cell,
//  3. a global alignment of the bounded region with traceback counts
//     identities and alignment columns.
//
// Queries are either plain sequences (scored with the substitution matrix)
// or profiles (scored with the position-specific scoring matrix).
package aligner
