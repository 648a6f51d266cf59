// Package engine runs the verification stage of a sequence similarity
// search.
//
// For every query in the prefilter database the engine reads the query's
// candidate list, computes exact local alignments against the candidate
// targets, filters them by coverage and e-value, and writes the accepted
// hits to the result database under the query key.
//
// # Per-query pipeline
//
//   - Resolve the query sequence (or profile) by key.
//   - Parse at most maxAlnNum candidates "targetKey\tscore\teval\n".
//     Malformed lines are logged and skipped.
//   - Reject pairs whose length ratio min(Lq,Lt)/max(Lq,Lt) is below the
//     coverage threshold without aligning them.
//   - Align the rest, sort by score desc, e-value asc, target key asc.
//   - Keep hits with eval <= EvalThr, qcov >= CovThr and dbcov >= CovThr.
//   - Write "key\tscore\tqcov\tdbcov\tseqId\teval\n" lines, possibly none.
//
// # Concurrency
//
// Config.Workers goroutines pull chunks of query ids from a shared cursor.
// Each worker owns an arena (sequences, aligner, scratch and output buffers)
// and a result store slot; nothing else is shared except the zero-hit log,
// which is serialized by a mutex. Counters are kept per worker and merged
// after all workers finish.
//
// A missing record or an output blob that reaches Config.OutputCapacity is
// fatal: the run stops and Run returns the error.
package engine
