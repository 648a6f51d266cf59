// Package seqsearch verifies prefilter candidates of a sequence database
// search with full Smith-Waterman alignments, and builds position-specific
// scoring profiles from multiple sequence alignments.
//
// # Quick Start
//
// Verify a prefilter result:
//
//	cfg := seqsearch.DefaultConfig()
//	cfg.QueryDB, cfg.TargetDB = "q", "t"
//	cfg.PrefilterDB, cfg.OutputDB = "pref", "aln"
//	cfg.Workers = runtime.NumCPU()
//	stats, err := seqsearch.Search(ctx, cfg)
//
// Every query gets one record in the output database. Each record holds one
// line per accepted hit, best first:
//
//	targetKey  score  qcov  dbcov  seqId  eval
//
// Build profiles from alignments and search with them:
//
//	n, err := seqsearch.BuildProfiles(ctx, seqsearch.ProfileConfig{
//	    MSAFiles: files,
//	    OutputDB: "profiles",
//	})
//	cfg.QueryDB, cfg.ProfileQueries = "profiles", true
//
// Publish the result to object storage:
//
//	err = seqsearch.Publish(ctx, store, "runs/2024-06-01", "aln")
//
// # Databases
//
// Databases are a data file plus a "<data>.index" file with one
// "key\toffset\tlength" line per record, records NUL-terminated. Writers add
// a "<data>.manifest" with checksums and the record compression.
//
// # Errors
//
// Missing records and overflowing result blobs abort a run
// (ErrMissingRecord, ErrCapacityExceeded). Malformed candidate lines are
// logged and skipped. Threshold rejections are counted in Stats.
package seqsearch
