// Package dbstore implements an indexed key-value database of sequence-like
// records compatible with the ffindex layout.
//
// A database is a data file plus an index file next to it:
//
//	<path>          record bytes, each record followed by a NUL terminator
//	<path>.index    one "key\toffset\tlength\n" line per record, sorted by key
//	<path>.manifest JSON manifest (format version, compression, checksums)
//
// The length in the index includes the terminator. Databases written by other
// ffindex tools have no manifest and are read as uncompressed.
//
// Reader maps the data file read-only and serves lock-free concurrent
// lookups by key or by position. Writer is split into slots: each writer
// goroutine owns one slot and appends to its own temporary file, so writes
// need no locking. Close merges the slots, sorts the index and writes the
// manifest; records become readable only after Close.
package dbstore
