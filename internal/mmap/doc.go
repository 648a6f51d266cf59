// Package mmap provides read-only memory-mapped file access.
//
// Sequence and prefilter databases are opened once and then read by every
// worker at the same time. Mapping the data file lets those reads happen
// without locks and without copying record bytes out of the page cache.
//
//	m, err := mmap.Open("targets")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessRandom)
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch slices returned by Bytes after Close returns.
package mmap
