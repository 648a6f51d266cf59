// Package fs abstracts the file system operations used by database writers.
//
// [LocalFS] is the production implementation. [FaultyFS] wraps another
// FileSystem and injects write, sync or close failures for files whose name
// contains a configured pattern, so tests can check that a failing result
// slot aborts a run instead of leaving a half-written database behind.
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".slot1", fs.Fault{FailAfterBytes: 64})
//	w, _ := dbstore.Create(path, 2, dbstore.WithFileSystem(ffs))
//
// There is no context.Context here: local file operations are not
// interruptible at the syscall level. Remote storage lives in blobstore.
package fs
