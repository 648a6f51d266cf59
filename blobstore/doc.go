// Package blobstore abstracts the storage that finished databases are
// published to.
//
// A published database is a set of named blobs (data file, index and
// manifest) below a prefix. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, mmap'd reads, atomic rename on write
//   - MemoryStore: in-memory, for tests
//   - minio.Store: MinIO and other S3-compatible storage
//   - s3.Store: Amazon S3 with multipart uploads
//   - s3.CommitStore: s3.Store plus a DynamoDB-backed CURRENT pointer
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// WritableBlobs that can discard a partial upload implement Aborter.
package blobstore
