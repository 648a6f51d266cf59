// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//	store := s3blob.NewStore(client, "my-bucket", "results/")
//
// Store streams writes through the multipart upload manager and reads with
// ranged GETs. CommitStore adds a DynamoDB-backed CURRENT pointer so that
// concurrent publishers agree on the latest published run:
//
//	commits := s3blob.NewCommitStore(store, dynamodb.NewFromConfig(cfg), "seqsearch-commits", "s3://my-bucket/results/")
package s3
