// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible storage (Ceph, Garage,
// SeaweedFS) without AWS dependencies.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "results", "runs/")
//	err = seqsearch.Publish(ctx, store, "2024-06-01", "out/aln")
package minio
