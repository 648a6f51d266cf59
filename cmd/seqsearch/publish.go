package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/hupe1980/seqsearch"
	"github.com/hupe1980/seqsearch/blobstore"
	"github.com/hupe1980/seqsearch/blobstore/minio"
	"github.com/hupe1980/seqsearch/blobstore/s3"
)

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <db> <prefix>",
		Short: "Upload a database to local or object storage",
		Long: `Upload a database to local or object storage

The data file and index are uploaded under <prefix>, followed by the manifest.
Finally the CURRENT blob is pointed at <prefix>.

Stores:
  local   a directory (--root)
  minio   any S3-compatible server through minio-go (--endpoint, --bucket)
  s3      Amazon S3 with the default AWS credential chain (--bucket);
          with --ddb-table, CURRENT is committed to DynamoDB instead`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			common, err := getCommonOptions(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			opts := append(common.options(), seqsearch.WithUploadConcurrency(common.threads))
			if err := seqsearch.Publish(cmd.Context(), store, args[1], args[0], opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s as %s\n", args[0], args[1])
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("store", "local", `Destination: "local", "minio" or "s3".`)
	flags.String("root", ".", "Root directory of the local store.")
	flags.String("bucket", "", "Bucket name (minio, s3).")
	flags.String("key-prefix", "", "Key prefix inside the bucket (minio, s3).")
	flags.String("endpoint", "", `Server endpoint, e.g. "localhost:9000" (minio).`)
	flags.String("access-key", "", "Access key (minio).")
	flags.String("secret-key", "", "Secret key (minio).")
	flags.Bool("secure", true, "Use TLS (minio).")
	flags.String("region", "", "AWS region (s3; default from the environment).")
	flags.String("ddb-table", "", "DynamoDB table for CURRENT commits (s3).")

	return cmd
}

func openStore(ctx context.Context, cmd *cobra.Command) (blobstore.BlobStore, error) {
	flags := cmd.Flags()
	kind, _ := flags.GetString("store")
	bucket, _ := flags.GetString("bucket")
	keyPrefix, _ := flags.GetString("key-prefix")

	switch kind {
	case "local":
		root, _ := flags.GetString("root")
		return blobstore.NewLocalStore(root), nil

	case "minio":
		endpoint, _ := flags.GetString("endpoint")
		accessKey, _ := flags.GetString("access-key")
		secretKey, _ := flags.GetString("secret-key")
		secure, _ := flags.GetBool("secure")
		if endpoint == "" || bucket == "" {
			return nil, fmt.Errorf("minio store needs --endpoint and --bucket")
		}
		client, err := miniogo.New(endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: secure,
		})
		if err != nil {
			return nil, err
		}
		return minio.NewStore(client, bucket, keyPrefix), nil

	case "s3":
		if bucket == "" {
			return nil, fmt.Errorf("s3 store needs --bucket")
		}
		region, _ := flags.GetString("region")
		var loadOpts []func(*config.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, config.WithRegion(region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		store := s3.NewStore(awss3.NewFromConfig(awsCfg), bucket, keyPrefix)

		table, _ := flags.GetString("ddb-table")
		if table == "" {
			return store, nil
		}
		baseURI := "s3://" + bucket
		if keyPrefix != "" {
			baseURI += "/" + keyPrefix
		}
		return s3.NewCommitStore(store, dynamodb.NewFromConfig(awsCfg), table, baseURI), nil

	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}
