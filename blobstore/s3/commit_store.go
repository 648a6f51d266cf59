package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/seqsearch/blobstore"
)

// ErrConcurrentModification is returned when another publisher committed the
// same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by CommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore is a Store whose CURRENT blob lives in DynamoDB. Every commit
// inserts version latest+1 with a conditional write, so two publishers
// racing for the same version cannot both win and CURRENT never moves back.
//
// Table schema:
//   - Partition key: base_uri (string)
//   - Sort key: version (number)
//
//	aws dynamodb create-table \
//	  --table-name seqsearch-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	*Store
	ddb     DDBClient
	table   string
	baseURI string
}

// NewCommitStore creates a commit store. baseURI ("s3://bucket/prefix")
// is the partition key.
func NewCommitStore(store *Store, ddb DDBClient, table, baseURI string) *CommitStore {
	return &CommitStore{Store: store, ddb: ddb, table: table, baseURI: baseURI}
}

// Open serves CURRENT from DynamoDB and everything else from S3.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != blobstore.CurrentName {
		return s.Store.Open(ctx, name)
	}
	_, prefix, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &currentBlob{content: []byte(prefix)}, nil
}

// Put commits CURRENT through DynamoDB and writes everything else to S3.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != blobstore.CurrentName {
		return s.Store.Put(ctx, name, data)
	}
	_, err := s.Commit(ctx, string(data))
	return err
}

// Current returns the latest committed version and prefix.
func (s *CommitStore) Current(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commits: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", fmt.Errorf("%w: %s", blobstore.ErrNotFound, blobstore.CurrentName)
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in commit table")
	}
	prefixAttr, ok := item["prefix"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid prefix attribute in commit table")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse commit version: %w", err)
	}
	return version, prefixAttr.Value, nil
}

// Commit records prefix as the next version and returns that version.
func (s *CommitStore) Commit(ctx context.Context, prefix string) (uint64, error) {
	current, _, err := s.Current(ctx)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return 0, err
	}
	next := current + 1

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"prefix":   &types.AttributeValueMemberS{Value: prefix},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return 0, fmt.Errorf("%w: version %d", ErrConcurrentModification, next)
		}
		return 0, fmt.Errorf("commit version %d: %w", next, err)
	}
	return next, nil
}

type currentBlob struct {
	content []byte
}

func (b *currentBlob) Close() error { return nil }

func (b *currentBlob) Size() int64 { return int64(len(b.content)) }

func (b *currentBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *currentBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off > int64(len(b.content)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(b.content)))
	return io.NopCloser(bytes.NewReader(b.content[off:end])), nil
}
