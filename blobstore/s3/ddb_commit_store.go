package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/palmvec/blobstore"
)

// DefaultPointerName is the blob name served from DynamoDB instead of S3.
const DefaultPointerName = "CURRENT"

// DDBCommitStore implements blobstore.BlobStore backed by S3 with DynamoDB
// for atomic pointer commits. This enables safe concurrent snapshot writers.
//
// Snapshot blobs are written to S3. Writes to the pointer blob (CURRENT) are
// recorded as a new version row with a conditional put, so two writers that
// read the same version cannot both advance it. Reading the pointer returns
// the content of the highest version.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 bucket/prefix
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name palmvec-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store     *Store
	ddbClient   DDBClient
	tableName   string
	baseURI     string
	pointerName string
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when a concurrent pointer commit is detected.
var ErrConcurrentModification = errors.New("s3: concurrent modification detected")

// NewDDBCommitStore creates a new S3+DynamoDB commit store.
// The baseURI ("s3://bucket/prefix") is the partition key.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:     s3Store,
		ddbClient:   ddbClient,
		tableName:   tableName,
		baseURI:     baseURI,
		pointerName: DefaultPointerName,
	}
}

// NewWithDDB creates an S3 store and a DynamoDB client from one AWS
// configuration and combines them into a commit store.
func NewWithDDB(ctx context.Context, bucket, tableName string, optFns ...func(o *Options)) (*DDBCommitStore, error) {
	opts := Options{Upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}

	store, err := New(ctx, bucket, func(o *Options) { *o = opts })
	if err != nil {
		return nil, err
	}

	cfg, err := loadAWSConfig(ctx, opts.Region)
	if err != nil {
		return nil, err
	}

	baseURI := "s3://" + bucket + "/" + store.prefix
	return NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), tableName, baseURI), nil
}

// Open opens a blob for reading. The pointer blob is served from DynamoDB.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name == s.pointerName {
		version, content, err := s.latestVersion(ctx)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return blobstore.NewBytesBlob([]byte(content)), nil
	}
	return s.s3Store.Open(ctx, name)
}

// Put writes a blob. The pointer blob uses a DynamoDB conditional write.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == s.pointerName {
		return s.commitVersion(ctx, string(data))
	}
	return s.s3Store.Put(ctx, name, data)
}

// Delete deletes a blob. Pointer history is kept.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == s.pointerName {
		return nil
	}
	return s.s3Store.Delete(ctx, name)
}

// List lists blobs with prefix from S3.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

// Version returns the latest committed pointer version, 0 if none.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	v, _, err := s.latestVersion(ctx)
	return v, err
}

// latestVersion queries DynamoDB for the latest committed version.
func (s *DDBCommitStore) latestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query commit table: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: invalid version attribute in commit table")
	}
	pointerAttr, ok := item["pointer"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: invalid pointer attribute in commit table")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse version: %w", err)
	}

	return version, pointerAttr.Value, nil
}

// commitVersion atomically commits a new pointer version using a DynamoDB conditional write.
func (s *DDBCommitStore) commitVersion(ctx context.Context, content string) error {
	currentVersion, _, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(newVersion, 10)},
			"pointer":  &types.AttributeValueMemberS{Value: content},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit version: %w", err)
	}

	return nil
}
