package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/nfsinspect/pkg/filestore"
)

// Object metadata keys (sent as x-amz-meta-*).
const (
	metaXID       = "xid"
	metaTruncated = "truncated"
)

// S3FileStore implements filestore.Store using Amazon S3 or S3-compatible
// storage.
//
// Key Design:
//   - object key: KeyPrefix + filestore.Key.String()
//   - object body: the raw payload
//   - object metadata: xid and truncated
//
// Objects are immutable, so Put maps directly to PutObject and List to a
// prefix listing.
//
// Thread Safety:
// The S3 client is safe for concurrent use; so is this store.
type S3FileStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3FileStoreConfig contains configuration for the S3 store.
type S3FileStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "captures/host1/" results in keys like "captures/host1/<handle>/..."
	KeyPrefix string
}

// NewS3FileStore creates a store and verifies bucket access. The bucket must
// already exist.
func NewS3FileStore(ctx context.Context, cfg S3FileStoreConfig) (*S3FileStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3FileStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *S3FileStore) getObjectKey(key filestore.Key) string {
	return s.keyPrefix + key.String()
}

// Put uploads chunk as a single object.
func (s *S3FileStore) Put(ctx context.Context, chunk *filestore.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chunk.Validate(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(chunk.Key)),
		Body:   bytes.NewReader(chunk.Data),
		Metadata: map[string]string{
			metaXID:       strconv.FormatUint(uint64(chunk.XID), 10),
			metaTruncated: strconv.FormatBool(chunk.Truncated),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write chunk %s to S3: %w", chunk.Key, err)
	}
	return nil
}

// Get downloads the chunk stored under key.
func (s *S3FileStore) Get(ctx context.Context, key filestore.Key) (*filestore.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(key)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("chunk %s: %w", key, filestore.ErrChunkNotFound)
		}
		return nil, fmt.Errorf("failed to get chunk %s from S3: %w", key, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %s body: %w", key, err)
	}

	chunk := &filestore.Chunk{Key: key, Data: data}
	if v, ok := result.Metadata[metaXID]; ok {
		xid, err := strconv.ParseUint(v, 10, 32)
		if err == nil {
			chunk.XID = uint32(xid)
		}
	}
	chunk.Truncated = result.Metadata[metaTruncated] == "true"
	return chunk, nil
}

// List pages through the objects under the handle's prefix.
func (s *S3FileStore) List(ctx context.Context, handle string) ([]filestore.ChunkInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []filestore.ChunkInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix + filestore.HandlePrefix(handle)),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key, err := filestore.ParseKey(strings.TrimPrefix(*obj.Key, s.keyPrefix))
			if err != nil {
				continue
			}
			infos = append(infos, filestore.ChunkInfo{Key: key, Size: int(aws.ToInt64(obj.Size))})
		}
	}

	return infos, nil
}

// Delete removes the object for key. S3 treats deleting a missing object as
// success.
func (s *S3FileStore) Delete(ctx context.Context, key filestore.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete chunk %s from S3: %w", key, err)
	}
	return nil
}

// Close is a no-op; the S3 client has nothing to release.
func (s *S3FileStore) Close() error {
	return nil
}
