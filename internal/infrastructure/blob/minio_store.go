package blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"UpdatesScanner/internal/config"
	"UpdatesScanner/internal/ports"
)

// MinioStore publishes generated assets to S3-compatible object storage.
type MinioStore struct {
	client *minio.Client
	bucket string
}

var _ ports.BlobStore = (*MinioStore)(nil)

// NewMinioStore connects to the configured object-storage endpoint.
func NewMinioStore(cfg config.BlobConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect blob store %s: %w", cfg.Endpoint, err)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// PutObject uploads one object with the given content type and cache
// directive. Keys are deterministic per identity, so re-uploads replace
// the same object rather than accumulating.
func (m *MinioStore) PutObject(ctx context.Context, key string, data []byte, contentType, cacheControl string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
