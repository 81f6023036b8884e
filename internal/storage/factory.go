package storage

import (
	"context"
	"fmt"

	"voxscribe/internal/infra"
)

// NewBlobStore picks the backend named by STORAGE_DRIVER.
func NewBlobStore(ctx context.Context, cfg *infra.Config) (BlobStore, error) {
	switch cfg.StorageDriver {
	case "", "filesystem":
		return NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			PresignTTL: cfg.S3PresignTTL,
		})
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.StorageDriver)
	}
}
