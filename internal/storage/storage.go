package storage

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/config"
)

// Storage keeps uploaded media under opaque keys such as "recipes/images/<uuid>.png".
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the absolute public URL of key.
	URL(key string) string
}

// New builds the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
	case config.StorageS3:
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(ctx, s3Cfg), nil
	case config.StorageMinIO:
		return NewMinIOStorage(ctx, MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
