package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
)

// S3Storage stores media in an S3 bucket with public read access.
type S3Storage struct {
	s3Config *config.S3Config
}

// NewS3Storage applies the public-read bucket policy that object URLs rely on.
// A policy failure is logged and the storage is still returned, since the bucket
// may be managed outside the application.
func NewS3Storage(ctx context.Context, s3Config *config.S3Config) *S3Storage {
	if err := s3Config.SetupBucketPolicy(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", s3Config.BucketName).Msg("failed to apply public-read bucket policy")
	}
	return &S3Storage{s3Config: s3Config}
}

func (s *S3Storage) Save(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("bucket", s.s3Config.BucketName).Str("key", key).Msg("uploaded object to S3")
	return nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Storage) URL(key string) string {
	return s.s3Config.ObjectURL(key)
}
