package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	wastebot "github.com/greenloop/wastebot"
)

// MinioConfig holds the MinIO storage configuration.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
}

// DefaultMinioConfig returns the default MinIO configuration.
func DefaultMinioConfig() MinioConfig {
	return MinioConfig{
		Endpoint: "localhost:9000",
		Bucket:   "wastebot-images",
	}
}

// MinioStorage implements Storage on a MinIO (or any S3-compatible)
// bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinio creates the client and ensures the bucket exists.
func NewMinio(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket}, nil
}

// Put writes the image under its hash-derived object name.
func (s *MinioStorage) Put(ctx context.Context, img wastebot.ImageAsset) (string, error) {
	ref := RefForHash(img.Hash)
	_, err := s.client.PutObject(ctx, s.bucket, ref,
		bytes.NewReader(img.Bytes), int64(img.Size),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", wastebot.NewStoreError("put", "blob", err)
	}
	return ref, nil
}

// Get reads the bytes behind a storage reference.
func (s *MinioStorage) Get(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, wastebot.NewStoreError("get", "blob", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, wastebot.NewStoreError("get", "blob", err)
	}
	return data, nil
}

// Delete removes a stored photo.
func (s *MinioStorage) Delete(ctx context.Context, ref string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return wastebot.NewStoreError("delete", "blob", err)
	}
	return nil
}

// URL returns a presigned GET link for human review.
func (s *MinioStorage) URL(ctx context.Context, ref string, expiry time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, ref, expiry, url.Values{})
	if err != nil {
		return "", wastebot.NewStoreError("presign", "blob", err)
	}
	return presigned.String(), nil
}
