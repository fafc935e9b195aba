package services

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore keeps inventory item images in a single bucket.
type ImageStore interface {
	PutImage(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	RemoveImage(ctx context.Context, key string) error
	EnsureBucket(ctx context.Context) error
}

type minioImageStore struct {
	client *minio.Client
	bucket string
}

func NewMinioImageStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (ImageStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioImageStore{client: client, bucket: bucket}, nil
}

func (m *minioImageStore) PutImage(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioImageStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *minioImageStore) RemoveImage(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *minioImageStore) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
