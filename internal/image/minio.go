package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBackend stores images as objects in a MinIO/S3 compatible bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinioBackend connects to MinIO and ensures the bucket exists.
func NewMinioBackend(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioBackend, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioBackend{client: client, bucket: bucket}, nil
}

// Create refuses to overwrite an existing key. The check and the put are
// separate requests, so only generated keys should be written here.
func (m *MinioBackend) Create(ctx context.Context, key string, data []byte, contentType string) error {
	if _, err := m.Stat(ctx, key); err == nil {
		return ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (m *MinioBackend) Stat(ctx context.Context, key string) (Object, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, m.translate(err, "stat object")
	}
	return m.object(info), nil
}

func (m *MinioBackend) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, m.translate(err, "get object")
	}
	// GetObject is lazy; Stat issues the request and surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, Object{}, m.translate(err, "get object")
	}
	return obj, m.object(info), nil
}

// Remove reports ErrNotFound for a missing key, which S3 itself does not.
func (m *MinioBackend) Remove(ctx context.Context, key string) error {
	if _, err := m.Stat(ctx, key); err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (m *MinioBackend) object(info minio.ObjectInfo) Object {
	return Object{
		Key:      info.Key,
		Size:     info.Size,
		ModTime:  info.LastModified.UTC(),
		Location: m.bucket + "/" + info.Key,
	}
}

func (m *MinioBackend) translate(err error, op string) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
