package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudary/backend/internal/config"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOClient) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_upload_failed", err, map[string]interface{}{
			"object_name":  objectName,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		return err
	}
	logger.Info("minio_upload_success", map[string]interface{}{
		"object_name": objectName,
		"size":        size,
		"bucket":      m.bucket,
	})
	return nil
}

func (m *MinIOClient) Delete(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      m.bucket,
		})
	}
	return err
}

// Move renames a blob. MinIO has no server-side rename, so this is a copy
// followed by a delete of the source.
func (m *MinIOClient) Move(ctx context.Context, srcObjectName, dstObjectName string) error {
	src := minio.CopySrcOptions{Bucket: m.bucket, Object: srcObjectName}
	dst := minio.CopyDestOptions{Bucket: m.bucket, Object: dstObjectName}

	if _, err := m.client.CopyObject(ctx, dst, src); err != nil {
		logger.Error("minio_move_copy_failed", err, map[string]interface{}{
			"src":    srcObjectName,
			"dst":    dstObjectName,
			"bucket": m.bucket,
		})
		return err
	}

	if err := m.client.RemoveObject(ctx, m.bucket, srcObjectName, minio.RemoveObjectOptions{}); err != nil {
		logger.Error("minio_move_cleanup_failed", err, map[string]interface{}{
			"src":    srcObjectName,
			"bucket": m.bucket,
		})
		return err
	}
	return nil
}

func (m *MinIOClient) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	urlValue, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return urlValue.String(), nil
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}
