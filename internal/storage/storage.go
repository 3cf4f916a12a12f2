package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the capability the services receive. Implemented by
// MinIOClient in production and by fakes in tests.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectName string) error
	Move(ctx context.Context, srcObjectName, dstObjectName string) error
	PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}
