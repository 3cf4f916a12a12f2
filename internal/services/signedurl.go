package services

import (
	"context"
	"sync"
	"time"

	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/internal/storage"
	"github.com/cloudary/backend/pkg/logger"
)

const (
	// SignedURLTTL is how long issued download links stay valid.
	SignedURLTTL = time.Hour

	defaultSignWorkers = 8
)

// URLSigner attaches presigned download URLs to file records. Items are
// independent, so the fan-out is concurrent, bounded by a worker limit to
// stay inside the object store's rate limits.
type URLSigner struct {
	Store   storage.ObjectStore
	workers int
}

func NewURLSigner(store storage.ObjectStore) *URLSigner {
	return &URLSigner{Store: store, workers: defaultSignWorkers}
}

// Decorate fills SignedURL on every file in place. A failure for one file
// leaves its URL empty and never aborts the batch.
func (s *URLSigner) Decorate(ctx context.Context, files []models.File) {
	if s.Store == nil || len(files) == 0 {
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(file *models.File) {
			defer wg.Done()
			defer func() { <-sem }()

			url, err := s.Store.PresignedGetURL(ctx, file.ObjectName(), SignedURLTTL)
			if err != nil {
				logger.Warn("signed_url_failed", map[string]interface{}{
					"object_name": file.ObjectName(),
				})
				return
			}
			file.SignedURL = url
		}(&files[i])
	}

	wg.Wait()
}

// Sign issues a single presigned URL for an arbitrary object path.
func (s *URLSigner) Sign(ctx context.Context, objectName string) (string, error) {
	return s.Store.PresignedGetURL(ctx, objectName, SignedURLTTL)
}
