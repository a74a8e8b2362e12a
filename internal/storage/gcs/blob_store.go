// Package gcs provides a BlobStore backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
}

// BlobStore writes exports to a configured GCS bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New creates a GCS-backed blob store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Put uploads obj with its metadata and returns a gs:// URI. The object only
// becomes visible once the writer closes cleanly.
func (s *BlobStore) Put(ctx context.Context, obj crawler.Object) (string, error) {
	if strings.TrimSpace(obj.Path) == "" {
		return "", fmt.Errorf("path is required")
	}
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(obj.Path).NewWriter(writeCtx)
	writer.ContentType = obj.ContentType
	if len(obj.Metadata) > 0 {
		writer.Metadata = obj.Metadata
	}
	if _, err := io.Copy(writer, obj.Body); err != nil {
		// Canceling before Close aborts the upload.
		cancel()
		_ = writer.Close()
		return "", fmt.Errorf("upload gs://%s/%s: %w", s.bucket, obj.Path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", s.bucket, obj.Path, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, obj.Path), nil
}
