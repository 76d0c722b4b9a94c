package service

import (
	"context"
	"io"
	"time"
)

// BlobStore abstracts the private bucket that holds submission files. Keys
// are caller-built paths; retrieval always goes through time-limited signed
// URLs because the bucket is never publicly readable.
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// VideoUploader abstracts the hosted video pipeline used for lesson content.
type VideoUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}
