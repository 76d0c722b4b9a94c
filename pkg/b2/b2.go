package b2

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kurin/blazer/b2"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Backblaze B2.
type Config struct {
	AccountID string
	AppKey    string
	Bucket    string
}

// Store holds private submission files. Objects are never public; reads go
// through short-lived authorization tokens.
type Store struct {
	client *b2.Client
	bucket *b2.Bucket
	logger zerolog.Logger
}

// New connects to B2 and binds the configured bucket.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.AccountID == "" || cfg.AppKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("b2 credentials must be provided")
	}

	client, err := b2.NewClient(ctx, cfg.AccountID, cfg.AppKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "b2").Logger(),
	}, nil
}

// Upload streams the reader into the bucket under key.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader) error {
	w := s.bucket.Object(key).NewWriter(ctx)

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	s.logger.Info().Str("key", key).Msg("file uploaded to b2")

	return nil
}

// SignedURL issues a download URL that stops working after ttl.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token, err := s.bucket.AuthToken(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to issue auth token: %w", err)
	}

	return fmt.Sprintf("%s/file/%s/%s?Authorization=%s", s.bucket.BaseURL(), s.bucket.Name(), key, token), nil
}

// Delete removes the object from the bucket.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}
