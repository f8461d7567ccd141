package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

type GCSFetcher struct {
	client *storage.Client
}

func NewGCSFetcher(ctx context.Context) (*GCSFetcher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSFetcher{client: client}, nil
}

func (g *GCSFetcher) Fetch(ctx context.Context, bucket, key string, w io.Writer) error {
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	return nil
}

func (g *GCSFetcher) Close() error {
	return g.client.Close()
}
