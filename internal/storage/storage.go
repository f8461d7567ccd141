package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"reelpost/pkg/config"
)

const (
	SchemeGCS = "gs"
	SchemeS3  = "s3"
)

// Fetcher copies one object from a bucket into w.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string, w io.Writer) error
	Close() error
}

type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// ParseLocation recognises gs://bucket/key and s3://bucket/key. Anything
// else is reported as not remote.
func ParseLocation(path string) (Location, bool) {
	scheme, rest, ok := strings.Cut(path, "://")
	if !ok || (scheme != SchemeGCS && scheme != SchemeS3) {
		return Location{}, false
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, false
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, true
}

func IsRemote(path string) bool {
	_, ok := ParseLocation(path)
	return ok
}

type fetcherFactory func(ctx context.Context) (Fetcher, error)

// Resolver turns remote sources into local files under the cache dir. Clients
// are created on first use, so a run with only local paths never touches
// cloud credentials.
type Resolver struct {
	cacheDir   string
	factories  map[string]fetcherFactory
	fetchers   map[string]Fetcher
	downloaded []string
}

type Option func(*Resolver)

// WithFetcher replaces the client used for a scheme.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(r *Resolver) {
		r.fetchers[scheme] = f
	}
}

func NewResolver(cfg config.Storage, opts ...Option) *Resolver {
	r := &Resolver{
		cacheDir: cfg.CacheDir,
		factories: map[string]fetcherFactory{
			SchemeGCS: func(ctx context.Context) (Fetcher, error) {
				return NewGCSFetcher(ctx)
			},
			SchemeS3: func(ctx context.Context) (Fetcher, error) {
				return NewS3Fetcher(ctx, cfg)
			},
		},
		fetchers: make(map[string]Fetcher),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns path unchanged when it is local. Remote objects are
// downloaded to a uniquely named file that keeps the object's extension.
func (r *Resolver) Resolve(ctx context.Context, path string) (string, error) {
	loc, ok := ParseLocation(path)
	if !ok {
		return path, nil
	}

	fetcher, err := r.fetcher(ctx, loc.Scheme)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate cache name: %w", err)
	}
	localPath := filepath.Join(r.cacheDir, id+"-"+filepath.Base(loc.Key))

	slog.Info("Downloading remote source", "source", loc.String(), "dest", localPath)
	if err := download(ctx, fetcher, loc, localPath); err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("failed to download %s: %w", loc, err)
	}

	r.downloaded = append(r.downloaded, localPath)
	return localPath, nil
}

func download(ctx context.Context, fetcher Fetcher, loc Location, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	if err := fetcher.Fetch(ctx, loc.Bucket, loc.Key, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (r *Resolver) fetcher(ctx context.Context, scheme string) (Fetcher, error) {
	if f, ok := r.fetchers[scheme]; ok {
		return f, nil
	}

	factory, ok := r.factories[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported storage scheme: %s", scheme)
	}

	f, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	r.fetchers[scheme] = f
	return f, nil
}

// Close removes downloaded files and releases the storage clients.
func (r *Resolver) Close() error {
	var errs []error
	for _, path := range r.downloaded {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	r.downloaded = nil

	for scheme, f := range r.fetchers {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s client: %w", scheme, err))
		}
		delete(r.fetchers, scheme)
	}
	return errors.Join(errs...)
}
