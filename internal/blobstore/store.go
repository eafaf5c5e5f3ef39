// Package blobstore stores media payloads in a gocloud.dev bucket.
//
// The backend is chosen by the bucket URL scheme:
//
//	file:///var/lib/media          local directory
//	mem://                         in-process, for tests
//	gs://bucket                    Google Cloud Storage
//	s3://bucket?region=us-east-1   S3 and compatibles (add endpoint= and
//	                               use_path_style=true for MinIO or R2)
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"
)

// Config configures the bucket and how stored keys are exposed.
type Config struct {
	BucketURL     string // e.g. "gs://photos" or "file:///tmp/media"
	PublicBaseURL string // Prefix for PublicURL, e.g. "https://cdn.example.com"
	Prefix        string // Optional key prefix inside the bucket, e.g. "media/"
}

// Store implements core.BlobStore over a blob.Bucket.
type Store struct {
	bucket     *blob.Bucket
	publicBase string
	prefix     string
}

// Open opens the bucket described by cfg.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.BucketURL == "" {
		return nil, errors.New("bucket URL is required")
	}

	bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", cfg.BucketURL, err)
	}

	return New(bucket, cfg.PublicBaseURL, cfg.Prefix), nil
}

// New wraps an already opened bucket. The Store takes ownership of it.
func New(bucket *blob.Bucket, publicBaseURL, prefix string) *Store {
	return &Store{
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
		prefix:     prefix,
	}
}

func (s *Store) path(key string) string {
	return s.prefix + key
}

// Put writes data under key with the given content type.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path := s.path(key)

	opts := &blob.WriterOptions{ContentType: contentType}
	w, err := s.bucket.NewWriter(ctx, path, opts)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", path, err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", path, err)
	}

	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	path := s.path(key)

	err := s.bucket.Delete(ctx, path)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Exists reports whether key is stored.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, s.path(key))
}

// ReadAll returns the bytes stored under key.
func (s *Store) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, s.path(key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path(key), err)
	}
	return data, nil
}

// PublicURL returns the URL clients fetch key from. Without a configured
// public base it is the bucket-relative path.
func (s *Store) PublicURL(key string) string {
	if s.publicBase == "" {
		return s.path(key)
	}
	return s.publicBase + "/" + s.path(key)
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}
