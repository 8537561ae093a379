package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"wardrobe/internal/config"
)

// Package storage contains the object storage abstraction images are kept in.
// Implementations stream uploads and never touch local disk.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the bucket clothing images are uploaded to.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the stable, unauthenticated address of key.
	PublicURL(key string) string
	// Bucket names the bucket objects live in.
	Bucket() string
}

// New builds the backend selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.AppConfig) (Storage, error) {
	switch cfg.Storage.Driver {
	case "", "minio", "s3":
		return NewMinIO(ctx, cfg.MinIO, cfg.Storage)
	case "gcs":
		return NewGCS(ctx, cfg.GCS, cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// KeyFromURL recovers the object key from a public URL by stripping everything up to
// and including "<bucket>/". Query strings and fragments are ignored. It reports false
// when the URL does not point into bucket.
func KeyFromURL(publicURL, bucket string) (string, bool) {
	if publicURL == "" || bucket == "" {
		return "", false
	}
	p := publicURL
	if u, err := url.Parse(publicURL); err == nil && u.Path != "" {
		p = u.Path
	}
	marker := bucket + "/"
	i := strings.LastIndex(p, marker)
	if i < 0 || (i > 0 && p[i-1] != '/') {
		return "", false
	}
	key := p[i+len(marker):]
	if key == "" {
		return "", false
	}
	return key, true
}

func joinURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}
