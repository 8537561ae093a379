package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"wardrobe/internal/config"
)

const gcsPublicBase = "https://storage.googleapis.com"

// gcsStorage implements Storage on a Google Cloud Storage bucket.
// Public access is expected to be granted on the bucket (allUsers:objectViewer).
type gcsStorage struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// NewGCS creates a Cloud Storage backend and checks that the bucket is reachable.
func NewGCS(ctx context.Context, cfg config.GCSConfig, sc config.StorageConfig) (Storage, error) {
	if sc.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	cli, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := cli.Bucket(sc.Bucket).Attrs(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}

	base := sc.PublicBaseURL
	if base == "" {
		base = gcsPublicBase
	}
	return &gcsStorage{client: cli, bucket: sc.Bucket, baseURL: base}, nil
}

func (g *gcsStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opt.ContentType
	w.Metadata = opt.Metadata
	if err := writeOrAbort(w, r, cancel); err != nil {
		return ObjectInfo{}, err
	}
	attrs := w.Attrs()
	return ObjectInfo{
		Key:          key,
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
		Metadata:     attrs.Metadata,
	}, nil
}

func (g *gcsStorage) Delete(ctx context.Context, key string) error {
	return g.client.Bucket(g.bucket).Object(key).Delete(ctx)
}

func (g *gcsStorage) PublicURL(key string) string {
	return joinURL(g.baseURL, g.bucket, key)
}

func (g *gcsStorage) Bucket() string { return g.bucket }

// writeOrAbort copies r into w and commits it. On a copy failure the write is
// aborted by cancelling its context before Close, so no partial object is kept.
func writeOrAbort(w io.WriteCloser, r io.Reader, cancel context.CancelFunc) error {
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	return w.Close()
}
