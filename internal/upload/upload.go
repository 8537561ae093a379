// Package upload turns an on-device image into a publicly addressable object.
package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/errs"
	"wardrobe/internal/imaging"
	"wardrobe/internal/logging"
	"wardrobe/internal/storage"
)

// MetaChecksum is the object metadata key carrying the base64 SHA-256 of the payload.
const MetaChecksum = "checksum-sha256"

// Result describes a stored image.
type Result struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Uploader stores a local image for a user and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, userID, ref string) (*Result, error)
}

// Pipeline is the single-attempt Uploader. It never retries: a failed upload is
// reported to the caller, who decides whether to try again.
type Pipeline struct {
	store    storage.Storage
	timeout  time.Duration
	maxDim   int
	log      *logging.Logger
	now      func() time.Time
	readFile func(string) ([]byte, error)
}

var _ Uploader = (*Pipeline)(nil)

// NewPipeline creates a Pipeline writing to store.
func NewPipeline(store storage.Storage, cfg config.UploadConfig, log *logging.Logger) *Pipeline {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{
		store:    store,
		timeout:  timeout,
		maxDim:   cfg.MaxDimension,
		log:      log.With("upload"),
		now:      time.Now,
		readFile: os.ReadFile,
	}
}

// Upload reads ref, normalizes the image and puts it under "{userID}/{unix_nano}.{ext}".
//
// Failures: errs.ErrResourceUnreadable when the file cannot be read or is not an image,
// errs.ErrTimeout when the storage call outlives the configured ceiling, and
// errs.ErrUploadFailed wrapping the storage error otherwise.
func (p *Pipeline) Upload(ctx context.Context, userID, ref string) (*Result, error) {
	if userID == "" {
		return nil, errs.ErrUnauthenticated
	}

	path, err := LocalPath(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrResourceUnreadable, err)
	}
	data, err := p.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrResourceUnreadable, err)
	}
	img, err := imaging.Prepare(data, p.maxDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrResourceUnreadable, err)
	}

	key := fmt.Sprintf("%s/%d.%s", userID, p.now().UnixNano(), img.Ext)
	sum := sha256.Sum256(img.Data)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	info, err := p.store.Put(ctx, key, bytes.NewReader(img.Data), storage.PutObjectOptions{
		Size:        int64(len(img.Data)),
		ContentType: img.MIME,
		Metadata: map[string]string{
			MetaChecksum: base64.StdEncoding.EncodeToString(sum[:]),
		},
	})
	if err != nil {
		p.log.Error("image_upload_failed", map[string]any{
			"key":         key,
			"error":       err,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: upload exceeded %s: %w", errs.ErrTimeout, p.timeout, err)
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrUploadFailed, err)
	}

	p.log.Info("image_uploaded", map[string]any{
		"key":          key,
		"content_type": img.MIME,
		"size":         info.Size,
		"duration_ms":  time.Since(start).Milliseconds(),
	})

	return &Result{
		Key:         key,
		URL:         p.store.PublicURL(key),
		ContentType: img.MIME,
		Size:        int64(len(img.Data)),
	}, nil
}

// LocalPath resolves an on-device reference (plain path or file:// URI) to a filesystem path.
func LocalPath(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("image reference is empty")
	}
	if !strings.Contains(ref, "://") {
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse image reference: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported image reference scheme %q", u.Scheme)
	}
	if u.Path == "" {
		return "", errors.New("image reference has no path")
	}
	return u.Path, nil
}
