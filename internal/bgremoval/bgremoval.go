// Package bgremoval is the client for the external background-removal service.
// It is optional pre-processing: every failure is reported as *Error and callers
// are expected to fall back to the original photo.
package bgremoval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"wardrobe/internal/config"
	"wardrobe/internal/errs"
	"wardrobe/internal/upload"
)

// Reason classifies why background removal failed.
type Reason string

const (
	ReasonMissingCredential Reason = "missing_credential"
	ReasonInvalidCredential Reason = "invalid_credential"
	ReasonQuotaExceeded     Reason = "quota_exceeded"
	ReasonInvalidInput      Reason = "invalid_input"
	ReasonNetwork           Reason = "network"
	ReasonTimeout           Reason = "timeout"
	ReasonUnexpected        Reason = "unexpected"
)

var messages = map[Reason]string{
	ReasonMissingCredential: "background removal API key not configured (set PHOTOROOM_API_KEY)",
	ReasonInvalidCredential: "invalid API key",
	ReasonQuotaExceeded:     "API quota exceeded, try manual selection",
	ReasonInvalidInput:      "invalid image format",
	ReasonNetwork:           "network request failed, check your internet connection",
	ReasonTimeout:           "request timed out, try again",
	ReasonUnexpected:        "failed to remove background",
}

// Error is a background-removal failure. It matches errs.ErrCollaboratorFailed,
// and errs.ErrTimeout as well when Reason is ReasonTimeout.
type Error struct {
	Reason Reason
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := messages[e.Reason]
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	out := []error{errs.ErrCollaboratorFailed}
	if e.Reason == ReasonTimeout {
		out = append(out, errs.ErrTimeout)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Remover produces a PNG cut-out of a local image and returns its local path.
type Remover interface {
	Remove(ctx context.Context, imageRef string) (string, error)
}

// Client talks to a Photoroom-compatible segmentation endpoint.
type Client struct {
	apiKey     string
	endpoint   string
	outDir     string
	httpClient *http.Client
	now        func() time.Time
}

var _ Remover = (*Client)(nil)

// NewClient builds a Client. A nil httpClient gets one with the configured timeout
// and an OpenTelemetry transport.
func NewClient(cfg config.BackgroundRemovalConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = os.TempDir()
	}
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		outDir:     outDir,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Remove uploads the image and writes the returned PNG to "extracted_<unix_nano>.png"
// in the output directory. Nothing is sent when no API key is configured.
func (c *Client) Remove(ctx context.Context, imageRef string) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Reason: ReasonMissingCredential}
	}

	path, err := upload.LocalPath(imageRef)
	if err != nil {
		return "", &Error{Reason: ReasonInvalidInput, Err: err}
	}
	img, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Reason: ReasonInvalidInput, Err: fmt.Errorf("%w: %w", errs.ErrResourceUnreadable, err)}
	}

	body, contentType, err := multipartImage(img, filepath.Base(path))
	if err != nil {
		return "", &Error{Reason: ReasonUnexpected, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", &Error{Reason: ReasonUnexpected, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &Error{Reason: reasonForStatus(resp.StatusCode), Status: resp.StatusCode}
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	dst := filepath.Join(c.outDir, fmt.Sprintf("extracted_%d.png", c.now().UnixNano()))
	if err := os.WriteFile(dst, out, 0o600); err != nil {
		return "", &Error{Reason: ReasonUnexpected, Err: fmt.Errorf("write cut-out: %w", err)}
	}
	return dst, nil
}

func multipartImage(img []byte, filename string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image_file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func reasonForStatus(status int) Reason {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ReasonInvalidCredential
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return ReasonQuotaExceeded
	case http.StatusBadRequest:
		return ReasonInvalidInput
	default:
		return ReasonUnexpected
	}
}

func classifyTransportError(err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Reason: ReasonTimeout, Err: err}
	}
	return &Error{Reason: ReasonNetwork, Err: err}
}
