package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Service abstracts statement blob storage so handlers and jobs can be
// tested against a mock.
type Service interface {
	// Upload stores a local file in the bucket under objectName and returns
	// the gs:// URI of the stored object.
	Upload(ctx context.Context, objectName, filePath string) (string, error)

	// Fetch downloads the object bytes behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

const uploadTimeout = 2 * time.Minute

// Client is the Google Cloud Storage implementation of Service. One client
// is shared across requests; callers own Close.
type Client struct {
	client *storage.Client
	bucket string
}

// NewClient connects to Cloud Storage using Application Default Credentials.
func NewClient(ctx context.Context, bucket string) (*Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{client: client, bucket: bucket}, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Upload stores filePath in the configured bucket as objectName.
func (c *Client) Upload(ctx context.Context, objectName, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := c.client.Bucket(c.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy file to storage writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", c.bucket, objectName), nil
}

// Fetch downloads the object bytes behind uri, which may point at any
// bucket, not just the configured one.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object bytes: %w", err)
	}
	return data, nil
}

// ParseURI splits a gs://bucket/path/to/object URI into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid storage URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid storage URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Filename extracts the base filename from a gs:// URI,
// e.g. "gs://bucket/statements/july.pdf" -> "july.pdf".
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
