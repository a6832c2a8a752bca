package archive

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

const defaultBucket = "bankrecon-statements"

// Store archives uploaded statement files so the async parser (and any
// later re-parse) can fetch the original bytes.
type Store interface {
	// Upload streams the file into the bucket and returns its gs:// URI.
	Upload(ctx context.Context, objectName string, r io.Reader) (string, error)

	// Fetch downloads the file bytes behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// GCS is the Cloud Storage implementation of Store. Credentials resolve
// through Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates the archive against the configured bucket
// (BANKRECON_GCS_BUCKET, with a default).
func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCS: create storage client: %w", err)
	}
	bucket := os.Getenv("BANKRECON_GCS_BUCKET")
	if bucket == "" {
		bucket = defaultBucket
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// Upload streams the reader into the bucket under objectName.
func (g *GCS) Upload(ctx context.Context, objectName string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("Upload: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, objectName), nil
}

// Fetch downloads the object behind a gs:// URI.
func (g *GCS) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := splitURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	rc, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// Filename extracts the object's base name from a gs:// URI,
// e.g. "gs://bucket/folder/stmt.pdf" to "stmt.pdf".
func Filename(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func splitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
