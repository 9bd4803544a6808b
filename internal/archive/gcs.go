package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Archiver stores rendered reports somewhere durable and returns their URI.
type Archiver interface {
	Put(ctx context.Context, userID, fileName, contentType string, data []byte) (string, error)
}

// GCS uploads reports to a Cloud Storage bucket using Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// ObjectName is reports/{user}/{file}.
func ObjectName(userID, fileName string) string {
	return path.Join("reports", sanitize(userID), sanitize(fileName))
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}

func (g *GCS) Put(ctx context.Context, userID, fileName, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	name := ObjectName(userID, fileName)
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := bytes.NewReader(data).WriteTo(w); err != nil {
		w.Close()
		return "", fmt.Errorf("copy report to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, name), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
