// Package gcs archives rendered document PDFs in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
)

// Config holds archive configuration.
type Config struct {
	Bucket string
	// Prefix is prepended to every object name, e.g. "artifacts/".
	Prefix string
	// CredentialsJSON, when set, replaces application default credentials.
	CredentialsJSON string
}

// Archive implements submission.ArtifactArchive.
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewArchive creates a storage client for cfg.Bucket.
func NewArchive(ctx context.Context, cfg Config) (*Archive, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Archive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Store uploads pdf and returns its gs:// location.
func (a *Archive) Store(ctx context.Context, ref document.Reference, pdf []byte) (string, error) {
	name := ObjectName(a.prefix, ref)

	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/pdf"
	w.Metadata = map[string]string{
		"taxpayer_id": ref.TaxpayerID,
		"document":    ref.Prefix + ref.Number,
	}

	if _, err := w.Write(pdf); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, name), nil
}

// Close releases the storage client.
func (a *Archive) Close() error {
	return a.client.Close()
}

// ObjectName is the object key of a document artifact: prefix, taxpayer id
// and the artifact file name.
func ObjectName(prefix string, ref document.Reference) string {
	return path.Join(strings.Trim(prefix, "/"), ref.TaxpayerID, ref.ArtifactName())
}
