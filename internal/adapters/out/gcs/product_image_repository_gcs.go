// internal/adapters/out/gcs/product_image_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// DefaultPrefix is the object prefix for product images.
const DefaultPrefix = "products"

// ProductImageRepositoryGCS uploads admin-submitted inline images and returns
// their public URL, so documents carry a URL instead of a multi-MB data URI.
type ProductImageRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func NewProductImageRepositoryGCS(client *storage.Client, bucket string) *ProductImageRepositoryGCS {
	return &ProductImageRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		Prefix: DefaultPrefix,
	}
}

// Upload writes data as "<prefix>/<uuid><ext>" and returns the public URL.
func (r *ProductImageRepositoryGCS) Upload(ctx context.Context, mediaType string, data []byte) (string, error) {
	if r.Client == nil {
		return "", errors.New("ProductImageRepositoryGCS: nil storage client")
	}
	if r.Bucket == "" {
		return "", errors.New("ProductImageRepositoryGCS: bucket is empty")
	}
	if len(data) == 0 {
		return "", errors.New("ProductImageRepositoryGCS: empty image")
	}

	objectPath := ObjectPath(r.Prefix, uuid.NewString(), mediaType)

	w := r.Client.Bucket(r.Bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = mediaType
	w.CacheControl = "public, max-age=31536000"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("ProductImageRepositoryGCS: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ProductImageRepositoryGCS: close %s: %w", objectPath, err)
	}

	return PublicURL(r.Bucket, objectPath), nil
}

// ObjectPath joins prefix and name and appends an extension for mediaType.
func ObjectPath(prefix, name, mediaType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name + ext
	}
	return prefix + "/" + name + ext
}

// PublicURL builds a public GCS URL. A leading "/" in objectPath is dropped.
func PublicURL(bucket, objectPath string) string {
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", strings.TrimSpace(bucket), obj)
}
