// Package blob lists and downloads stored reports from Supabase Storage, S3
// or MinIO.
package blob

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/model"
	"github.com/sells-group/minedocs/internal/resilience"
	"github.com/sells-group/minedocs/pkg/supabase"
)

// Store is a read-only view of the report bucket.
type Store interface {
	// List returns the objects directly under folder. Document.Path is the
	// full object path to pass to Download.
	List(ctx context.Context, folder string) ([]model.Document, error)
	Download(ctx context.Context, path string) ([]byte, error)
	// PublicURL returns the public URL for an object path.
	PublicURL(path string) string
}

// New creates the Store selected by cfg.Provider.
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Provider {
	case "supabase", "":
		client := supabase.NewClient(cfg.BaseURL, cfg.Key)
		return NewSupabase(client, cfg), nil
	case "s3":
		return NewS3(ctx, cfg)
	case "minio":
		return NewMinio(cfg)
	default:
		return nil, eris.Errorf("blob: unknown provider %q", cfg.Provider)
	}
}

// ObjectPath joins a folder and an object name.
func ObjectPath(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// expandTemplate fills {bucket} and {path} in a public URL template.
func expandTemplate(tmpl, bucket, objectPath string) string {
	return strings.NewReplacer("{bucket}", bucket, "{path}", objectPath).Replace(tmpl)
}

// folderPrefix returns the key prefix for objects under folder.
func folderPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}

// documentFromKey builds a Document for an object key listed under prefix.
// Keys in nested folders are skipped so listings stay one level deep.
func documentFromKey(key, prefix string, size int64) (model.Document, bool) {
	name := strings.TrimPrefix(key, prefix)
	if name == "" || strings.Contains(name, "/") {
		return model.Document{}, false
	}
	return model.Document{Name: path.Base(key), Path: key, Size: size}, true
}

// httpStatus returns the HTTP status a storage backend answered with, or 0
// when err carries none. AWS SDK response errors expose HTTPStatusCode.
func httpStatus(err error) int {
	var supaErr *supabase.APIError
	if errors.As(err, &supaErr) {
		return supaErr.StatusCode
	}
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.StatusCode
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

// wrapf wraps err and marks it transient when the backend answered with a
// retryable HTTP status.
func wrapf(err error, format string, args ...any) error {
	return resilience.FromStatus(eris.Wrapf(err, format, args...), httpStatus(err))
}
