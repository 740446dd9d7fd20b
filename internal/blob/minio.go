package blob

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/model"
)

// MinioStore reads reports from a MinIO bucket.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	template string
}

// NewMinio creates a MinioStore for cfg.Endpoint (host:port, no scheme).
func NewMinio(cfg config.BlobConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "blob: create minio client")
	}

	template := cfg.PublicURLTemplate
	if template == "" {
		template = client.EndpointURL().String() + "/{bucket}/{path}"
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, template: template}, nil
}

func (m *MinioStore) List(ctx context.Context, folder string) ([]model.Document, error) {
	prefix := folderPrefix(folder)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var docs []model.Document
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, wrapf(obj.Err, "blob: list minio %s/%s", m.bucket, prefix)
		}
		if doc, ok := documentFromKey(obj.Key, prefix, obj.Size); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MinioStore) Download(ctx context.Context, path string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapf(err, "blob: get minio %s/%s", m.bucket, path)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, wrapf(err, "blob: read minio %s/%s", m.bucket, path)
	}
	return data, nil
}

func (m *MinioStore) PublicURL(path string) string {
	return expandTemplate(m.template, m.bucket, path)
}

var _ Store = (*MinioStore)(nil)
