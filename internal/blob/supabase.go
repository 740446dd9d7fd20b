package blob

import (
	"context"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/model"
	"github.com/sells-group/minedocs/pkg/supabase"
)

// SupabaseStore reads reports from a Supabase Storage bucket.
type SupabaseStore struct {
	client   supabase.StorageClient
	bucket   string
	limit    int
	template string
}

// NewSupabase creates a SupabaseStore over client.
func NewSupabase(client supabase.StorageClient, cfg config.BlobConfig) *SupabaseStore {
	return &SupabaseStore{
		client:   client,
		bucket:   cfg.Bucket,
		limit:    cfg.ListLimit,
		template: cfg.PublicURLTemplate,
	}
}

// List returns one page of at most blob.list_limit entries, sorted by name.
// Folder placeholders are skipped.
func (s *SupabaseStore) List(ctx context.Context, folder string) ([]model.Document, error) {
	objects, err := s.client.List(ctx, s.bucket, folder, supabase.ListOptions{Limit: s.limit})
	if err != nil {
		return nil, wrapf(err, "blob: list %s/%s", s.bucket, folder)
	}

	docs := make([]model.Document, 0, len(objects))
	for _, o := range objects {
		if o.IsFolder() {
			continue
		}
		docs = append(docs, model.Document{
			Name:     o.Name,
			Path:     ObjectPath(folder, o.Name),
			Size:     o.Size(),
			Metadata: o.Metadata,
		})
	}
	return docs, nil
}

func (s *SupabaseStore) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Download(ctx, s.bucket, path)
	if err != nil {
		return nil, wrapf(err, "blob: download %s", path)
	}
	return data, nil
}

func (s *SupabaseStore) PublicURL(path string) string {
	if s.template != "" {
		return expandTemplate(s.template, s.bucket, path)
	}
	return s.client.PublicURL(s.bucket, path)
}

var _ Store = (*SupabaseStore)(nil)
