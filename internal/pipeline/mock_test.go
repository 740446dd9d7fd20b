package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/minedocs/internal/company"
	"github.com/sells-group/minedocs/internal/model"
	"github.com/sells-group/minedocs/internal/persist"
	"github.com/sells-group/minedocs/internal/textextract"
)

// --- Blob Mock ---

type mockBlob struct {
	mock.Mock
}

func (m *mockBlob) List(ctx context.Context, folder string) ([]model.Document, error) {
	args := m.Called(ctx, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *mockBlob) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBlob) PublicURL(path string) string {
	return "https://abc.supabase.co/storage/v1/object/public/technical-documents/" + path
}

// --- Text Mock ---

type mockText struct {
	mock.Mock
}

func (m *mockText) ExtractText(ctx context.Context, content []byte, maxPages int) (*textextract.Result, error) {
	args := m.Called(ctx, content, maxPages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*textextract.Result), args.Error(1)
}

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, text, docName string) (*model.ExtractedRecord, error) {
	args := m.Called(ctx, text, docName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractedRecord), args.Error(1)
}

// --- Resolver Mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, name, docName string) (*company.Resolution, error) {
	args := m.Called(ctx, name, docName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Resolution), args.Error(1)
}

// --- Persister Mock ---

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Save(ctx context.Context, in persist.SaveInput) (*persist.SaveResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*persist.SaveResult), args.Error(1)
}
