package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/list/technical-documents", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mining-documents", body["prefix"])
		assert.Equal(t, float64(100), body["limit"])
		assert.Equal(t, float64(0), body["offset"])
		assert.Equal(t, map[string]any{"column": "name", "order": "asc"}, body["sortBy"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name": "archive", "id": null, "metadata": null},
			{"name": "crater-lake.pdf", "id": "0b1c", "updated_at": "2024-02-01T10:00:00Z",
			 "metadata": {"size": 482133, "mimetype": "application/pdf"}}
		]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL+"/", "service-key")
	objects, err := c.List(context.Background(), "technical-documents", "mining-documents", ListOptions{})
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.True(t, objects[0].IsFolder())
	assert.Zero(t, objects[0].Size())
	assert.False(t, objects[1].IsFolder())
	assert.Equal(t, "crater-lake.pdf", objects[1].Name)
	assert.Equal(t, int64(482133), objects[1].Size())
	assert.Equal(t, "application/pdf", objects[1].Metadata["mimetype"])
}

func TestList_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"Bucket not found"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "k")
	_, err := c.List(context.Background(), "missing", "x", ListOptions{Limit: 10})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Bucket not found")
}

func TestDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/storage/v1/object/technical-documents/mining-documents/Crater Lake PFS.pdf", r.URL.Path)
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "k")
	data, err := c.Download(context.Background(), "technical-documents", "mining-documents/Crater Lake PFS.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
}

func TestDownload_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "k")
	_, err := c.Download(context.Background(), "technical-documents", "missing.pdf")
	assert.ErrorContains(t, err, "supabase: unexpected status 404")
}

func TestPublicURL(t *testing.T) {
	c := NewClient("https://abc.supabase.co/", "k")
	assert.Equal(t,
		"https://abc.supabase.co/storage/v1/object/public/technical-documents/mining-documents/crater-lake.pdf",
		c.PublicURL("technical-documents", "mining-documents/crater-lake.pdf"))
	assert.Equal(t,
		"https://abc.supabase.co/storage/v1/object/public/technical-documents/a%20b.pdf",
		c.PublicURL("technical-documents", "a b.pdf"))
}
