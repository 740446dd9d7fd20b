// Package supabase is a minimal client for the Supabase Storage REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// StorageClient lists and downloads objects in Supabase Storage buckets.
type StorageClient interface {
	List(ctx context.Context, bucket, prefix string, opts ListOptions) ([]Object, error)
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	PublicURL(bucket, path string) string
}

// ListOptions controls paging and ordering of a listing.
type ListOptions struct {
	Limit  int
	Offset int
	// SortColumn defaults to "name", SortOrder to "asc".
	SortColumn string
	SortOrder  string
}

// Object is one entry of a listing. Folders have a nil ID and no metadata.
type Object struct {
	Name      string         `json:"name"`
	ID        *string        `json:"id"`
	UpdatedAt string         `json:"updated_at"`
	CreatedAt string         `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// IsFolder reports whether the entry is a folder placeholder.
func (o Object) IsFolder() bool {
	return o.ID == nil
}

// Size returns metadata.size, or 0 when absent.
func (o Object) Size() int64 {
	if v, ok := o.Metadata["size"].(float64); ok {
		return int64(v)
	}
	return 0
}

type listRequest struct {
	Prefix string     `json:"prefix"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	SortBy sortConfig `json:"sortBy"`
}

type sortConfig struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewClient creates a Storage client for the project at baseURL
// (https://<ref>.supabase.co) authenticated with a service role key.
func NewClient(baseURL, key string, opts ...Option) StorageClient {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) List(ctx context.Context, bucket, prefix string, opts ListOptions) ([]Object, error) {
	req := listRequest{
		Prefix: prefix,
		Limit:  opts.Limit,
		Offset: opts.Offset,
		SortBy: sortConfig{Column: opts.SortColumn, Order: opts.SortOrder},
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.SortBy.Column == "" {
		req.SortBy.Column = "name"
	}
	if req.SortBy.Order == "" {
		req.SortBy.Order = "asc"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "supabase: marshal list request")
	}

	respBody, err := c.do(ctx, http.MethodPost, c.baseURL+"/storage/v1/object/list/"+url.PathEscape(bucket), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var objects []Object
	if err := json.Unmarshal(respBody, &objects); err != nil {
		return nil, eris.Wrap(err, "supabase: unmarshal list response")
	}
	return objects, nil
}

func (c *httpClient) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/storage/v1/object/"+url.PathEscape(bucket)+"/"+escapePath(path), nil)
}

// PublicURL returns the public object URL. It does not check that the
// bucket is public.
func (c *httpClient) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapePath(path)
}

func (c *httpClient) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, eris.Wrap(err, "supabase: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("apikey", c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "supabase: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "supabase: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// escapePath escapes each segment of an object path, keeping the slashes.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
