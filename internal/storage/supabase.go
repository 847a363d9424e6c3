package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage uses the Supabase Storage REST API with a service role key.
type SupabaseStorage struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorage(supabaseURL, serviceKey string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(supabaseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *SupabaseStorage) objectURL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(bucket), escapeKey(key))
}

func (s *SupabaseStorage) do(ctx context.Context, method, bucket, key string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(bucket, key), body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", strings.ToLower(method), err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return s.httpClient.Do(req)
}

func (s *SupabaseStorage) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	resp, err := s.do(ctx, http.MethodPost, bucket, key, r, contentType)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	return statusError("upload", key, resp)
}

func (s *SupabaseStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet, bucket, key, nil, "")
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	if err := statusError("download", key, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (s *SupabaseStorage) Delete(ctx context.Context, bucket, key string) error {
	resp, err := s.do(ctx, http.MethodDelete, bucket, key, nil, "")
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	defer resp.Body.Close()
	return statusError("delete", key, resp)
}

func (s *SupabaseStorage) PublicURL(bucket, key string) string {
	return supabasePublicURL(s.baseURL, bucket, key)
}

// statusError maps a Storage API response to an error. Missing objects come
// back as 400 or 404 depending on the Supabase version.
func statusError(op, key string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusNotFound || strings.Contains(string(body), "not_found") {
		return fmt.Errorf("%s %s: %w", op, key, ErrNotFound)
	}
	return fmt.Errorf("%s %s failed (%d): %s", op, key, resp.StatusCode, strings.TrimSpace(string(body)))
}

func escapeKey(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
