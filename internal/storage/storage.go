package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/notiflex/internal/config"
)

var ErrNotFound = errors.New("object not found")

type Storage interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStorage(cfg.LocalPath, cfg.SupabaseURL)
	case "supabase":
		return NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey), nil
	case "s3", "":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ItemKey builds the object key for an uploaded item file:
// items/<unix millis>_<8 hex>_<sanitized filename>. The random segment keeps
// same-name uploads in the same millisecond apart.
func ItemKey(filename string, now time.Time) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.Trim(unsafeKeyChars.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return fmt.Sprintf("items/%d_%s_%s", now.UnixMilli(), uuid.NewString()[:8], name)
}

// supabasePublicURL follows Supabase Storage's public object URL layout.
func supabasePublicURL(baseURL, bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(baseURL, "/"), bucket, strings.TrimLeft(key, "/"))
}
