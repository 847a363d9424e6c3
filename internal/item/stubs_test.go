package item

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/notiflex/internal/audit"
	"github.com/nikhilbhutani/notiflex/internal/cache"
	"github.com/nikhilbhutani/notiflex/internal/document"
	"github.com/nikhilbhutani/notiflex/internal/models"
	"github.com/nikhilbhutani/notiflex/internal/queue"
	"github.com/nikhilbhutani/notiflex/internal/storage"
)

type memStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Upload(_ context.Context, bucket, key string, r io.Reader, _ string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memStorage) Download(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStorage) PublicURL(bucket, key string) string {
	return "https://cdn.test/" + bucket + "/" + key
}

type stubExtractor struct {
	result    document.Result
	calls     int
	filePath  string
	fileBytes []byte
}

func (s *stubExtractor) Extract(_ context.Context, _ []byte, _ string) document.Result {
	s.calls++
	return s.result
}

func (s *stubExtractor) ExtractFile(_ context.Context, path, _ string) document.Result {
	s.calls++
	s.filePath = path
	s.fileBytes, _ = os.ReadFile(path)
	return s.result
}

type updateCall struct {
	clientID, id    uuid.UUID
	fallback, title string
	endDate         *string
}

type stubRepo struct {
	createErr error
	item      *models.Item
	detail    *models.ItemDetail
	getErr    error
	updateErr error
	updated   bool
	updates   []updateCall
}

func (r *stubRepo) CreateWithDetail(_ context.Context, item *models.Item, detail *models.ItemDetail) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.item, r.detail = item, detail
	return nil
}

func (r *stubRepo) GetDetail(_ context.Context, _, id uuid.UUID) (*models.ItemDetail, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.detail != nil && r.detail.ID == id {
		return r.detail, nil
	}
	return nil, ErrNotFound
}

func (r *stubRepo) UpdateDetailMetadata(_ context.Context, clientID, id uuid.UUID, fallback, title string, endDate *string) (bool, error) {
	r.updates = append(r.updates, updateCall{clientID, id, fallback, title, endDate})
	return r.updated, r.updateErr
}

type stubQueue struct {
	err      error
	payloads []queue.ItemReextractPayload
}

func (q *stubQueue) EnqueueItemReextract(_ context.Context, p queue.ItemReextractPayload) error {
	q.payloads = append(q.payloads, p)
	return q.err
}

type stubAudit struct {
	err     error
	entries []audit.LogEntry
}

func (a *stubAudit) Log(_ context.Context, e audit.LogEntry) error {
	a.entries = append(a.entries, e)
	return a.err
}

type memCache struct {
	data   map[string][]byte
	getErr error
	setErr error
	ttls   []time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls = append(c.ttls, ttl)
	return nil
}
