package item

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/notiflex/internal/audit"
	"github.com/nikhilbhutani/notiflex/internal/cache"
	"github.com/nikhilbhutani/notiflex/internal/document"
	"github.com/nikhilbhutani/notiflex/internal/models"
	"github.com/nikhilbhutani/notiflex/internal/queue"
	"github.com/nikhilbhutani/notiflex/internal/storage"
	"github.com/nikhilbhutani/notiflex/pkg/docmeta"
	"github.com/nikhilbhutani/notiflex/pkg/textextract"
)

type Enqueuer interface {
	EnqueueItemReextract(ctx context.Context, payload queue.ItemReextractPayload) error
}

type PreviewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Auditor interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

// Deps wires the service. Queue, Cache and Audit are optional.
type Deps struct {
	Repo      Repository
	Storage   storage.Storage
	Extractor document.TextExtractor
	Queue     Enqueuer
	Cache     PreviewCache
	Audit     Auditor
}

type Options struct {
	Bucket     string
	PreviewTTL time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

type Service struct {
	repo       Repository
	storage    storage.Storage
	extractor  document.TextExtractor
	queue      Enqueuer
	cache      PreviewCache
	audit      Auditor
	bucket     string
	previewTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(deps Deps, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		repo:       deps.Repo,
		storage:    deps.Storage,
		extractor:  deps.Extractor,
		queue:      deps.Queue,
		cache:      deps.Cache,
		audit:      deps.Audit,
		bucket:     opts.Bucket,
		previewTTL: opts.PreviewTTL,
		now:        opts.Now,
		logger:     opts.Logger.With("component", "item"),
	}
}

type IngestRequest struct {
	ClientID uuid.UUID
	UserID   uuid.UUID
	ObjectID string
	Name     string
	Location string
	Notes    string
	// Title and EndDate are optional hints that override inference.
	Title    string
	EndDate  string
	File     *document.Upload
	RemoteIP string
}

type IngestResult struct {
	ItemID       uuid.UUID `json:"item_id"`
	ItemDetailID uuid.UUID `json:"item_detail_id"`
	Title        string    `json:"title"`
	EndDate      *string   `json:"end_date"`
	FileURL      string    `json:"file_url"`
}

// Ingest stores the uploaded file, infers its title and end date, and
// records Item and ItemDetail together. When the records cannot be written
// the stored object is removed again.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	objectID, err := validate(req)
	if err != nil {
		return nil, err
	}
	file := req.File
	logger := s.logger.With("client_id", req.ClientID, "filename", file.Filename)

	key := storage.ItemKey(file.Filename, s.now())
	if err := s.storage.Upload(ctx, s.bucket, key, bytes.NewReader(file.Data), file.ContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	extracted := s.extractor.Extract(ctx, file.Data, file.ContentType)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = docmeta.InferTitle(extracted.Text, req.Name)
	}
	endDate := docmeta.ResolveEndDate(extracted.Text, req.EndDate)

	item := &models.Item{
		ID:        uuid.New(),
		ObjectID:  objectID,
		ClientID:  req.ClientID,
		Name:      req.Name,
		CreatedBy: req.UserID,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	detail := &models.ItemDetail{
		ID:         uuid.New(),
		ItemID:     item.ID,
		ClientID:   req.ClientID,
		Name:       title,
		FileType:   file.ContentType,
		FileSize:   file.Size,
		FileURL:    s.storage.PublicURL(s.bucket, key),
		StorageKey: key,
		EndDate:    endDate,
		CreatedBy:  req.UserID,
	}

	if err := s.repo.CreateWithDetail(ctx, item, detail); err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), s.bucket, key); delErr != nil {
			logger.Error("orphaned upload after failed insert", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Info("item ingested",
		"item_id", item.ID,
		"method", extracted.Method,
		"chars", len(extracted.Text),
		"has_end_date", endDate != nil,
	)

	if textextract.IsPDF(file.ContentType) && !extracted.Significant() && (req.Title == "" || endDate == nil) {
		s.enqueueReextract(ctx, req, detail, logger)
	}
	s.logAudit(ctx, req, item, detail)

	return &IngestResult{
		ItemID:       item.ID,
		ItemDetailID: detail.ID,
		Title:        title,
		EndDate:      endDate,
		FileURL:      detail.FileURL,
	}, nil
}

func validate(req IngestRequest) (uuid.UUID, error) {
	if req.ClientID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: client is required", ErrValidation)
	}
	if req.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: user is required", ErrValidation)
	}
	objectID, err := uuid.Parse(strings.TrimSpace(req.ObjectID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: object_id is invalid", ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return uuid.Nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.File.Empty() {
		return uuid.Nil, fmt.Errorf("%w: file is required", ErrValidation)
	}
	return objectID, nil
}

// enqueueReextract schedules OCR for a PDF with no text layer. FallbackTitle
// is only set when the title was inferred; a user supplied title is left empty
// so the job never replaces it.
func (s *Service) enqueueReextract(ctx context.Context, req IngestRequest, detail *models.ItemDetail, logger *slog.Logger) {
	if s.queue == nil {
		return
	}
	payload := queue.ItemReextractPayload{
		ItemDetailID: detail.ID.String(),
		ClientID:     detail.ClientID.String(),
		StorageKey:   detail.StorageKey,
		MediaType:    detail.FileType,
	}
	if strings.TrimSpace(req.Title) == "" {
		payload.FallbackTitle = detail.Name
	}
	err := s.queue.EnqueueItemReextract(ctx, payload)
	if err != nil {
		logger.Warn("enqueue re-extraction failed", "item_detail_id", detail.ID, "error", err)
	}
}

func (s *Service) logAudit(ctx context.Context, req IngestRequest, item *models.Item, detail *models.ItemDetail) {
	if s.audit == nil {
		return
	}
	userID := req.UserID
	err := s.audit.Log(ctx, audit.LogEntry{
		ClientID:     req.ClientID,
		UserID:       &userID,
		Action:       audit.ActionItemCreate,
		ResourceType: "item",
		ResourceID:   &item.ID,
		Details: map[string]interface{}{
			"item_detail_id": detail.ID,
			"title":          detail.Name,
			"end_date":       detail.EndDate,
			"file_type":      detail.FileType,
		},
		IPAddress: req.RemoteIP,
	})
	if err != nil {
		s.logger.Warn("audit log failed", "item_id", item.ID, "error", err)
	}
}

type Preview struct {
	Title   string  `json:"title"`
	EndDate *string `json:"end_date"`
}

// previewEntry is what the preview cache holds. Only the extracted text is
// keyed by content; anything derived from the request is computed per call.
type previewEntry struct {
	Text string `json:"text"`
}

// Preview runs extraction and inference without storing anything. The title
// falls back to the filename without its extension.
func (s *Service) Preview(ctx context.Context, file *document.Upload) (*Preview, error) {
	if file.Empty() {
		return nil, fmt.Errorf("%w: file is required", ErrValidation)
	}

	text := s.previewText(ctx, file)
	fallback := strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	return &Preview{
		Title:   docmeta.InferTitle(text, fallback),
		EndDate: docmeta.ResolveEndDate(text, ""),
	}, nil
}

func (s *Service) previewText(ctx context.Context, file *document.Upload) string {
	key := previewKey(file)
	if s.cache != nil {
		var cached previewEntry
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached.Text
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("preview cache read failed", "error", err)
		}
	}

	extracted := s.extractor.Extract(ctx, file.Data, file.ContentType)
	if s.cache != nil && s.previewTTL > 0 {
		if err := s.cache.Set(ctx, key, previewEntry{Text: extracted.Text}, s.previewTTL); err != nil {
			s.logger.Warn("preview cache write failed", "error", err)
		}
	}
	return extracted.Text
}

func previewKey(file *document.Upload) string {
	return "preview:" + file.Digest() + ":" + file.ContentType
}

// Reextract downloads a stored PDF, OCRs its rasterized pages and fills in
// metadata that is still at its fallback value. An empty FallbackTitle means
// the title was supplied by the user and only the end date may be filled.
// Rows deleted since the job was queued are skipped.
func (s *Service) Reextract(ctx context.Context, p queue.ItemReextractPayload) error {
	detailID, err := uuid.Parse(p.ItemDetailID)
	if err != nil {
		return fmt.Errorf("%w: item_detail_id is invalid", ErrValidation)
	}
	clientID, err := uuid.Parse(p.ClientID)
	if err != nil {
		return fmt.Errorf("%w: client_id is invalid", ErrValidation)
	}
	logger := s.logger.With("item_detail_id", detailID)

	detail, err := s.repo.GetDetail(ctx, clientID, detailID)
	if errors.Is(err, ErrNotFound) {
		logger.Info("item detail gone, skipping re-extraction")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	path, cleanup, err := s.download(ctx, detail.StorageKey)
	if err != nil {
		return err
	}
	defer cleanup()

	extracted := s.extractor.ExtractFile(ctx, path, detail.FileType)
	if !extracted.Significant() {
		logger.Info("re-extraction found no text", "method", extracted.Method)
		return nil
	}

	var title string
	if p.FallbackTitle != "" {
		title = docmeta.InferTitle(extracted.Text, p.FallbackTitle)
	}
	endDate := docmeta.ResolveEndDate(extracted.Text, "")

	updated, err := s.repo.UpdateDetailMetadata(ctx, clientID, detailID, p.FallbackTitle, title, endDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !updated {
		logger.Warn("item detail vanished before re-extraction finished")
		return nil
	}

	logger.Info("item re-extracted", "method", extracted.Method, "title", title, "has_end_date", endDate != nil)
	return nil
}

func (s *Service) download(ctx context.Context, key string) (string, func(), error) {
	rc, err := s.storage.Download(ctx, s.bucket, key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer rc.Close()

	f, err := os.CreateTemp("", "notiflex-item-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("%w: download %s: %w", ErrStorage, key, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
