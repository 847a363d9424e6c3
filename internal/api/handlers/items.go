package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/nikhilbhutani/notiflex/internal/document"
	"github.com/nikhilbhutani/notiflex/internal/item"
	"github.com/nikhilbhutani/notiflex/internal/tenant"
)

// multipart parts beyond this stay on disk until the request ends
const maxFormMemory = 8 << 20

type ItemService interface {
	Ingest(ctx context.Context, req item.IngestRequest) (*item.IngestResult, error)
	Preview(ctx context.Context, file *document.Upload) (*item.Preview, error)
}

type ItemHandler struct {
	svc       ItemService
	maxUpload int64
	timeout   time.Duration
}

func NewItemHandler(svc ItemService, maxUpload int64, timeout time.Duration) *ItemHandler {
	return &ItemHandler{svc: svc, maxUpload: maxUpload, timeout: timeout}
}

// Add handles POST /dashboard/items/add.
func (h *ItemHandler) Add(w http.ResponseWriter, r *http.Request) {
	file, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.svc.Ingest(ctx, item.IngestRequest{
		ClientID: tenant.IDFromContext(r.Context()),
		UserID:   tenant.UserIDFromContext(r.Context()),
		ObjectID: r.FormValue("object_id"),
		Name:     r.FormValue("name"),
		Location: r.FormValue("location"),
		Notes:    r.FormValue("notes"),
		Title:    r.FormValue("title"),
		EndDate:  r.FormValue("end_date"),
		File:     file,
		RemoteIP: remoteIP(r),
	})
	if err != nil {
		writeItemError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"item_id":        res.ItemID,
		"item_detail_id": res.ItemDetailID,
		"title":          res.Title,
		"end_date":       res.EndDate,
		"file_url":       res.FileURL,
	})
}

// Extract handles POST /dashboard/items/ai-extract and its extract-info alias.
func (h *ItemHandler) Extract(w http.ResponseWriter, r *http.Request) {
	file, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	p, err := h.svc.Preview(ctx, file)
	if err != nil {
		writeItemError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"title":    p.Title,
		"end_date": p.EndDate,
	})
}

// parseForm reads the multipart body and the optional "file" part. It writes
// the error response itself and reports false when the request is unusable.
func (h *ItemHandler) parseForm(w http.ResponseWriter, r *http.Request) (*document.Upload, bool) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "file exceeds maximum upload size")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return nil, false
	}
	defer f.Close()

	upload, err := readUpload(f, header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return nil, false
	}
	return upload, true
}

func readUpload(f multipart.File, header *multipart.FileHeader) (*document.Upload, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return document.NewUpload(data, header.Header.Get("Content-Type"), header.Filename), nil
}

func (h *ItemHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func writeItemError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, item.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, item.ErrStorage):
		slog.Error("item storage failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, "failed to store file")
	case errors.Is(err, item.ErrPersistence):
		slog.Error("item persistence failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, "failed to save item")
	default:
		slog.Error("item request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
