package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/notiflex/internal/document"
	"github.com/nikhilbhutani/notiflex/internal/item"
	"github.com/nikhilbhutani/notiflex/internal/models"
	"github.com/nikhilbhutani/notiflex/internal/tenant"
)

type stubItems struct {
	ingested    []item.IngestRequest
	previewed   []*document.Upload
	result      *item.IngestResult
	preview     *item.Preview
	err         error
	hadDeadline bool
}

func (s *stubItems) Ingest(ctx context.Context, req item.IngestRequest) (*item.IngestResult, error) {
	_, s.hadDeadline = ctx.Deadline()
	s.ingested = append(s.ingested, req)
	return s.result, s.err
}

func (s *stubItems) Preview(ctx context.Context, file *document.Upload) (*item.Preview, error) {
	_, s.hadDeadline = ctx.Deadline()
	s.previewed = append(s.previewed, file)
	return s.preview, s.err
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var (
	testClient = &models.Client{ID: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), Name: "Acme"}
	testUser   = &models.User{ID: uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427"), ClientID: testClient.ID}
	pdfFile    = &formFile{name: "kontrak.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4 test")}
)

func newRequest(t *testing.T, path string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, fields, file)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	ctx := tenant.WithUser(tenant.WithClient(req.Context(), testClient), testUser)
	return req.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAdd(t *testing.T) {
	end := "31-12-2024"
	stub := &stubItems{result: &item.IngestResult{
		ItemID:       uuid.New(),
		ItemDetailID: uuid.New(),
		Title:        "PERJANJIAN SEWA",
		EndDate:      &end,
		FileURL:      "https://cdn.test/items/1_kontrak.pdf",
	}}
	h := NewItemHandler(stub, 1<<20, time.Minute)

	req := newRequest(t, "/dashboard/items/add", map[string]string{
		"object_id": "0f8fad5b-d9cb-469f-a165-70867728950e",
		"name":      "Sewa kantor",
		"location":  "Gudang A",
		"notes":     "perpanjang tahunan",
		"end_date":  "",
	}, pdfFile)
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "PERJANJIAN SEWA", body["title"])
	assert.Equal(t, "31-12-2024", body["end_date"])

	require.Len(t, stub.ingested, 1)
	got := stub.ingested[0]
	assert.Equal(t, testClient.ID, got.ClientID)
	assert.Equal(t, testUser.ID, got.UserID)
	assert.Equal(t, "Sewa kantor", got.Name)
	assert.Equal(t, "Gudang A", got.Location)
	assert.Equal(t, "perpanjang tahunan", got.Notes)
	assert.Equal(t, "192.0.2.1", got.RemoteIP)
	require.NotNil(t, got.File)
	assert.Equal(t, "application/pdf", got.File.ContentType)
	assert.Equal(t, "kontrak.pdf", got.File.Filename)
	assert.EqualValues(t, len(pdfFile.data), got.File.Size)
	assert.True(t, stub.hadDeadline)
}

func TestAdd_MissingFileIsLeftToService(t *testing.T) {
	stub := &stubItems{err: fmt.Errorf("%w: file is required", item.ErrValidation)}
	h := NewItemHandler(stub, 1<<20, time.Minute)

	rec := httptest.NewRecorder()
	h.Add(rec, newRequest(t, "/dashboard/items/add", map[string]string{"name": "x"}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "file is required")
	require.Len(t, stub.ingested, 1)
	assert.Nil(t, stub.ingested[0].File)
}

func TestAdd_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", fmt.Errorf("%w: object_id is invalid", item.ErrValidation), http.StatusBadRequest, "object_id is invalid"},
		{"storage", fmt.Errorf("%w: bucket missing", item.ErrStorage), http.StatusBadRequest, "failed to store file"},
		{"persistence", fmt.Errorf("%w: fk violation", item.ErrPersistence), http.StatusBadRequest, "failed to save item"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewItemHandler(&stubItems{err: tt.err}, 1<<20, time.Minute)
			rec := httptest.NewRecorder()
			h.Add(rec, newRequest(t, "/dashboard/items/add", map[string]string{"name": "x"}, pdfFile))

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.msg)
		})
	}
}

func TestAdd_BodyTooLarge(t *testing.T) {
	stub := &stubItems{}
	h := NewItemHandler(stub, 64, time.Minute)

	big := &formFile{name: "scan.png", contentType: "image/png", data: bytes.Repeat([]byte("x"), 4096)}
	rec := httptest.NewRecorder()
	h.Add(rec, newRequest(t, "/dashboard/items/add", map[string]string{"name": "x"}, big))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
	assert.Empty(t, stub.ingested)
}

func TestAdd_NotMultipart(t *testing.T) {
	stub := &stubItems{}
	h := NewItemHandler(stub, 1<<20, time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/items/add", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid multipart form", decode(t, rec)["error"])
	assert.Empty(t, stub.ingested)
}

func TestExtract(t *testing.T) {
	stub := &stubItems{preview: &item.Preview{Title: "kontrak"}}
	h := NewItemHandler(stub, 1<<20, 0)

	rec := httptest.NewRecorder()
	h.Extract(rec, newRequest(t, "/dashboard/items/ai-extract", nil, pdfFile))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "kontrak", body["title"])
	v, ok := body["end_date"]
	assert.True(t, ok)
	assert.Nil(t, v)

	require.Len(t, stub.previewed, 1)
	assert.Equal(t, "kontrak.pdf", stub.previewed[0].Filename)
	assert.False(t, stub.hadDeadline)
}

func TestExtract_RequiresFile(t *testing.T) {
	stub := &stubItems{err: fmt.Errorf("%w: file is required", item.ErrValidation)}
	h := NewItemHandler(stub, 1<<20, time.Minute)

	rec := httptest.NewRecorder()
	h.Extract(rec, newRequest(t, "/dashboard/items/extract-info", nil, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "file is required")
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(stubPinger{}, stubPinger{})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestReadyz_Unhealthy(t *testing.T) {
	h := NewHealthHandler(stubPinger{}, stubPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "unhealthy: connection refused", checks["redis"])
}
