package document

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// Upload is a file received from a client, held in memory for one request.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
	Size        int64
}

// NewUpload normalizes the declared content type, sniffing the bytes when the
// client sent none or a generic one.
func NewUpload(data []byte, contentType, filename string) *Upload {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
	}
	return &Upload{
		Data:        data,
		ContentType: ct,
		Filename:    filename,
		Size:        int64(len(data)),
	}
}

func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// Digest is the hex SHA-256 of the upload bytes.
func (u *Upload) Digest() string {
	sum := sha256.Sum256(u.Data)
	return hex.EncodeToString(sum[:])
}
