package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUpload(t *testing.T) {
	pdf := []byte("%PDF-1.7\n...")

	u := NewUpload(pdf, "Application/PDF; charset=binary", "a.pdf")
	assert.Equal(t, "application/pdf", u.ContentType)
	assert.Equal(t, int64(len(pdf)), u.Size)

	u = NewUpload(pdf, "application/octet-stream", "a.pdf")
	assert.Equal(t, "application/pdf", u.ContentType)

	u = NewUpload([]byte("hello"), "", "a.txt")
	assert.Equal(t, "text/plain", u.ContentType)
}

func TestUpload_EmptyAndDigest(t *testing.T) {
	var nilUpload *Upload
	assert.True(t, nilUpload.Empty())
	assert.True(t, NewUpload(nil, "image/png", "x.png").Empty())

	u := NewUpload([]byte("abc"), "text/plain", "x.txt")
	assert.False(t, u.Empty())
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", u.Digest())
}
